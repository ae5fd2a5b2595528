// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package fft

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	gnarkfft "github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"github.com/stretchr/testify/require"
)

// rootOfUnity returns a primitive 2^lgn-th root of unity.
func rootOfUnity(t testing.TB, lgn uint32) fr.Element {
	t.Helper()
	domain := gnarkfft.NewDomain(uint64(1) << lgn)
	return domain.Generator
}

func randomVector(t testing.TB, n int) []fr.Element {
	t.Helper()
	a := make([]fr.Element, n)
	for i := range a {
		_, err := a[i].SetRandom()
		require.NoError(t, err)
	}
	return a
}

// TestSerialAgainstDomain checks the serial transform against gnark-crypto's
// independent FFT for every size up to 2^12.
func TestSerialAgainstDomain(t *testing.T) {
	for lgn := uint32(1); lgn <= 12; lgn++ {
		n := 1 << lgn
		omega := rootOfUnity(t, lgn)

		a := randomVector(t, n)
		b := make([]fr.Element, n)
		copy(b, a)

		Serial(a, omega, lgn)

		domain := gnarkfft.NewDomain(uint64(n))
		domain.FFT(b, gnarkfft.DIF)
		gnarkfft.BitReverse(b)

		require.Equal(t, b, a, "lgn=%d", lgn)
	}
}

func TestSerialKnownVectors(t *testing.T) {
	one := fr.One()
	var zero fr.Element

	t.Run("TwoPointImpulse", func(t *testing.T) {
		// omega = -1 is the primitive square root of unity.
		var omega fr.Element
		omega.Neg(&one)

		a := []fr.Element{one, zero}
		Serial(a, omega, 1)
		require.Equal(t, []fr.Element{one, one}, a)
	})

	t.Run("FourPointConstant", func(t *testing.T) {
		omega := rootOfUnity(t, 2)
		a := []fr.Element{one, one, one, one}
		Serial(a, omega, 2)

		var four fr.Element
		four.SetUint64(4)
		require.Equal(t, []fr.Element{four, zero, zero, zero}, a)
	})

	t.Run("EightPointImpulse", func(t *testing.T) {
		omega := rootOfUnity(t, 3)
		a := make([]fr.Element, 8)
		a[0] = one
		Serial(a, omega, 3)
		for i := range a {
			require.Equal(t, one, a[i], "index %d", i)
		}
	})

	t.Run("EightPointShiftedImpulse", func(t *testing.T) {
		omega := rootOfUnity(t, 3)
		a := make([]fr.Element, 8)
		a[1] = one
		Serial(a, omega, 3)

		var e big.Int
		for i := range a {
			var want fr.Element
			want.Exp(omega, e.SetUint64(uint64(i)))
			require.Equal(t, want, a[i], "index %d", i)
		}
	})
}

func TestSerialInverseRoundTrip(t *testing.T) {
	const lgn = 10
	n := 1 << lgn
	omega := rootOfUnity(t, lgn)
	var omegaInv fr.Element
	omegaInv.Inverse(&omega)

	a := randomVector(t, n)
	want := make([]fr.Element, n)
	copy(want, a)

	Serial(a, omega, lgn)
	Serial(a, omegaInv, lgn)

	var nInv fr.Element
	nInv.SetUint64(uint64(n))
	nInv.Inverse(&nInv)
	for i := range a {
		a[i].Mul(&a[i], &nInv)
	}

	require.Equal(t, want, a)
}

func TestSerialLinearity(t *testing.T) {
	const lgn = 8
	n := 1 << lgn
	omega := rootOfUnity(t, lgn)

	x := randomVector(t, n)
	y := randomVector(t, n)
	var alpha, beta fr.Element
	_, err := alpha.SetRandom()
	require.NoError(t, err)
	_, err = beta.SetRandom()
	require.NoError(t, err)

	// combined = FFT(alpha*x + beta*y)
	combined := make([]fr.Element, n)
	for i := range combined {
		var ax, by fr.Element
		ax.Mul(&alpha, &x[i])
		by.Mul(&beta, &y[i])
		combined[i].Add(&ax, &by)
	}
	Serial(combined, omega, lgn)

	// separate = alpha*FFT(x) + beta*FFT(y)
	Serial(x, omega, lgn)
	Serial(y, omega, lgn)
	separate := make([]fr.Element, n)
	for i := range separate {
		var ax, by fr.Element
		ax.Mul(&alpha, &x[i])
		by.Mul(&beta, &y[i])
		separate[i].Add(&ax, &by)
	}

	require.Equal(t, separate, combined)
}

func TestLgn(t *testing.T) {
	for _, tc := range []struct {
		n   int
		lgn uint32
		ok  bool
	}{
		{1, 0, true},
		{2, 1, true},
		{1024, 10, true},
		{0, 0, false},
		{3, 0, false},
		{-4, 0, false},
	} {
		lgn, ok := Lgn(tc.n)
		require.Equal(t, tc.ok, ok, "n=%d", tc.n)
		if ok {
			require.Equal(t, tc.lgn, lgn, "n=%d", tc.n)
		}
	}
}

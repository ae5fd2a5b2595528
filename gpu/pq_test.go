// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	gnarkfft "github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"github.com/stretchr/testify/require"
)

func testOmega(t testing.TB, lgn uint32) fr.Element {
	t.Helper()
	domain := gnarkfft.NewDomain(uint64(1) << lgn)
	return domain.Generator
}

func TestComputePQ(t *testing.T) {
	const lgn = 12
	n := uint64(1) << lgn
	omega := testOmega(t, lgn)

	for maxDeg := uint32(1); maxDeg <= maxRadixDegree; maxDeg++ {
		pq := computePQ(&omega, n, maxDeg)
		require.Len(t, pq, 1<<maxRadixDegree>>1)

		var tw fr.Element
		tw.Exp(omega, new(big.Int).SetUint64(n>>maxDeg))

		var e big.Int
		valid := 1 << (maxDeg - 1)
		for i := 0; i < valid; i++ {
			var want fr.Element
			want.Exp(tw, e.SetUint64(uint64(i)))
			require.Equal(t, want, pq[i], "maxDeg=%d i=%d", maxDeg, i)
		}

		// The tail past the valid range stays zeroed.
		var zero fr.Element
		for i := valid; i < len(pq); i++ {
			require.Equal(t, zero, pq[i], "maxDeg=%d i=%d", maxDeg, i)
		}
	}
}

func TestComputeOmegas(t *testing.T) {
	omega := testOmega(t, 12)
	om := computeOmegas(&omega)
	require.Len(t, om, LogMaxElements)

	for i := 0; i < LogMaxElements; i++ {
		var want fr.Element
		want.Exp(omega, new(big.Int).Lsh(big.NewInt(1), uint(i)))
		require.Equal(t, want, om[i], "i=%d", i)
	}
}

// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Package fft implements number-theoretic transforms over the BN254 scalar
// field. The root package carries the host-side (CPU) transform; the gpu
// subpackage accelerates the same transform on an OpenCL device.
package fft

import (
	"math/big"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Serial performs an in-place NTT of a on the CPU.
// omega must be a primitive 2^lgn-th root of unity and len(a) must equal
// 2^lgn. The result is the evaluation form of a in natural order.
func Serial(a []fr.Element, omega fr.Element, lgn uint32) {
	n := uint32(1) << lgn

	for k := uint32(0); k < n; k++ {
		rk := bitReverse(k, lgn)
		if k < rk {
			a[k], a[rk] = a[rk], a[k]
		}
	}

	var e big.Int
	for m := uint32(1); m < n; m <<= 1 {
		var wm fr.Element
		wm.Exp(omega, e.SetUint64(uint64(n/(2*m))))
		for k := uint32(0); k < n; k += 2 * m {
			var w fr.Element
			w.SetOne()
			for j := uint32(0); j < m; j++ {
				var t fr.Element
				t.Mul(&a[k+j+m], &w)
				a[k+j+m].Sub(&a[k+j], &t)
				a[k+j].Add(&a[k+j], &t)
				w.Mul(&w, &wm)
			}
		}
	}
}

// Lgn returns log2(n) for a power-of-two n and whether n is a power of two.
func Lgn(n int) (uint32, bool) {
	if n <= 0 || n&(n-1) != 0 {
		return 0, false
	}
	return uint32(bits.TrailingZeros(uint(n))), true
}

func bitReverse(k, lgn uint32) uint32 {
	return bits.Reverse32(k) >> (32 - lgn)
}

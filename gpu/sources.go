// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	_ "embed"
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

//go:embed kernels/fft.cl
var kernelTemplate string

// KernelSource returns the OpenCL program source specialised to the BN254
// scalar field: the FIELD_P_LIMBS, FIELD_ONE_LIMBS and FIELD_INV_LIMB tokens
// of the embedded template are replaced with the field's limb constants.
func KernelSource() string {
	var one fr.Element
	one.SetOne()

	return strings.NewReplacer(
		"FIELD_P_LIMBS", limbLiteral(modulusLimbs()),
		"FIELD_ONE_LIMBS", limbLiteral([fieldLimbs]uint64(one)),
		"FIELD_INV_LIMB", fmt.Sprintf("0x%016xUL", montgomeryInv()),
	).Replace(kernelTemplate)
}

const fieldLimbs = FieldBytes / 8

func modulusLimbs() [fieldLimbs]uint64 {
	var limbs [fieldLimbs]uint64
	q := fr.Modulus()
	for i := range limbs {
		limbs[i] = new(big.Int).Rsh(q, uint(64*i)).Uint64()
	}
	return limbs
}

// montgomeryInv computes -q^-1 mod 2^64, the Montgomery reduction constant
// the kernel needs alongside the modulus.
func montgomeryInv() uint64 {
	r := new(big.Int).Lsh(big.NewInt(1), 64)
	inv := new(big.Int).ModInverse(fr.Modulus(), r)
	inv.Neg(inv).Mod(inv, r)
	return inv.Uint64()
}

func limbLiteral(limbs [fieldLimbs]uint64) string {
	parts := make([]string, len(limbs))
	for i, l := range limbs {
		parts[i] = fmt.Sprintf("0x%016xUL", l)
	}
	return strings.Join(parts, ", ")
}

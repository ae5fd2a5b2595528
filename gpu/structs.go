// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"unsafe"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// FieldBytes is the size of one field element on both the host and the
// device. fr.Element is four little-endian uint64 limbs in Montgomery form
// and the kernel operates on exactly that layout, so crossing the host and
// device boundary is a reinterpretation, never a conversion.
const FieldBytes = 32

// Both directions of the size identity, and the limb alignment, are checked
// at compile time. A field representation change breaks the build here
// rather than corrupting device transfers.
const (
	_ = uint(FieldBytes - unsafe.Sizeof(fr.Element{}))
	_ = uint(unsafe.Sizeof(fr.Element{}) - FieldBytes)
	_ = uint(unsafe.Alignof(fr.Element{}) - unsafe.Alignof(uint64(0)))
)

// fieldPtr returns the zero-copy device-transferable view of a: its base
// pointer and length in bytes. The slice must be non-empty.
func fieldPtr(a []fr.Element) (unsafe.Pointer, int) {
	return unsafe.Pointer(&a[0]), len(a) * FieldBytes
}

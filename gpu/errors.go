// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "errors"

var (
	// ErrNoDevice is returned when the platform reports no usable GPU.
	ErrNoDevice = errors.New("gpu: no working GPUs found")

	// ErrGPUTaken is returned when a non-priority transform is pre-empted
	// by the priority signal. The call may be retried later.
	ErrGPUTaken = errors.New("gpu: pre-empted by a priority process")

	// ErrInvalidSize is returned when lgn is out of range or the input
	// slice length does not equal 2^lgn.
	ErrInvalidSize = errors.New("gpu: invalid transform size")
)

// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

const (
	gpuLockName      = "lux.fft.gpu.lock"
	priorityLockName = "lux.fft.priority.lock"
)

// GPULock is a process-global advisory lock on GPU use. Exactly one kernel
// host may hold it at a time, across every process on the machine. It is
// acquired when a kernel host is created and released when the host is
// released, strictly after the device resources.
type GPULock struct {
	f *flock.Flock
}

// LockGPU blocks until the global GPU lock is acquired.
func LockGPU() (*GPULock, error) {
	f := flock.New(filepath.Join(os.TempDir(), gpuLockName))
	if err := f.Lock(); err != nil {
		return nil, errors.Wrap(err, "acquiring GPU lock")
	}
	return &GPULock{f: f}, nil
}

// Unlock releases the global GPU lock.
func (l *GPULock) Unlock() {
	if l != nil && l.f != nil {
		l.f.Unlock()
		l.f = nil
	}
}

// PriorityLock marks its holder as the machine's priority GPU user.
// Non-priority transform holders poll the lock and abort when it is taken.
type PriorityLock struct {
	f *flock.Flock
}

// LockPriority blocks until the priority lock is acquired.
func LockPriority() (*PriorityLock, error) {
	f := flock.New(filepath.Join(os.TempDir(), priorityLockName))
	if err := f.Lock(); err != nil {
		return nil, errors.Wrap(err, "acquiring priority lock")
	}
	return &PriorityLock{f: f}, nil
}

// Unlock releases the priority lock.
func (l *PriorityLock) Unlock() {
	if l != nil && l.f != nil {
		l.f.Unlock()
		l.f = nil
	}
}

// ShouldBreak reports whether a compute holder with the given priority flag
// must abort in favour of a priority process. Priority holders never break.
func ShouldBreak(priority bool) bool {
	if priority {
		return false
	}
	f := flock.New(filepath.Join(os.TempDir(), priorityLockName))
	locked, err := f.TryRLock()
	if err != nil || !locked {
		return true
	}
	f.Unlock()
	return false
}

// breakSignal is the pre-emption predicate consulted by the transform
// drivers. Tests swap it to inject a break between stages.
var breakSignal = ShouldBreak

// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu accelerates the number-theoretic transform on an OpenCL
// device. A kernel host owns the device context, the compiled program and
// two persistent twiddle tables, and holds the machine-wide GPU lock for
// its whole lifetime.
package gpu

import (
	"log"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/jgillich/go-opencl/cl"
	"github.com/pkg/errors"
)

const (
	// LogMaxElements bounds transform sizes to 2^32 elements.
	LogMaxElements = 32

	// maxRadixDegree is the largest radix handled in one stage (radix-256).
	maxRadixDegree = 8

	// maxLocalWorkSizeDegree caps the work-group size at 128.
	maxLocalWorkSizeDegree = 7

	// minRadixMemory is the device memory at or below which the single-buffer
	// in-place path is used instead of the two-buffer radix path. The
	// radix path needs two N-sized scratch buffers plus headroom.
	minRadixMemory = 9 * 1024 * 1024 * 1024
)

// FFTKernel hosts NTT kernels on a single OpenCL device.
//
// A kernel host is not safe for concurrent use; callers serialise transform
// calls. Release order on teardown is buffers, program, queue, context and
// the GPU lock strictly last.
type FFTKernel struct {
	device  *cl.Device
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program

	pqBuffer  *cl.MemObject
	omgBuffer *cl.MemObject

	// n is the work-dimension hint the host was created for; transforms up
	// to n elements are the intended workload.
	n uint32

	priority bool
	lock     *GPULock
}

// Create builds a kernel host on the first GPU device, sized for
// transforms of up to n elements. It blocks until the machine-wide GPU
// lock is acquired; the lock is held until Release.
func Create(n uint32, priority bool) (*FFTKernel, error) {
	return CreateOnDevice(n, priority, 0)
}

// CreateOnDevice is Create on the device at the given index of the
// platform's device list. An out-of-range index falls back to device 0.
func CreateOnDevice(n uint32, priority bool, index int) (*FFTKernel, error) {
	lock, err := LockGPU()
	if err != nil {
		return nil, err
	}

	k := &FFTKernel{n: n, priority: priority, lock: lock}
	if err := k.init(index); err != nil {
		k.Release()
		return nil, err
	}
	return k, nil
}

func (k *FFTKernel) init(index int) error {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return errors.Wrap(err, "enumerating platforms")
	}
	if len(platforms) == 0 {
		return ErrNoDevice
	}
	platform := platforms[0]
	log.Printf("fft: platform selected: %s", platform.Name())

	devices, err := platform.GetDevices(cl.DeviceTypeGPU)
	if err != nil || len(devices) == 0 {
		return ErrNoDevice
	}
	if index < 0 || index >= len(devices) {
		log.Printf("fft: device index %d out of range, defaulting to 0", index)
		index = 0
	}
	k.device = devices[index]
	log.Printf("fft: device %d: %s", index, k.device.Name())

	k.context, err = cl.CreateContext([]*cl.Device{k.device})
	if err != nil {
		return errors.Wrap(err, "creating context")
	}
	k.queue, err = k.context.CreateCommandQueue(k.device, 0)
	if err != nil {
		return errors.Wrap(err, "creating command queue")
	}

	k.program, err = k.context.CreateProgramWithSource([]string{KernelSource()})
	if err != nil {
		return errors.Wrap(err, "creating program")
	}
	if err := k.program.BuildProgram([]*cl.Device{k.device}, ""); err != nil {
		return errors.Wrap(err, "building program")
	}

	k.pqBuffer, err = k.context.CreateEmptyBuffer(cl.MemReadWrite, (1<<maxRadixDegree>>1)*FieldBytes)
	if err != nil {
		return errors.Wrap(err, "allocating pq buffer")
	}
	k.omgBuffer, err = k.context.CreateEmptyBuffer(cl.MemReadWrite, LogMaxElements*FieldBytes)
	if err != nil {
		return errors.Wrap(err, "allocating omegas buffer")
	}
	return nil
}

// Release frees the device resources and then relinquishes the GPU lock.
func (k *FFTKernel) Release() {
	if k.omgBuffer != nil {
		k.omgBuffer.Release()
	}
	if k.pqBuffer != nil {
		k.pqBuffer.Release()
	}
	if k.program != nil {
		k.program.Release()
	}
	if k.queue != nil {
		k.queue.Release()
	}
	if k.context != nil {
		k.context.Release()
	}
	k.lock.Unlock()
}

// computePQ builds the radix twiddle table: pq[i] = tw^i for
// tw = omega^(n/2^maxDeg). The table is always full length; entries past
// 2^(maxDeg-1) stay zero.
func computePQ(omega *fr.Element, n uint64, maxDeg uint32) []fr.Element {
	pq := make([]fr.Element, 1<<maxRadixDegree>>1)
	var tw fr.Element
	tw.Exp(*omega, new(big.Int).SetUint64(n>>maxDeg))
	pq[0].SetOne()
	if maxDeg > 1 {
		pq[1].Set(&tw)
		for i := 2; i < 1<<maxDeg>>1; i++ {
			pq[i].Mul(&pq[i-1], &tw)
		}
	}
	return pq
}

// computeOmegas builds the squared-roots table: om[i] = omega^(2^i).
func computeOmegas(omega *fr.Element) []fr.Element {
	om := make([]fr.Element, LogMaxElements)
	om[0].Set(omega)
	for i := 1; i < LogMaxElements; i++ {
		om[i].Square(&om[i-1])
	}
	return om
}

// setupPQ refreshes both persistent device tables for (omega, n, maxDeg).
func (k *FFTKernel) setupPQ(omega *fr.Element, n uint64, maxDeg uint32) error {
	pq := computePQ(omega, n, maxDeg)
	ptr, size := fieldPtr(pq)
	if _, err := k.queue.EnqueueWriteBuffer(k.pqBuffer, true, 0, size, ptr, nil); err != nil {
		return errors.Wrap(err, "writing pq table")
	}

	om := computeOmegas(omega)
	ptr, size = fieldPtr(om)
	if _, err := k.queue.EnqueueWriteBuffer(k.omgBuffer, true, 0, size, ptr, nil); err != nil {
		return errors.Wrap(err, "writing omegas table")
	}
	return nil
}

// radixFFTRound enqueues one radix-2^deg stage, reading from one ping-pong
// buffer and writing the other. Non-priority holders abort here when the
// priority signal is up.
func (k *FFTKernel) radixFFTRound(src, dst *cl.MemObject, lgn, lgp, deg, maxDeg uint32, inSrc bool) error {
	if breakSignal(k.priority) {
		return ErrGPUTaken
	}

	n := uint32(1) << lgn
	lwsd := deg - 1
	if lwsd > maxLocalWorkSizeDegree {
		lwsd = maxLocalWorkSizeDegree
	}

	kernel, err := k.program.CreateKernel("radix_fft")
	if err != nil {
		return errors.Wrap(err, "creating radix_fft kernel")
	}
	defer kernel.Release()

	read, write := src, dst
	if !inSrc {
		read, write = dst, src
	}
	err = kernel.SetArgs(
		read,
		write,
		k.pqBuffer,
		k.omgBuffer,
		cl.LocalBuffer((1<<deg)*FieldBytes),
		n,
		lgp,
		deg,
		maxDeg,
	)
	if err != nil {
		return errors.Wrap(err, "setting radix_fft args")
	}

	global := int(n>>deg) << lwsd
	local := 1 << lwsd
	if _, err := k.queue.EnqueueNDRangeKernel(kernel, nil, []int{global}, []int{local}, nil); err != nil {
		return errors.Wrap(err, "enqueuing radix_fft")
	}
	return nil
}

// RadixFFT transforms a in place through the two-buffer radix path.
// omega must be a primitive 2^lgn-th root of unity. On error the contents
// of a are unspecified.
func (k *FFTKernel) RadixFFT(a []fr.Element, omega *fr.Element, lgn uint32) error {
	if err := checkSize(a, lgn); err != nil {
		return err
	}
	n := 1 << lgn

	src, err := k.context.CreateEmptyBuffer(cl.MemReadWrite, n*FieldBytes)
	if err != nil {
		return errors.Wrap(err, "allocating src buffer")
	}
	defer src.Release()
	dst, err := k.context.CreateEmptyBuffer(cl.MemReadWrite, n*FieldBytes)
	if err != nil {
		return errors.Wrap(err, "allocating dst buffer")
	}
	defer dst.Release()

	ptr, size := fieldPtr(a)

	maxDeg := min32(maxRadixDegree, lgn)
	if err := k.setupPQ(omega, uint64(n), maxDeg); err != nil {
		return err
	}

	if _, err := k.queue.EnqueueWriteBuffer(src, true, 0, size, ptr, nil); err != nil {
		return errors.Wrap(err, "writing input")
	}

	inSrc := true
	for lgp := uint32(0); lgp < lgn; {
		deg := min32(maxDeg, lgn-lgp)
		if err := k.radixFFTRound(src, dst, lgn, lgp, deg, maxDeg, inSrc); err != nil {
			return err
		}
		lgp += deg
		inSrc = !inSrc // the stage's destination is the next stage's source
	}

	// An even number of stages lands the result back in src.
	out := dst
	if inSrc {
		out = src
	}
	if _, err := k.queue.EnqueueReadBuffer(out, true, 0, size, ptr, nil); err != nil {
		return errors.Wrap(err, "reading output")
	}
	if err := k.queue.Finish(); err != nil {
		return errors.Wrap(err, "draining queue")
	}
	return nil
}

// InplaceFFT transforms a on a single device buffer: a bit-reversal
// permutation followed by lgn butterfly stages. It checks the priority
// signal once, at entry. On error the contents of a are unspecified.
func (k *FFTKernel) InplaceFFT(a []fr.Element, omega *fr.Element, lgn uint32) error {
	if breakSignal(k.priority) {
		return ErrGPUTaken
	}
	if err := checkSize(a, lgn); err != nil {
		return err
	}
	n := 1 << lgn

	buffer, err := k.context.CreateEmptyBuffer(cl.MemReadWrite, n*FieldBytes)
	if err != nil {
		return errors.Wrap(err, "allocating buffer")
	}
	defer buffer.Release()

	ptr, size := fieldPtr(a)

	// Only omegas feed the in-place kernels, but both tables are refreshed
	// so they never describe different (omega, n, maxDeg) triples.
	if err := k.setupPQ(omega, uint64(n), min32(maxRadixDegree, lgn)); err != nil {
		return err
	}

	if _, err := k.queue.EnqueueWriteBuffer(buffer, true, 0, size, ptr, nil); err != nil {
		return errors.Wrap(err, "writing input")
	}

	reverse, err := k.program.CreateKernel("reverse_bits")
	if err != nil {
		return errors.Wrap(err, "creating reverse_bits kernel")
	}
	defer reverse.Release()
	if err := reverse.SetArgs(buffer, lgn); err != nil {
		return errors.Wrap(err, "setting reverse_bits args")
	}
	if _, err := k.queue.EnqueueNDRangeKernel(reverse, nil, []int{n}, nil, nil); err != nil {
		return errors.Wrap(err, "enqueuing reverse_bits")
	}

	for lgm := uint32(0); lgm < lgn; lgm++ {
		stage, err := k.program.CreateKernel("inplace_fft")
		if err != nil {
			return errors.Wrap(err, "creating inplace_fft kernel")
		}
		err = stage.SetArgs(buffer, k.omgBuffer, lgn, lgm)
		if err != nil {
			stage.Release()
			return errors.Wrap(err, "setting inplace_fft args")
		}
		_, err = k.queue.EnqueueNDRangeKernel(stage, nil, []int{n / 2}, nil, nil)
		stage.Release()
		if err != nil {
			return errors.Wrap(err, "enqueuing inplace_fft")
		}
	}

	if _, err := k.queue.EnqueueReadBuffer(buffer, true, 0, size, ptr, nil); err != nil {
		return errors.Wrap(err, "reading output")
	}
	if err := k.queue.Finish(); err != nil {
		return errors.Wrap(err, "draining queue")
	}
	return nil
}

// FFT transforms a, choosing the radix path when the device's total memory
// exceeds minRadixMemory and falling back to the in-place path otherwise.
// The size of this transform's scratch buffers is not taken into account.
func (k *FFTKernel) FFT(a []fr.Element, omega *fr.Element, lgn uint32) error {
	if DeviceMemory(k.device) > minRadixMemory {
		return k.RadixFFT(a, omega, lgn)
	}
	log.Printf("fft: device memory too small for the radix path, using the in-place path")
	return k.InplaceFFT(a, omega, lgn)
}

func checkSize(a []fr.Element, lgn uint32) error {
	if lgn < 1 || lgn > LogMaxElements {
		return ErrInvalidSize
	}
	if uint64(len(a)) != 1<<lgn {
		return ErrInvalidSize
	}
	return nil
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

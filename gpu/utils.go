// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/jgillich/go-opencl/cl"
	"github.com/pkg/errors"
)

// defaultCoreCount is assumed for devices missing from the table.
const defaultCoreCount = 2560

var coreCounts = map[string]int{
	// AMD
	"gfx1010": 2560,
	"gfx906":  7400,

	// NVIDIA
	"Quadro RTX 6000": 4608,

	"TITAN RTX": 4608,

	"Tesla V100":   5120,
	"Tesla P100":   3584,
	"Tesla T4":     2560,
	"Quadro M5000": 2048,

	"GeForce RTX 3090": 10496,
	"GeForce RTX 3080": 8704,
	"GeForce RTX 3070": 5888,

	"GeForce RTX 2080 Ti":    4352,
	"GeForce RTX 2080 SUPER": 3072,
	"GeForce RTX 2080":       2944,
	"GeForce RTX 2070 SUPER": 2560,

	"GeForce GTX 1080 Ti":    3584,
	"GeForce GTX 1080":       2560,
	"GeForce GTX 2060":       1920,
	"GeForce GTX 1660 Ti":    1536,
	"GeForce GTX 1060":       1280,
	"GeForce GTX 1650 SUPER": 1280,
	"GeForce GTX 1650":       896,
}

var loadCustomOnce sync.Once

// CoreCount returns the number of compute cores for the named device.
// Unknown devices fall back to a default; the LUX_CUSTOM_GPU environment
// variable ("name:cores,name:cores") extends the table.
func CoreCount(name string) int {
	loadCustomOnce.Do(loadCustomCoreCounts)
	if cores, ok := coreCounts[name]; ok {
		return cores
	}
	log.Printf("fft: core count for device %q is unknown, defaulting to %d; "+
		"set LUX_CUSTOM_GPU to override", name, defaultCoreCount)
	return defaultCoreCount
}

func loadCustomCoreCounts() {
	env := os.Getenv("LUX_CUSTOM_GPU")
	if env == "" {
		return
	}
	for _, card := range strings.Split(env, ",") {
		parts := strings.SplitN(card, ":", 2)
		if len(parts) != 2 {
			log.Printf("fft: invalid LUX_CUSTOM_GPU entry %q", card)
			continue
		}
		name := strings.TrimSpace(parts[0])
		cores, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			log.Printf("fft: invalid LUX_CUSTOM_GPU core count %q", parts[1])
			continue
		}
		log.Printf("fft: adding %q to GPU list with %d cores", name, cores)
		coreCounts[name] = cores
	}
}

// Devices returns the GPU devices of the first OpenCL platform.
func Devices() ([]*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, errors.Wrap(err, "enumerating platforms")
	}
	if len(platforms) == 0 {
		return nil, ErrNoDevice
	}
	devices, err := platforms[0].GetDevices(cl.DeviceTypeGPU)
	if err != nil || len(devices) == 0 {
		return nil, ErrNoDevice
	}
	return devices, nil
}

// DeviceIndex returns the device index requested through LUX_GPU_INDEX,
// defaulting to 0 when unset or unparsable.
func DeviceIndex() int {
	env := os.Getenv("LUX_GPU_INDEX")
	if env == "" {
		return 0
	}
	index, err := strconv.Atoi(env)
	if err != nil || index < 0 {
		log.Printf("fft: invalid LUX_GPU_INDEX %q, defaulting to 0", env)
		return 0
	}
	return index
}

// DeviceMemory returns the device's total global memory in bytes.
func DeviceMemory(d *cl.Device) uint64 {
	return uint64(d.GlobalMemSize())
}

// DumpDeviceList logs every visible GPU device with its memory and cores.
func DumpDeviceList() {
	devices, err := Devices()
	if err != nil {
		log.Printf("fft: %v", err)
		return
	}
	for i, d := range devices {
		log.Printf("fft: device %d: %s (%d bytes, %d cores)",
			i, d.Name(), DeviceMemory(d), CoreCount(d.Name()))
	}
}

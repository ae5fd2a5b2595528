// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// fftinfo lists the visible GPU devices and benchmarks the transform.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	gnarkfft "github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"github.com/urfave/cli"

	"github.com/luxfi/fft"
	"github.com/luxfi/fft/gpu"
)

func main() {
	app := cli.NewApp()
	app.Name = "fftinfo"
	app.Usage = "inspect GPU devices and benchmark the NTT"
	app.Commands = []cli.Command{
		{
			Name:   "devices",
			Usage:  "list visible GPU devices",
			Action: listDevices,
		},
		{
			Name:  "bench",
			Usage: "time one transform",
			Flags: []cli.Flag{
				cli.UintFlag{
					Name:  "lgn",
					Usage: "log2 of the transform size",
					Value: 20,
				},
				cli.BoolFlag{
					Name:  "cpu",
					Usage: "force the host-side serial transform",
				},
			},
			Action: bench,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func listDevices(c *cli.Context) error {
	gpu.DumpDeviceList()
	return nil
}

func bench(c *cli.Context) error {
	lgn := uint32(c.Uint("lgn"))
	if lgn < 1 || lgn > gpu.LogMaxElements {
		return fmt.Errorf("lgn must be in [1, %d]", gpu.LogMaxElements)
	}
	n := 1 << lgn

	domain := gnarkfft.NewDomain(uint64(n))
	omega := domain.Generator

	a := make([]fr.Element, n)
	for i := range a {
		if _, err := a[i].SetRandom(); err != nil {
			return err
		}
	}

	if c.Bool("cpu") {
		start := time.Now()
		fft.Serial(a, omega, lgn)
		fmt.Printf("cpu serial: lgn=%d in %s\n", lgn, time.Since(start))
		return nil
	}

	kernel, err := gpu.CreateOnDevice(uint32(n), false, gpu.DeviceIndex())
	if err != nil {
		log.Printf("fftinfo: no usable GPU (%v), using the cpu serial transform", err)
		start := time.Now()
		fft.Serial(a, omega, lgn)
		fmt.Printf("cpu serial: lgn=%d in %s\n", lgn, time.Since(start))
		return nil
	}
	defer kernel.Release()

	start := time.Now()
	if err := kernel.FFT(a, &omega, lgn); err != nil {
		return err
	}
	fmt.Printf("gpu: lgn=%d in %s\n", lgn, time.Since(start))
	return nil
}

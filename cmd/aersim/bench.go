package main

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/michaelstreif/qiskit-aer/internal/chunk"
)

func benchCmd() *cli.Command {
	var (
		warmupRuns int64
		benchRuns  int64
		shots      int64
	)

	flags := append([]cli.Flag{}, commonPoolFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.Int64Flag{
			Name:        "warmup",
			Usage:       "number of warmup runs",
			Value:       1,
			Destination: &warmupRuns,
		},
		&cli.Int64Flag{
			Name:        "runs",
			Usage:       "number of benchmark runs",
			Value:       3,
			Destination: &benchRuns,
		},
		&cli.Int64Flag{
			Name:        "shots",
			Usage:       "shots per sampling run",
			Value:       1024,
			Destination: &shots,
		},
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Run standardized chunk pool benchmarks",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := LoadConfig()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load config: %v", err), 1)
			}
			applyPoolConfig(cmd, cfg)
			log := newLogger()

			devices, err := resolveDevices(log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			ex := chunk.Fork(int(workers))
			bits := int(chunkBits)
			elems := 1 << bits

			src := chunk.NewHost[complex128]()
			dst := chunk.NewHost[complex128]()
			if _, err := src.Allocate(chunk.HostDevice, bits, 2, 1, 0); err != nil {
				return cli.Exit(fmt.Sprintf("error: allocate source pool: %v", err), 1)
			}
			defer src.Deallocate()
			if _, err := dst.Allocate(chunk.HostDevice, bits, 2, 1, 0); err != nil {
				return cli.Exit(fmt.Sprintf("error: allocate destination pool: %v", err), 1)
			}
			defer dst.Deallocate()

			rng := rand.New(rand.NewSource(1))
			seg := src.ChunkSlice(0)
			for i := range seg {
				seg[i] = complex(rng.Float64(), rng.Float64())
			}

			var dev *chunk.Device[complex128]
			if len(devices) > 0 {
				dev = chunk.NewDevice[complex128]()
				if _, err := dev.Allocate(devices[0], bits, 1, 0, 0); err != nil {
					return cli.Exit(fmt.Sprintf("error: allocate device pool: %v", err), 1)
				}
				defer dev.Deallocate()
			}

			fmt.Println("=== aersim bench ===")
			fmt.Printf("chunk:    %d elements (%d bits), complex128\n", elems, bits)
			fmt.Printf("workers:  %d\n", ex.Workers())
			fmt.Printf("devices:  %d\n", len(devices))
			fmt.Printf("go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Println()

			runs := int(warmupRuns + benchRuns)
			report := func(name string, fn func() error) error {
				var total time.Duration
				for i := 0; i < runs; i++ {
					start := time.Now()
					if err := fn(); err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
					if i >= int(warmupRuns) {
						total += time.Since(start)
					}
				}
				avg := total / time.Duration(benchRuns)
				mb := float64(elems*16) / (1 << 20)
				fmt.Printf("%-14s %10v   %8.1f MiB/s\n", name, avg, mb/avg.Seconds())
				return nil
			}

			if err := report("copy h2h", func() error {
				return dst.CopyIn(ex, chunk.NewRef[complex128](src, 0), 0)
			}); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if err := report("swap h2h", func() error {
				return src.Swap(ex, chunk.NewRef[complex128](dst, 0), 0)
			}); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if dev != nil {
				if err := report("swap h2d", func() error {
					return src.Swap(ex, chunk.NewRef[complex128](dev, 0), 0)
				}); err != nil {
					return cli.Exit(err.Error(), 1)
				}
			}
			if err := report("zero", func() error {
				dst.Zero(ex, 1, elems)
				return nil
			}); err != nil {
				return cli.Exit(err.Error(), 1)
			}

			rnds := make([]float64, shots)
			if err := report("sample", func() error {
				// Stage through the scratch buffer: the scan is destructive.
				if err := src.CopyIn(ex, chunk.NewRef[complex128](src, 0), 2); err != nil {
					return err
				}
				total := real(src.Norm(ex, 2, 1, true))
				for i := range rnds {
					rnds[i] = rng.Float64() * total
				}
				src.SampleMeasure(ex, 2, rnds, 1, true)
				return nil
			}); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if err := report("norm", func() error {
				src.Norm(ex, 0, 1, true)
				return nil
			}); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/michaelstreif/qiskit-aer/internal/api"
	"github.com/michaelstreif/qiskit-aer/internal/statevec"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		sampleRPS   float64
		seed        int64
	)

	flags := append([]cli.Flag{}, commonPoolFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:8080",
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read timeout",
			Value:       30 * time.Second,
			Destination: &readTimeout,
		},
		&cli.Float64Flag{
			Name:        "sample-rps",
			Usage:       "sampling requests per second",
			Value:       10,
			Destination: &sampleRPS,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "random seed for the served statevector (0 = time-based)",
			Value:       0,
			Destination: &seed,
		},
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the pool inspection and sampling API",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := LoadConfig()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load config: %v", err), 1)
			}
			applyServeConfig(cmd, cfg, &addr)
			log := newLogger()

			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			devices, err := resolveDevices(log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			v, err := statevec.NewRandom(log, statevec.Options{
				Precision:     precision,
				ChunkBits:     int(chunkBits),
				NumChunks:     int(numChunks),
				NumBuffers:    int(numBuffers),
				NumCheckpoint: int(numCheckpoint),
				Devices:       devices,
				DeviceChunks:  1,
				Workers:       int(workers),
				Seed:          seed,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: build statevector: %v", err), 1)
			}
			defer v.Close()

			server := api.NewServer(poolState{v: v}, rate.Limit(sampleRPS), 1)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}

// poolState adapts a statevector to the api.State surface.
type poolState struct {
	v statevec.Vector
}

func (s poolState) Status() api.Status {
	info := s.v.Info()
	return api.Status{
		Precision:     info.Precision,
		ChunkBits:     info.ChunkBits,
		NumChunks:     info.NumChunks,
		NumBuffers:    info.NumBuffers,
		NumCheckpoint: info.NumCheckpoint,
		Devices:       info.Devices,
		SizeElements:  info.SizeElements,
		Workers:       info.Workers,
	}
}

func (s poolState) Sample(ctx context.Context, chunk, shots int, seed int64) ([]int, error) {
	return s.v.Sample(chunk, shots, seed)
}

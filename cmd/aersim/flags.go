package main

import (
	"os"

	"github.com/urfave/cli/v3"

	"github.com/michaelstreif/qiskit-aer/internal/logger"
)

var (
	chunkBits     int64
	numChunks     int64
	numBuffers    int64
	numCheckpoint int64
	workers       int64
	precision     string
	backend       string
	logLevel      string
	logFormat     string
)

func commonPoolFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "chunk-bits",
			Aliases:     []string{"b"},
			Usage:       "log2 of amplitudes per chunk",
			Value:       14,
			Destination: &chunkBits,
		},
		&cli.Int64Flag{
			Name:        "chunks",
			Aliases:     []string{"n"},
			Usage:       "number of statevector chunks",
			Value:       4,
			Destination: &numChunks,
		},
		&cli.Int64Flag{
			Name:        "buffers",
			Usage:       "number of scratch buffer slots",
			Value:       1,
			Destination: &numBuffers,
		},
		&cli.Int64Flag{
			Name:        "checkpoint",
			Usage:       "number of checkpoint slots",
			Value:       0,
			Destination: &numCheckpoint,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Aliases:     []string{"w"},
			Usage:       "worker count for forked regions (0 = GOMAXPROCS)",
			Value:       0,
			Destination: &workers,
		},
		&cli.StringFlag{
			Name:        "precision",
			Usage:       "amplitude precision (single, double)",
			Value:       "double",
			Destination: &precision,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "execution backend (auto, cpu, cuda)",
			Value:       "auto",
			Destination: &backend,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (text, json)",
			Value:       "text",
			Destination: &logFormat,
		},
	}
}

func newLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	if logFormat == "json" {
		return logger.JSON(os.Stderr, level)
	}
	return logger.Text(os.Stderr, level)
}

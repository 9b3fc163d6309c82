// Package statevec assembles chunk pools into a usable statevector: it
// seeds amplitudes, tracks total probability mass and exposes
// measurement sampling over individual chunks. It is the thin harness
// the CLI and inspection service drive; gate application is the
// simulator's business, not this package's.
package statevec

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/michaelstreif/qiskit-aer/internal/chunk"
	"github.com/michaelstreif/qiskit-aer/internal/logger"
)

const (
	PrecisionSingle = "single"
	PrecisionDouble = "double"
)

// Options configures a chunked statevector.
type Options struct {
	Precision     string
	ChunkBits     int
	NumChunks     int
	NumBuffers    int
	NumCheckpoint int
	Devices       []int
	DeviceChunks  int
	Workers       int
	Seed          int64
}

// Info describes a live statevector.
type Info struct {
	Precision     string
	ChunkBits     int
	NumChunks     int
	NumBuffers    int
	NumCheckpoint int
	Devices       int
	SizeElements  int
	Workers       int
}

// Vector is a precision-erased chunked statevector. Methods are safe
// for concurrent use; the serving layer calls them from many handlers.
type Vector interface {
	Info() Info
	// Norm returns the total probability mass of one chunk.
	Norm(chunk int) float64
	// Sample draws shots outcome indices from one chunk's distribution.
	// The live amplitudes are staged through a scratch buffer, so they
	// survive the sampling scan.
	Sample(chunk, shots int, seed int64) ([]int, error)
	// SwapOut and SwapIn move a chunk between host and device pools.
	SwapOut(chunk, device int) error
	SwapIn(chunk int) error
	Close()
}

// NewRandom builds a vector with uniformly random normalized amplitudes.
func NewRandom(log logger.Logger, opts Options) (Vector, error) {
	switch opts.Precision {
	case "", PrecisionDouble:
		return newRandom[complex128](log, opts, PrecisionDouble)
	case PrecisionSingle:
		return newRandom[complex64](log, opts, PrecisionSingle)
	default:
		return nil, fmt.Errorf("statevec: unknown precision %q (expected single or double)", opts.Precision)
	}
}

type vector[C chunk.Complex] struct {
	log       logger.Logger
	ex        chunk.Exec
	mgr       *chunk.Manager[C]
	precision string
	workers   int

	// The pool serializes nothing itself; one scratch buffer serves every
	// sampling call and swaps mutate residency, so all operations that
	// touch the manager go through mu.
	mu sync.Mutex
}

func newRandom[C chunk.Complex](log logger.Logger, opts Options, precision string) (*vector[C], error) {
	if log == nil {
		log = logger.Default()
	}
	if opts.NumChunks < 1 {
		return nil, fmt.Errorf("statevec: need at least one chunk, got %d", opts.NumChunks)
	}
	buffers := opts.NumBuffers
	if buffers < 1 {
		// Sampling stages through a scratch buffer.
		buffers = 1
	}

	ex := chunk.Fork(opts.Workers)
	v := &vector[C]{
		log:       log,
		ex:        ex,
		mgr:       chunk.NewManager[C](log),
		precision: precision,
		workers:   ex.Workers(),
	}
	err := v.mgr.Allocate(opts.ChunkBits, opts.NumChunks, buffers, opts.NumCheckpoint, opts.Devices, opts.DeviceChunks)
	if err != nil {
		return nil, err
	}
	v.fillRandom(opts.Seed)
	return v, nil
}

// fillRandom writes uniformly random amplitudes and rescales them so the
// whole vector carries unit probability mass.
func (v *vector[C]) fillRandom(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	host := v.mgr.Host()
	n := 1 << host.ChunkBits()

	var total float64
	for c := 0; c < host.NumChunks(); c++ {
		seg := host.ChunkSlice(c)
		for i := 0; i < n; i++ {
			re := rng.Float64()*2 - 1
			im := rng.Float64()*2 - 1
			seg[i] = fromFloat64[C](re, im)
			total += re*re + im*im
		}
	}
	if total == 0 {
		return
	}
	scale := 1 / math.Sqrt(total)
	for c := 0; c < host.NumChunks(); c++ {
		seg := host.ChunkSlice(c)
		v.ex.Run(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				seg[i] = scaleElem(seg[i], scale)
			}
		})
	}
}

func (v *vector[C]) Info() Info {
	host := v.mgr.Host()
	return Info{
		Precision:     v.precision,
		ChunkBits:     host.ChunkBits(),
		NumChunks:     host.NumChunks(),
		NumBuffers:    host.NumBuffers(),
		NumCheckpoint: host.NumCheckpoint(),
		Devices:       len(v.mgr.Devices()),
		SizeElements:  host.Size(),
		Workers:       v.workers,
	}
}

func (v *vector[C]) Norm(c int) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	sum := v.mgr.Host().Norm(v.ex, c, 1, true)
	return real(sum)
}

func (v *vector[C]) Sample(c, shots int, seed int64) ([]int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	host := v.mgr.Host()
	if c < 0 || c >= host.NumChunks() {
		return nil, fmt.Errorf("statevec: chunk %d out of range [0,%d)", c, host.NumChunks())
	}
	if err := v.mgr.SwapIn(v.ex, c); err != nil {
		return nil, err
	}

	scratch := v.mgr.BufferRef(0)
	if err := host.CopyIn(v.ex, v.mgr.Ref(c), scratch.Pos()); err != nil {
		return nil, err
	}

	total := real(host.Norm(v.ex, scratch.Pos(), 1, true))
	rng := rand.New(rand.NewSource(seed))
	rnds := make([]float64, shots)
	for i := range rnds {
		rnds[i] = rng.Float64() * total
	}
	return host.SampleMeasure(v.ex, scratch.Pos(), rnds, 1, true), nil
}

func (v *vector[C]) SwapOut(c, device int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mgr.SwapOut(v.ex, c, device)
}

func (v *vector[C]) SwapIn(c int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mgr.SwapIn(v.ex, c)
}

func (v *vector[C]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mgr.Deallocate()
}

func fromFloat64[C chunk.Complex](re, im float64) C {
	var zero C
	switch any(zero).(type) {
	case complex64:
		return any(complex(float32(re), float32(im))).(C)
	default:
		return any(complex(re, im)).(C)
	}
}

func scaleElem[C chunk.Complex](v C, s float64) C {
	switch x := any(v).(type) {
	case complex64:
		return any(x * complex(float32(s), 0)).(C)
	case complex128:
		return any(x * complex(s, 0)).(C)
	}
	return v
}

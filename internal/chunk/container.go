// Package chunk manages the storage of a simulated statevector that is
// partitioned into fixed-size chunks spread across host and accelerator
// memory pools.
//
// A chunk holds 1<<bits contiguous complex amplitudes and is the unit of
// allocation, transfer and reduction. A container owns the backing
// storage for many chunks plus scratch buffer and checkpoint slots; a
// Ref names one slot inside a container without owning anything.
package chunk

import (
	"errors"
	"fmt"

	"github.com/michaelstreif/qiskit-aer/internal/accel"
)

// Complex is the set of supported amplitude storage precisions.
type Complex interface {
	complex64 | complex128
}

// HostDevice is the device id of host-resident containers.
const HostDevice = accel.Host

var (
	ErrNotAllocated = errors.New("chunk: container not allocated")
	ErrAllocFailed  = errors.New("chunk: allocation failed")
)

// Container is the geometry contract shared by every concrete pool.
// Slot indices range over [0, Slots()); the element offset of a slot is
// slot << ChunkBits().
type Container[C Complex] interface {
	ChunkBits() int
	NumChunks() int
	NumBuffers() int
	NumCheckpoint() int
	// Slots is the total logical slot count, chunks + buffers + checkpoints.
	Slots() int
	// Size is the number of elements currently backed. It can exceed
	// Slots()<<ChunkBits(): backing storage only ever grows.
	Size() int
	// Device reports the device the storage lives on, HostDevice for host.
	Device() int

	// Allocate fixes the chunk geometry and sizes the backing storage.
	// Calling it on a live container is a full reallocation.
	Allocate(device, bits, chunks, buffers, checkpoint int) (int, error)
	// Resize grows the backing storage if the requested total exceeds the
	// current footprint, otherwise it only updates the logical counts.
	// Contents of slots below the new total are preserved. Returns the
	// new total slot count.
	Resize(chunks, buffers, checkpoint int) (int, error)
	// Deallocate releases all storage. The container must be Allocated
	// again before reuse.
	Deallocate()
}

// geometry carries the sizing shared by all container kinds.
type geometry struct {
	chunkBits     int
	numChunks     int
	numBuffers    int
	numCheckpoint int
	device        int
}

func (g *geometry) ChunkBits() int     { return g.chunkBits }
func (g *geometry) NumChunks() int     { return g.numChunks }
func (g *geometry) NumBuffers() int    { return g.numBuffers }
func (g *geometry) NumCheckpoint() int { return g.numCheckpoint }
func (g *geometry) Device() int        { return g.device }

func (g *geometry) Slots() int {
	return g.numChunks + g.numBuffers + g.numCheckpoint
}

func (g *geometry) chunkLen() int {
	return 1 << g.chunkBits
}

func (g *geometry) offset(slot int) int {
	return slot << g.chunkBits
}

func (g *geometry) set(bits, chunks, buffers, checkpoint int) {
	if bits < 0 || chunks < 0 || buffers < 0 || checkpoint < 0 {
		panic(fmt.Sprintf("chunk: invalid geometry bits=%d chunks=%d buffers=%d checkpoint=%d",
			bits, chunks, buffers, checkpoint))
	}
	g.chunkBits = bits
	g.numChunks = chunks
	g.numBuffers = buffers
	g.numCheckpoint = checkpoint
}

func (g *geometry) checkSlot(slot int) {
	if slot < 0 || slot >= g.Slots() {
		panic(fmt.Sprintf("chunk: slot %d out of range [0,%d)", slot, g.Slots()))
	}
}

// Ref names a logical chunk position: which container and which slot.
// It carries no storage; transfer operations inspect its device affinity
// to pick the local or cross-device path.
type Ref[C Complex] struct {
	cont Container[C]
	slot int
}

// NewRef builds a handle for slot in cont. The slot must be in range.
func NewRef[C Complex](cont Container[C], slot int) Ref[C] {
	if slot < 0 || slot >= cont.Slots() {
		panic(fmt.Sprintf("chunk: ref slot %d out of range [0,%d)", slot, cont.Slots()))
	}
	return Ref[C]{cont: cont, slot: slot}
}

// Container returns the owning pool.
func (r Ref[C]) Container() Container[C] { return r.cont }

// Pos returns the slot index within the owning pool.
func (r Ref[C]) Pos() int { return r.slot }

// Device returns the owning pool's device, HostDevice for host pools.
func (r Ref[C]) Device() int { return r.cont.Device() }

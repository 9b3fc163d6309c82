package chunk

import (
	"fmt"
	"unsafe"

	"github.com/cespare/xxhash/v2"

	"github.com/michaelstreif/qiskit-aer/internal/accel"
)

// Host is a chunk container whose backing storage lives in ordinary
// addressable memory. It implements the transfer, sampling and reduction
// operations of every simulation step; the accelerator-resident
// counterpart is Device.
type Host[C Complex] struct {
	geometry
	data    []C
	release func()

	// Borrowed per-slot references to caller-owned gate coefficient and
	// parameter buffers. Valid only for the call window the caller
	// guarantees; never copied or freed here.
	matrix [][]complex128
	params [][]uint64
}

// NewHost returns an empty host container. Allocate must be called
// before first use.
func NewHost[C Complex]() *Host[C] {
	return &Host[C]{geometry: geometry{device: HostDevice}}
}

// Allocate fixes the chunk geometry and backs chunks+buffers+checkpoint
// slots with zeroed storage. The device argument is accepted for
// interface symmetry and ignored: host storage has no device affinity.
func (h *Host[C]) Allocate(device, bits, chunks, buffers, checkpoint int) (int, error) {
	h.set(bits, chunks, buffers, checkpoint)

	data, release, err := allocStorage[C](h.Slots() << bits)
	if err != nil {
		h.Deallocate()
		return 0, err
	}
	if h.release != nil {
		h.release()
	}
	h.data = data
	h.release = release
	h.matrix = make([][]complex128, chunks+buffers)
	h.params = make([][]uint64, chunks+buffers)
	return chunks, nil
}

// Resize grows the backing storage only when the requested slot count
// exceeds the allocated footprint; contents of retained slots are
// preserved. Shrinking requests merely update the logical counts.
func (h *Host[C]) Resize(chunks, buffers, checkpoint int) (int, error) {
	if h.data == nil {
		return 0, ErrNotAllocated
	}
	newTotal := chunks + buffers + checkpoint
	if newTotal<<h.chunkBits > len(h.data) {
		data, release, err := allocStorage[C](newTotal << h.chunkBits)
		if err != nil {
			return 0, err
		}
		copy(data, h.data)
		if h.release != nil {
			h.release()
		}
		h.data = data
		h.release = release
	}
	if chunks+buffers > len(h.matrix) {
		matrix := make([][]complex128, chunks+buffers)
		params := make([][]uint64, chunks+buffers)
		copy(matrix, h.matrix)
		copy(params, h.params)
		h.matrix = matrix
		h.params = params
	}
	h.set(h.chunkBits, chunks, buffers, checkpoint)
	return newTotal, nil
}

// Deallocate releases all storage. The container must be Allocated again
// before reuse.
func (h *Host[C]) Deallocate() {
	if h.release != nil {
		h.release()
	}
	h.data = nil
	h.release = nil
	h.matrix = nil
	h.params = nil
	h.set(h.chunkBits, 0, 0, 0)
}

// Size returns the number of elements currently backed.
func (h *Host[C]) Size() int { return len(h.data) }

// Get reads the element at flat index i.
func (h *Host[C]) Get(i int) C { return h.data[i] }

// Set writes the element at flat index i.
func (h *Host[C]) Set(i int, v C) { h.data[i] = v }

// ChunkSlice returns the 1<<ChunkBits elements backing a slot. The slice
// aliases the container's storage and is invalidated by Allocate, Resize
// and Deallocate.
func (h *Host[C]) ChunkSlice(slot int) []C {
	h.checkSlot(slot)
	off := h.offset(slot)
	return h.data[off : off+h.chunkLen() : off+h.chunkLen()]
}

// StoreMatrix records a borrowed reference to a caller-owned gate
// coefficient buffer for a chunk slot, replacing any prior reference.
// The caller keeps mat alive for as long as kernels may read it.
func (h *Host[C]) StoreMatrix(mat []complex128, slot int) {
	h.matrix[slot] = mat
}

// StoreUintParams records a borrowed reference to a caller-owned
// parameter buffer for a chunk slot, replacing any prior reference.
func (h *Host[C]) StoreUintParams(prm []uint64, slot int) {
	h.params[slot] = prm
}

// Matrix returns the coefficient buffer recorded for a slot.
func (h *Host[C]) Matrix(slot int) []complex128 { return h.matrix[slot] }

// UintParams returns the parameter buffer recorded for a slot.
func (h *Host[C]) UintParams(slot int) []uint64 { return h.params[slot] }

// PeerAccess reports whether host storage can be a direct transfer
// endpoint for the given device without staging. True only on unified
// host/accelerator memory architectures.
func (h *Host[C]) PeerAccess(device int) bool {
	return accel.Unified()
}

// Digest returns a content fingerprint of a slot, used to detect
// corruption across transfers and checkpoint restores.
func (h *Host[C]) Digest(slot int) uint64 {
	seg := h.ChunkSlice(slot)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&seg[0])), len(seg)*int(unsafe.Sizeof(seg[0])))
	return xxhash.Sum64(b)
}

// CopyIn transfers one chunk from src into this container's slot.
// Host-to-host copies follow the execution context's partitioning;
// device sources go through the accelerator's bulk transfer with the
// source device made current for the duration.
func (h *Host[C]) CopyIn(ex Exec, src Ref[C], slot int) error {
	h.checkSlot(slot)
	n := h.chunkLen()
	dst := h.data[h.offset(slot) : h.offset(slot)+n]

	switch sc := src.Container().(type) {
	case *Host[C]:
		h.checkPeerBits(sc.chunkBits)
		s := sc.data[sc.offset(src.Pos()) : sc.offset(src.Pos())+n]
		ex.Run(n, func(lo, hi int) {
			copy(dst[lo:hi], s[lo:hi])
		})
		return nil
	case *Device[C]:
		h.checkPeerBits(sc.chunkBits)
		if err := sc.ReadChunk(dst, src.Pos()); err != nil {
			return fmt.Errorf("chunk: copy in from device %d: %w", sc.Device(), err)
		}
		return nil
	default:
		return fmt.Errorf("chunk: copy in from unsupported container %T", src.Container())
	}
}

// CopyOut transfers this container's slot into the chunk named by dst.
func (h *Host[C]) CopyOut(ex Exec, dst Ref[C], slot int) error {
	h.checkSlot(slot)
	n := h.chunkLen()
	src := h.data[h.offset(slot) : h.offset(slot)+n]

	switch dc := dst.Container().(type) {
	case *Host[C]:
		h.checkPeerBits(dc.chunkBits)
		d := dc.data[dc.offset(dst.Pos()) : dc.offset(dst.Pos())+n]
		ex.Run(n, func(lo, hi int) {
			copy(d[lo:hi], src[lo:hi])
		})
		return nil
	case *Device[C]:
		h.checkPeerBits(dc.chunkBits)
		if err := dc.WriteChunk(src, dst.Pos()); err != nil {
			return fmt.Errorf("chunk: copy out to device %d: %w", dc.Device(), err)
		}
		return nil
	default:
		return fmt.Errorf("chunk: copy out to unsupported container %T", dst.Container())
	}
}

// CopyInSlice writes a full chunk of elements into a slot. The source
// length must be exactly one chunk.
func (h *Host[C]) CopyInSlice(src []C, slot int) {
	h.checkSlot(slot)
	if len(src) != h.chunkLen() {
		panic(fmt.Sprintf("chunk: copy in of %d elements into %d-element chunk", len(src), h.chunkLen()))
	}
	copy(h.data[h.offset(slot):], src)
}

// CopyOutSlice reads a full chunk of elements from a slot. The
// destination length must be exactly one chunk.
func (h *Host[C]) CopyOutSlice(dst []C, slot int) {
	h.checkSlot(slot)
	if len(dst) != h.chunkLen() {
		panic(fmt.Sprintf("chunk: copy out of %d-element chunk into %d elements", h.chunkLen(), len(dst)))
	}
	copy(dst, h.data[h.offset(slot):h.offset(slot)+h.chunkLen()])
}

// Swap exchanges the contents of this container's slot with the chunk
// named by other. Host-to-host swaps exchange in place over partitioned
// ranges; swaps against a device chunk stage the local contents through
// a scratch buffer so both ends finish with what the other started with.
func (h *Host[C]) Swap(ex Exec, other Ref[C], slot int) error {
	h.checkSlot(slot)
	n := h.chunkLen()
	local := h.data[h.offset(slot) : h.offset(slot)+n]

	switch oc := other.Container().(type) {
	case *Host[C]:
		h.checkPeerBits(oc.chunkBits)
		remote := oc.data[oc.offset(other.Pos()) : oc.offset(other.Pos())+n]
		ex.Run(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				local[i], remote[i] = remote[i], local[i]
			}
		})
		return nil
	case *Device[C]:
		h.checkPeerBits(oc.chunkBits)
		tmp := make([]C, n)
		ex.Run(n, func(lo, hi int) {
			copy(tmp[lo:hi], local[lo:hi])
		})
		if err := oc.ReadChunk(local, other.Pos()); err != nil {
			return fmt.Errorf("chunk: swap read from device %d: %w", oc.Device(), err)
		}
		if err := oc.WriteChunk(tmp, other.Pos()); err != nil {
			return fmt.Errorf("chunk: swap write to device %d: %w", oc.Device(), err)
		}
		return nil
	default:
		return fmt.Errorf("chunk: swap with unsupported container %T", other.Container())
	}
}

// Zero clears count elements starting at the slot's base offset.
// Elements past count within the chunk are untouched.
func (h *Host[C]) Zero(ex Exec, slot, count int) {
	h.checkSlot(slot)
	off := h.offset(slot)
	if count < 0 || off+count > len(h.data) {
		panic(fmt.Sprintf("chunk: zero of %d elements at slot %d exceeds storage", count, slot))
	}
	seg := h.data[off : off+count]
	ex.Run(count, func(lo, hi int) {
		clear(seg[lo:hi])
	})
}

// SampleMeasure draws one outcome index per random value by CDF
// inversion over the chunk at slot, visiting every stride-th element.
// With dot set, each element contributes |amplitude|^2; otherwise its
// raw value. The cumulative sum is built in place in the storage
// precision, destroying the chunk's contents; ties at an exact boundary
// select the earliest index. Random values are pre-scaled by the caller
// to the chunk's total mass. An empty rnds yields an empty result.
func (h *Host[C]) SampleMeasure(ex Exec, slot int, rnds []float64, stride int, dot bool) []int {
	h.checkSlot(slot)
	if stride < 1 {
		panic(fmt.Sprintf("chunk: sample stride %d", stride))
	}
	seg := h.ChunkSlice(slot)
	n := (len(seg) + stride - 1) / stride

	scanChunk(ex, seg, stride, n, dot)

	samples := make([]int, len(rnds))
	ex.Run(len(rnds), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			samples[i] = lowerBound(seg, stride, n, rnds[i])
		}
	})
	return samples
}

// Norm sums |amplitude|^2 (or the raw complex values with dot unset)
// over every stride-th element of the chunk at slot. The accumulator is
// always complex128 regardless of storage precision.
func (h *Host[C]) Norm(ex Exec, slot, stride int, dot bool) complex128 {
	h.checkSlot(slot)
	if stride < 1 {
		panic(fmt.Sprintf("chunk: norm stride %d", stride))
	}
	seg := h.ChunkSlice(slot)
	n := (len(seg) + stride - 1) / stride
	return reduceChunk(ex, seg, stride, n, dot)
}

// checkPeerBits rejects transfers between containers of different chunk
// geometry instead of truncating silently.
func (h *Host[C]) checkPeerBits(bits int) {
	if bits != h.chunkBits {
		panic(fmt.Sprintf("chunk: geometry mismatch, %d vs %d chunk bits", bits, h.chunkBits))
	}
}

package chunk

import (
	"fmt"
	"unsafe"

	"github.com/michaelstreif/qiskit-aer/internal/accel"
)

// Device is a chunk container whose backing storage is
// accelerator-resident. The host pool interoperates with it through a
// narrow surface: the shared geometry contract plus bulk chunk reads and
// writes that make the owning device current for the duration of the
// transfer.
type Device[C Complex] struct {
	geometry
	buf *accel.Buffer
}

// NewDevice returns an empty device container. Allocate must be called
// before first use; until then the container is bound to no device and
// Device() reports the HostDevice sentinel.
func NewDevice[C Complex]() *Device[C] {
	return &Device[C]{geometry: geometry{device: HostDevice}}
}

func elemSize[C Complex]() int {
	var zero C
	return int(unsafe.Sizeof(zero))
}

// Allocate fixes the chunk geometry and reserves device storage for
// chunks+buffers+checkpoint slots on the given device.
func (d *Device[C]) Allocate(device, bits, chunks, buffers, checkpoint int) (int, error) {
	d.set(bits, chunks, buffers, checkpoint)

	buf, err := accel.Alloc(device, (d.Slots()<<bits)*elemSize[C]())
	if err != nil {
		return 0, fmt.Errorf("%w: device %d: %v", ErrAllocFailed, device, err)
	}
	if d.buf != nil {
		_ = d.buf.Free()
	}
	d.buf = buf
	d.device = device
	return chunks, nil
}

// Resize grows the device storage only when the requested slot count
// exceeds the allocated footprint, staging retained contents through
// host memory. Shrinking requests merely update the logical counts.
func (d *Device[C]) Resize(chunks, buffers, checkpoint int) (int, error) {
	if d.buf == nil {
		return 0, ErrNotAllocated
	}
	newTotal := chunks + buffers + checkpoint
	if newSize := (newTotal << d.chunkBits) * elemSize[C](); newSize > d.buf.Size() {
		stage := make([]byte, d.buf.Size())
		err := accel.WithDevice(d.device, func() error {
			return accel.CopyOut(stage, d.buf, 0)
		})
		if err != nil {
			return 0, fmt.Errorf("chunk: resize stage out: %w", err)
		}
		buf, err := accel.Alloc(d.device, newSize)
		if err != nil {
			return 0, fmt.Errorf("%w: device %d: %v", ErrAllocFailed, d.device, err)
		}
		err = accel.WithDevice(d.device, func() error {
			return accel.CopyIn(buf, 0, stage)
		})
		if err != nil {
			_ = buf.Free()
			return 0, fmt.Errorf("chunk: resize stage in: %w", err)
		}
		_ = d.buf.Free()
		d.buf = buf
	}
	d.set(d.chunkBits, chunks, buffers, checkpoint)
	return newTotal, nil
}

// Deallocate releases the device storage. The container must be
// Allocated again before reuse.
func (d *Device[C]) Deallocate() {
	if d.buf != nil {
		_ = d.buf.Free()
		d.buf = nil
	}
	d.set(d.chunkBits, 0, 0, 0)
}

// Size returns the number of elements currently backed on the device.
func (d *Device[C]) Size() int {
	if d.buf == nil {
		return 0
	}
	return d.buf.Size() / elemSize[C]()
}

// ReadChunk transfers the chunk at slot from device memory into dst,
// which must hold exactly one chunk. The owning device is made current
// around the transfer.
func (d *Device[C]) ReadChunk(dst []C, slot int) error {
	d.checkSlot(slot)
	if len(dst) != d.chunkLen() {
		panic(fmt.Sprintf("chunk: device read of %d-element chunk into %d elements", d.chunkLen(), len(dst)))
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&dst[0])), len(dst)*elemSize[C]())
	return accel.WithDevice(d.device, func() error {
		return accel.CopyOut(b, d.buf, d.offset(slot)*elemSize[C]())
	})
}

// WriteChunk transfers src, which must hold exactly one chunk, into
// device memory at slot. The owning device is made current around the
// transfer.
func (d *Device[C]) WriteChunk(src []C, slot int) error {
	d.checkSlot(slot)
	if len(src) != d.chunkLen() {
		panic(fmt.Sprintf("chunk: device write of %d elements into %d-element chunk", len(src), d.chunkLen()))
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&src[0])), len(src)*elemSize[C]())
	return accel.WithDevice(d.device, func() error {
		return accel.CopyIn(d.buf, d.offset(slot)*elemSize[C](), b)
	})
}

//go:build !cuda

package accel

import (
	"fmt"
	"sync"
)

// The plain build simulates a small fixed set of devices in host memory
// so swap and copy against accelerator-resident pools stay exercised
// without CUDA hardware.
const mockDeviceCount = 2

var (
	mu      sync.Mutex
	current int
)

// DeviceCount reports how many devices are usable.
func DeviceCount() (int, error) {
	return mockDeviceCount, nil
}

// Unified reports whether host and device share one memory space. The
// simulated devices keep separate buffers to mirror discrete hardware.
func Unified() bool { return false }

// Current returns the device made current by the innermost WithDevice.
func Current() int {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// WithDevice makes id the current device for the duration of fn and
// restores the previous device afterwards, even when fn fails.
func WithDevice(id int, fn func() error) error {
	if err := checkDevice(id); err != nil {
		return err
	}
	mu.Lock()
	prev := current
	current = id
	mu.Unlock()

	err := fn()

	mu.Lock()
	current = prev
	mu.Unlock()
	return err
}

// Buffer is a device-resident allocation addressed by byte offset.
type Buffer struct {
	device int
	data   []byte
}

// Alloc reserves size bytes on the given device.
func Alloc(device, size int) (*Buffer, error) {
	if err := checkDevice(device); err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("accel: alloc %d bytes", size)
	}
	return &Buffer{device: device, data: make([]byte, size)}, nil
}

// Device returns the device the buffer lives on.
func (b *Buffer) Device() int { return b.device }

// Size returns the buffer's byte size.
func (b *Buffer) Size() int { return len(b.data) }

// Free releases the allocation. The buffer must not be used afterwards.
func (b *Buffer) Free() error {
	if b.data == nil {
		return ErrFreed
	}
	b.data = nil
	return nil
}

// CopyIn transfers host bytes into the buffer at off.
func CopyIn(b *Buffer, off int, src []byte) error {
	if b.data == nil {
		return ErrFreed
	}
	if off < 0 || off+len(src) > len(b.data) {
		return fmt.Errorf("%w: write [%d,%d) of %d", ErrOutOfRange, off, off+len(src), len(b.data))
	}
	copy(b.data[off:], src)
	return nil
}

// CopyOut transfers bytes from the buffer at off into host memory.
func CopyOut(dst []byte, b *Buffer, off int) error {
	if b.data == nil {
		return ErrFreed
	}
	if off < 0 || off+len(dst) > len(b.data) {
		return fmt.Errorf("%w: read [%d,%d) of %d", ErrOutOfRange, off, off+len(dst), len(b.data))
	}
	copy(dst, b.data[off:])
	return nil
}

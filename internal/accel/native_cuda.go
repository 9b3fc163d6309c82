//go:build cuda

package accel

/*
#cgo LDFLAGS: -lcudart

// Minimal CUDA runtime forward declarations to avoid requiring headers at
// compile time. The linker still needs libcudart when building with the
// cuda tag.
typedef int cudaError_t;

extern const char* cudaGetErrorString(cudaError_t err);
extern cudaError_t cudaGetDeviceCount(int* count);
extern cudaError_t cudaGetDevice(int* device);
extern cudaError_t cudaSetDevice(int device);
extern cudaError_t cudaMalloc(void** ptr, unsigned long long size);
extern cudaError_t cudaFree(void* ptr);
extern cudaError_t cudaMemcpy(void* dst, const void* src, unsigned long long size, int kind);

#define AER_CUDA_MEMCPY_HOST_TO_DEVICE 1
#define AER_CUDA_MEMCPY_DEVICE_TO_HOST 2

static int aerCudaGetDeviceCount(int* out) {
	return (int)cudaGetDeviceCount(out);
}

static int aerCudaGetDevice(int* out) {
	return (int)cudaGetDevice(out);
}

static int aerCudaSetDevice(int device) {
	return (int)cudaSetDevice(device);
}

static int aerCudaMalloc(void** ptr, unsigned long long size) {
	return (int)cudaMalloc(ptr, size);
}

static int aerCudaFree(void* ptr) {
	return (int)cudaFree(ptr);
}

static int aerCudaMemcpyToDevice(void* dst, const void* src, unsigned long long size) {
	return (int)cudaMemcpy(dst, src, size, AER_CUDA_MEMCPY_HOST_TO_DEVICE);
}

static int aerCudaMemcpyFromDevice(void* dst, const void* src, unsigned long long size) {
	return (int)cudaMemcpy(dst, src, size, AER_CUDA_MEMCPY_DEVICE_TO_HOST);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

func cudaErr(op string, code C.int) error {
	if code == 0 {
		return nil
	}
	return fmt.Errorf("accel: %s: %s", op, C.GoString(C.cudaGetErrorString(C.cudaError_t(code))))
}

// DeviceCount reports how many CUDA devices are usable.
func DeviceCount() (int, error) {
	var count C.int
	if err := cudaErr("cudaGetDeviceCount", C.aerCudaGetDeviceCount(&count)); err != nil {
		return 0, err
	}
	return int(count), nil
}

// Unified reports whether host and device share one memory space.
// Discrete CUDA parts do not; unified architectures are not detected.
func Unified() bool { return false }

// Current returns the calling thread's current CUDA device.
func Current() int {
	var device C.int
	if err := cudaErr("cudaGetDevice", C.aerCudaGetDevice(&device)); err != nil {
		return Host
	}
	return int(device)
}

// WithDevice makes id the current device for the duration of fn and
// restores the previous device afterwards, even when fn fails.
func WithDevice(id int, fn func() error) error {
	if err := checkDevice(id); err != nil {
		return err
	}
	var prev C.int
	if err := cudaErr("cudaGetDevice", C.aerCudaGetDevice(&prev)); err != nil {
		return err
	}
	if err := cudaErr("cudaSetDevice", C.aerCudaSetDevice(C.int(id))); err != nil {
		return err
	}
	err := fn()
	if restoreErr := cudaErr("cudaSetDevice", C.aerCudaSetDevice(prev)); restoreErr != nil && err == nil {
		err = restoreErr
	}
	return err
}

// Buffer is a device-resident allocation addressed by byte offset.
type Buffer struct {
	device int
	ptr    unsafe.Pointer
	size   int
}

// Alloc reserves size bytes on the given device.
func Alloc(device, size int) (*Buffer, error) {
	if err := checkDevice(device); err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("accel: alloc %d bytes", size)
	}
	b := &Buffer{device: device, size: size}
	err := WithDevice(device, func() error {
		return cudaErr("cudaMalloc", C.aerCudaMalloc(&b.ptr, C.ulonglong(size)))
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Device returns the device the buffer lives on.
func (b *Buffer) Device() int { return b.device }

// Size returns the buffer's byte size.
func (b *Buffer) Size() int { return b.size }

// Free releases the allocation. The buffer must not be used afterwards.
func (b *Buffer) Free() error {
	if b.ptr == nil {
		return ErrFreed
	}
	err := WithDevice(b.device, func() error {
		return cudaErr("cudaFree", C.aerCudaFree(b.ptr))
	})
	b.ptr = nil
	return err
}

// CopyIn transfers host bytes into the buffer at off.
func CopyIn(b *Buffer, off int, src []byte) error {
	if b.ptr == nil {
		return ErrFreed
	}
	if off < 0 || off+len(src) > b.size {
		return fmt.Errorf("%w: write [%d,%d) of %d", ErrOutOfRange, off, off+len(src), b.size)
	}
	if len(src) == 0 {
		return nil
	}
	dst := unsafe.Add(b.ptr, off)
	return cudaErr("cudaMemcpy", C.aerCudaMemcpyToDevice(dst, unsafe.Pointer(&src[0]), C.ulonglong(len(src))))
}

// CopyOut transfers bytes from the buffer at off into host memory.
func CopyOut(dst []byte, b *Buffer, off int) error {
	if b.ptr == nil {
		return ErrFreed
	}
	if off < 0 || off+len(dst) > b.size {
		return fmt.Errorf("%w: read [%d,%d) of %d", ErrOutOfRange, off, off+len(dst), b.size)
	}
	if len(dst) == 0 {
		return nil
	}
	src := unsafe.Add(b.ptr, off)
	return cudaErr("cudaMemcpy", C.aerCudaMemcpyFromDevice(unsafe.Pointer(&dst[0]), src, C.ulonglong(len(dst))))
}

//go:build linux

package chunk

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmapThreshold is the backing-buffer byte size above which storage comes
// from an anonymous mapping instead of the Go heap, keeping very large
// statevectors out of GC-scanned memory.
const mmapThreshold = 1 << 20

// allocStorage returns a zeroed element buffer and a release function for
// any OS-level mapping behind it (nil when the buffer is heap-backed).
func allocStorage[C Complex](elems int) ([]C, func(), error) {
	var zero C
	size := elems * int(unsafe.Sizeof(zero))
	if size < mmapThreshold {
		return make([]C, elems), nil, nil
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: mmap %d bytes: %v", ErrAllocFailed, size, err)
	}
	data := unsafe.Slice((*C)(unsafe.Pointer(&b[0])), elems)
	release := func() { _ = unix.Munmap(b) }
	return data, release, nil
}

// Package accel abstracts accelerator device memory for the chunk
// layer: enumeration, a scoped current-device discipline and bulk
// host/device transfers. The default build simulates devices in host
// memory so the cross-device paths run everywhere; the cuda build binds
// the CUDA runtime.
package accel

import (
	"errors"
	"fmt"
	"strings"
)

// Host is the device id used for host-resident storage.
const Host = -1

const (
	CPU  = "cpu"
	CUDA = "cuda"
	Auto = "auto"
)

var (
	ErrNoDevice   = errors.New("accel: device not available")
	ErrOutOfRange = errors.New("accel: transfer out of range")
	ErrFreed      = errors.New("accel: buffer already freed")
)

// Normalize canonicalizes a backend selection string.
func Normalize(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	if backend == "" {
		return Auto, nil
	}
	switch backend {
	case CPU, CUDA, Auto:
		return backend, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected auto, cpu, or cuda)", backend)
	}
}

func checkDevice(id int) error {
	count, err := DeviceCount()
	if err != nil {
		return err
	}
	if id < 0 || id >= count {
		return fmt.Errorf("%w: device %d of %d", ErrNoDevice, id, count)
	}
	return nil
}

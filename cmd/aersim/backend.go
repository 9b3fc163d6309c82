package main

import (
	"fmt"

	"github.com/michaelstreif/qiskit-aer/internal/accel"
	"github.com/michaelstreif/qiskit-aer/internal/logger"
)

// resolveDevices translates the backend flag into the accelerator
// devices to allocate pools on. cpu disables device pools; cuda requires
// at least one usable device; auto takes whatever is available.
func resolveDevices(log logger.Logger) ([]int, error) {
	b, err := accel.Normalize(backend)
	if err != nil {
		return nil, err
	}
	if b == accel.CPU {
		return nil, nil
	}
	count, err := accel.DeviceCount()
	if err != nil || count == 0 {
		if b == accel.CUDA {
			return nil, fmt.Errorf("no accelerator devices available: %v", err)
		}
		log.Debug("no accelerator devices, falling back to host only")
		return nil, nil
	}
	devs := make([]int, count)
	for i := range devs {
		devs[i] = i
	}
	return devs, nil
}

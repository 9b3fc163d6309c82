package chunk

import (
	"errors"
	"fmt"
	"sort"

	"github.com/michaelstreif/qiskit-aer/internal/logger"
)

var (
	ErrNoFreeDeviceSlot = errors.New("chunk: no free slot on device")
	ErrNotHostResident  = errors.New("chunk: chunk is not host resident")
	ErrNoCheckpoint     = errors.New("chunk: no checkpoint slot for chunk")
	ErrCorrupt          = errors.New("chunk: checkpoint digest mismatch")
)

// place records where a logical chunk's newest data lives.
type place struct {
	dev  int // HostDevice when on the host pool
	slot int // slot within the owning pool
}

// Manager places logical chunks across one host pool and zero or more
// accelerator pools, moving them with the pools' transfer operations.
// Host slot i is chunk i's home; swapping a chunk out parks its newest
// data in a device slot until it is swapped back in.
type Manager[C Complex] struct {
	log  logger.Logger
	host *Host[C]
	devs map[int]*Device[C]
	free map[int][]int

	residence []place
	ckDigest  map[int]uint64
}

// NewManager returns an empty manager. Allocate must be called before
// first use.
func NewManager[C Complex](log logger.Logger) *Manager[C] {
	if log == nil {
		log = logger.Default()
	}
	return &Manager[C]{
		log:  log.With("component", "chunk-manager"),
		host: NewHost[C](),
	}
}

// Host returns the manager's host pool.
func (m *Manager[C]) Host() *Host[C] { return m.host }

// NumChunks returns the logical chunk count.
func (m *Manager[C]) NumChunks() int { return len(m.residence) }

// Devices lists the accelerator devices with allocated pools.
func (m *Manager[C]) Devices() []int {
	devs := make([]int, 0, len(m.devs))
	for dev := range m.devs {
		devs = append(devs, dev)
	}
	sort.Ints(devs)
	return devs
}

// Allocate sizes the host pool for chunks+buffers+checkpoint slots and
// reserves devChunks chunk slots on each listed device. All chunks start
// host resident.
func (m *Manager[C]) Allocate(bits, chunks, buffers, checkpoint int, devices []int, devChunks int) error {
	if _, err := m.host.Allocate(HostDevice, bits, chunks, buffers, checkpoint); err != nil {
		return err
	}
	m.devs = make(map[int]*Device[C], len(devices))
	m.free = make(map[int][]int, len(devices))
	for _, dev := range devices {
		d := NewDevice[C]()
		if _, err := d.Allocate(dev, bits, devChunks, 0, 0); err != nil {
			m.Deallocate()
			return fmt.Errorf("chunk: allocate device pool %d: %w", dev, err)
		}
		m.devs[dev] = d
		slots := make([]int, devChunks)
		for i := range slots {
			slots[i] = i
		}
		m.free[dev] = slots
	}
	m.residence = make([]place, chunks)
	for i := range m.residence {
		m.residence[i] = place{dev: HostDevice, slot: i}
	}
	m.ckDigest = make(map[int]uint64)
	m.log.Debug("allocated", "bits", bits, "chunks", chunks, "buffers", buffers,
		"checkpoint", checkpoint, "devices", len(devices))
	return nil
}

// Deallocate releases the host and device pools.
func (m *Manager[C]) Deallocate() {
	m.host.Deallocate()
	for _, d := range m.devs {
		d.Deallocate()
	}
	m.devs = nil
	m.free = nil
	m.residence = nil
	m.ckDigest = nil
}

// Ref returns a handle to the pool slot currently holding chunk i.
func (m *Manager[C]) Ref(i int) Ref[C] {
	p := m.residence[i]
	if p.dev == HostDevice {
		return NewRef[C](m.host, p.slot)
	}
	return NewRef[C](m.devs[p.dev], p.slot)
}

// BufferRef returns a handle to host scratch buffer j.
func (m *Manager[C]) BufferRef(j int) Ref[C] {
	if j < 0 || j >= m.host.NumBuffers() {
		panic(fmt.Sprintf("chunk: buffer %d out of range [0,%d)", j, m.host.NumBuffers()))
	}
	return NewRef[C](m.host, m.host.NumChunks()+j)
}

// SwapOut moves chunk i from its host home into a free slot on dev.
func (m *Manager[C]) SwapOut(ex Exec, i, dev int) error {
	p := m.residence[i]
	if p.dev != HostDevice {
		return fmt.Errorf("%w: chunk %d is on device %d", ErrNotHostResident, i, p.dev)
	}
	d, ok := m.devs[dev]
	if !ok {
		return fmt.Errorf("chunk: no pool on device %d", dev)
	}
	slots := m.free[dev]
	if len(slots) == 0 {
		return fmt.Errorf("%w %d", ErrNoFreeDeviceSlot, dev)
	}
	slot := slots[len(slots)-1]
	if err := m.host.CopyOut(ex, NewRef[C](d, slot), p.slot); err != nil {
		return err
	}
	m.free[dev] = slots[:len(slots)-1]
	m.residence[i] = place{dev: dev, slot: slot}
	m.log.Debug("swapped out", "chunk", i, "device", dev, "slot", slot)
	return nil
}

// SwapIn moves chunk i back into its host home slot and frees its
// device slot.
func (m *Manager[C]) SwapIn(ex Exec, i int) error {
	p := m.residence[i]
	if p.dev == HostDevice {
		return nil
	}
	d := m.devs[p.dev]
	if err := m.host.CopyIn(ex, NewRef[C](d, p.slot), i); err != nil {
		return err
	}
	m.free[p.dev] = append(m.free[p.dev], p.slot)
	m.residence[i] = place{dev: HostDevice, slot: i}
	m.log.Debug("swapped in", "chunk", i, "device", p.dev)
	return nil
}

// Checkpoint saves chunk i into its checkpoint slot and records a
// content digest for restore-time verification. The chunk must be host
// resident and i must be below the pool's checkpoint slot count.
func (m *Manager[C]) Checkpoint(ex Exec, i int) error {
	p := m.residence[i]
	if p.dev != HostDevice {
		return fmt.Errorf("%w: chunk %d is on device %d", ErrNotHostResident, i, p.dev)
	}
	slot, err := m.checkpointSlot(i)
	if err != nil {
		return err
	}
	if err := m.host.CopyOut(ex, NewRef[C](m.host, slot), p.slot); err != nil {
		return err
	}
	m.ckDigest[i] = m.host.Digest(slot)
	return nil
}

// Restore copies chunk i's checkpoint back into its home slot after
// verifying the checkpoint's content digest. A digest mismatch means
// the saved data was overwritten or corrupted and fails loudly.
func (m *Manager[C]) Restore(ex Exec, i int) error {
	p := m.residence[i]
	if p.dev != HostDevice {
		return fmt.Errorf("%w: chunk %d is on device %d", ErrNotHostResident, i, p.dev)
	}
	slot, err := m.checkpointSlot(i)
	if err != nil {
		return err
	}
	want, ok := m.ckDigest[i]
	if !ok {
		return fmt.Errorf("%w: chunk %d was never checkpointed", ErrNoCheckpoint, i)
	}
	if got := m.host.Digest(slot); got != want {
		return fmt.Errorf("%w: chunk %d: %016x != %016x", ErrCorrupt, i, got, want)
	}
	return m.host.CopyIn(ex, NewRef[C](m.host, slot), p.slot)
}

func (m *Manager[C]) checkpointSlot(i int) (int, error) {
	if i < 0 || i >= m.host.NumCheckpoint() {
		return 0, fmt.Errorf("%w: chunk %d, %d checkpoint slots", ErrNoCheckpoint, i, m.host.NumCheckpoint())
	}
	return m.host.NumChunks() + m.host.NumBuffers() + i, nil
}

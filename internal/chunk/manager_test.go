package chunk

import (
	"errors"
	"testing"
)

func newTestManager(t *testing.T, devices []int, devChunks int) *Manager[complex128] {
	t.Helper()
	m := NewManager[complex128](nil)
	if err := m.Allocate(4, 3, 1, 2, devices, devChunks); err != nil {
		t.Fatalf("allocate manager: %v", err)
	}
	t.Cleanup(m.Deallocate)
	return m
}

func TestManagerAllocateHostResident(t *testing.T) {
	m := newTestManager(t, []int{0, 1}, 2)
	if got := m.NumChunks(); got != 3 {
		t.Fatalf("NumChunks() = %d, want 3", got)
	}
	if got := m.Devices(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("Devices() = %v, want [0 1]", got)
	}
	for i := 0; i < 3; i++ {
		r := m.Ref(i)
		if r.Device() != HostDevice {
			t.Errorf("chunk %d starts on device %d, want host", i, r.Device())
		}
		if r.Pos() != i {
			t.Errorf("chunk %d home slot = %d", i, r.Pos())
		}
	}
}

func TestManagerSwapOutAndIn(t *testing.T) {
	ex := Serial()
	m := newTestManager(t, []int{0}, 1)
	fillSlot(t, m.Host(), 1, 50)
	orig := make([]complex128, 1<<4)
	m.Host().CopyOutSlice(orig, 1)

	if err := m.SwapOut(ex, 1, 0); err != nil {
		t.Fatalf("swap out: %v", err)
	}
	if r := m.Ref(1); r.Device() != 0 {
		t.Fatalf("chunk 1 on device %d after swap out, want 0", r.Device())
	}

	// Pool is one slot wide, so a second swap out must fail.
	if err := m.SwapOut(ex, 2, 0); !errors.Is(err, ErrNoFreeDeviceSlot) {
		t.Fatalf("swap out with full pool: err = %v, want ErrNoFreeDeviceSlot", err)
	}

	// Overwrite the host home slot, then bring the chunk back.
	m.Host().Zero(ex, 1, 1<<4)
	if err := m.SwapIn(ex, 1); err != nil {
		t.Fatalf("swap in: %v", err)
	}
	if r := m.Ref(1); r.Device() != HostDevice || r.Pos() != 1 {
		t.Fatalf("chunk 1 at device %d slot %d after swap in, want host slot 1", r.Device(), r.Pos())
	}
	got := m.Host().ChunkSlice(1)
	for i := range orig {
		if got[i] != orig[i] {
			t.Fatalf("element %d = %v after round trip, want %v", i, got[i], orig[i])
		}
	}

	// Freed device slot is reusable.
	if err := m.SwapOut(ex, 2, 0); err != nil {
		t.Fatalf("swap out after slot freed: %v", err)
	}
}

func TestManagerSwapInHostResidentIsNoop(t *testing.T) {
	m := newTestManager(t, nil, 0)
	if err := m.SwapIn(Serial(), 0); err != nil {
		t.Fatalf("swap in of host-resident chunk: %v", err)
	}
}

func TestManagerSwapOutTwiceFails(t *testing.T) {
	ex := Serial()
	m := newTestManager(t, []int{0}, 2)
	if err := m.SwapOut(ex, 0, 0); err != nil {
		t.Fatalf("first swap out: %v", err)
	}
	if err := m.SwapOut(ex, 0, 0); !errors.Is(err, ErrNotHostResident) {
		t.Fatalf("second swap out: err = %v, want ErrNotHostResident", err)
	}
}

func TestManagerSwapOutUnknownDevice(t *testing.T) {
	m := newTestManager(t, []int{0}, 1)
	if err := m.SwapOut(Serial(), 0, 9); err == nil {
		t.Fatal("swap out to device without a pool succeeded")
	}
}

func TestManagerCheckpointRestore(t *testing.T) {
	ex := Serial()
	m := newTestManager(t, nil, 0)
	fillSlot(t, m.Host(), 0, 30)
	orig := make([]complex128, 1<<4)
	m.Host().CopyOutSlice(orig, 0)

	if err := m.Checkpoint(ex, 0); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	m.Host().Zero(ex, 0, 1<<4)
	if err := m.Restore(ex, 0); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := m.Host().ChunkSlice(0)
	for i := range orig {
		if got[i] != orig[i] {
			t.Fatalf("element %d = %v after restore, want %v", i, got[i], orig[i])
		}
	}
}

func TestManagerRestoreWithoutCheckpoint(t *testing.T) {
	m := newTestManager(t, nil, 0)
	if err := m.Restore(Serial(), 0); !errors.Is(err, ErrNoCheckpoint) {
		t.Fatalf("restore without checkpoint: err = %v, want ErrNoCheckpoint", err)
	}
}

func TestManagerCheckpointSlotExhausted(t *testing.T) {
	// Two checkpoint slots back chunks 0 and 1; chunk 2 has none.
	m := newTestManager(t, nil, 0)
	if err := m.Checkpoint(Serial(), 2); !errors.Is(err, ErrNoCheckpoint) {
		t.Fatalf("checkpoint of chunk 2: err = %v, want ErrNoCheckpoint", err)
	}
}

func TestManagerRestoreDetectsCorruption(t *testing.T) {
	ex := Serial()
	m := newTestManager(t, nil, 0)
	fillSlot(t, m.Host(), 0, 30)
	if err := m.Checkpoint(ex, 0); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}

	// Scribble over the checkpoint slot behind the manager's back.
	ckSlot := m.Host().NumChunks() + m.Host().NumBuffers()
	m.Host().ChunkSlice(ckSlot)[0] = complex(1e9, 0)

	if err := m.Restore(ex, 0); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("restore of corrupted checkpoint: err = %v, want ErrCorrupt", err)
	}
}

func TestManagerBufferRef(t *testing.T) {
	m := newTestManager(t, nil, 0)
	r := m.BufferRef(0)
	if r.Pos() != m.Host().NumChunks() {
		t.Errorf("buffer 0 slot = %d, want %d", r.Pos(), m.Host().NumChunks())
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range buffer")
		}
	}()
	_ = m.BufferRef(1)
}

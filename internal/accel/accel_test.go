//go:build !cuda

package accel

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", Auto, false},
		{"auto", Auto, false},
		{"cpu", CPU, false},
		{"CUDA", CUDA, false},
		{"  cuda  ", CUDA, false},
		{"metal", "", true},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Normalize(%q) succeeded, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Normalize(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWithDeviceRestores(t *testing.T) {
	before := Current()
	var inside int
	err := WithDevice(1, func() error {
		inside = Current()
		return nil
	})
	if err != nil {
		t.Fatalf("with device: %v", err)
	}
	if inside != 1 {
		t.Errorf("current inside = %d, want 1", inside)
	}
	if got := Current(); got != before {
		t.Errorf("current after = %d, want restored %d", got, before)
	}
}

func TestWithDeviceRestoresOnError(t *testing.T) {
	before := Current()
	sentinel := errors.New("boom")
	if err := WithDevice(0, func() error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}
	if got := Current(); got != before {
		t.Errorf("current after failing fn = %d, want restored %d", got, before)
	}
}

func TestWithDeviceRejectsBadID(t *testing.T) {
	if err := WithDevice(mockDeviceCount, func() error { return nil }); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
	if err := WithDevice(-1, func() error { return nil }); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
}

func TestBufferCopyRoundTrip(t *testing.T) {
	b, err := Alloc(0, 64)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if b.Device() != 0 || b.Size() != 64 {
		t.Fatalf("buffer device=%d size=%d, want 0 and 64", b.Device(), b.Size())
	}

	src := make([]byte, 16)
	for i := range src {
		src[i] = byte(i + 1)
	}
	if err := CopyIn(b, 8, src); err != nil {
		t.Fatalf("copy in: %v", err)
	}
	dst := make([]byte, 16)
	if err := CopyOut(dst, b, 8); err != nil {
		t.Fatalf("copy out: %v", err)
	}
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("byte %d = %d, want %d", i, dst[i], src[i])
		}
	}
}

func TestBufferBounds(t *testing.T) {
	b, err := Alloc(0, 8)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if err := CopyIn(b, 4, make([]byte, 8)); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("overlong write: err = %v, want ErrOutOfRange", err)
	}
	if err := CopyOut(make([]byte, 4), b, 6); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("overlong read: err = %v, want ErrOutOfRange", err)
	}
	if err := CopyIn(b, -1, make([]byte, 1)); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("negative offset: err = %v, want ErrOutOfRange", err)
	}
}

func TestBufferDoubleFree(t *testing.T) {
	b, err := Alloc(1, 8)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if err := b.Free(); err != nil {
		t.Fatalf("first free: %v", err)
	}
	if err := b.Free(); !errors.Is(err, ErrFreed) {
		t.Errorf("second free: err = %v, want ErrFreed", err)
	}
	if err := CopyIn(b, 0, make([]byte, 1)); !errors.Is(err, ErrFreed) {
		t.Errorf("copy into freed buffer: err = %v, want ErrFreed", err)
	}
}

func TestAllocBadDevice(t *testing.T) {
	if _, err := Alloc(mockDeviceCount, 8); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
}

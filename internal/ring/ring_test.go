package ring

import (
	"testing"

	"github.com/arlo-embedded/sensorlink/internal/constants"
	"github.com/arlo-embedded/sensorlink/internal/platform"
)

func newTestRing(t *testing.T) (*Ring, *platform.Hosted) {
	t.Helper()
	p := platform.NewHosted()
	r := New(p, nil)
	for id := uint8(0); id < 3; id++ {
		if !r.Register(id) {
			t.Fatalf("Register(%d) = false, want true", id)
		}
	}
	return r, p
}

func TestPushPeekPop(t *testing.T) {
	r, _ := newTestRing(t)

	r.Push(1, []byte{0xAA, 0xBB}, 2)
	if occ := r.Occupancy(); occ != 1 {
		t.Fatalf("Occupancy() = %d, want 1", occ)
	}

	peeked, ok := r.PeekOldest()
	if !ok {
		t.Fatal("PeekOldest() = false, want true")
	}
	if peeked.SensorID != 1 || peeked.Size != 2 {
		t.Fatalf("PeekOldest() = %+v, unexpected", peeked)
	}
	if occ := r.Occupancy(); occ != 1 {
		t.Fatalf("Occupancy() after peek = %d, want 1 (peek must not retire)", occ)
	}

	popped, ok := r.PopOldest()
	if !ok {
		t.Fatal("PopOldest() = false, want true")
	}
	if popped != peeked {
		t.Fatalf("PopOldest() = %+v, want %+v", popped, peeked)
	}
	if occ := r.Occupancy(); occ != 0 {
		t.Fatalf("Occupancy() after pop = %d, want 0", occ)
	}
}

func TestPopEmptyReturnsFalse(t *testing.T) {
	r, _ := newTestRing(t)
	if _, ok := r.PopOldest(); ok {
		t.Fatal("PopOldest() on empty ring = true, want false")
	}
	if _, ok := r.PeekOldest(); ok {
		t.Fatal("PeekOldest() on empty ring = true, want false")
	}
}

func TestInvalidSizeRejected(t *testing.T) {
	r, _ := newTestRing(t)

	r.Push(1, []byte{0x01}, 1) // too small
	r.Push(1, make([]byte, 7), 7) // too large

	if occ := r.Occupancy(); occ != 0 {
		t.Fatalf("Occupancy() = %d, want 0", occ)
	}
	if got := r.InvalidCounter(); got != 2 {
		t.Fatalf("InvalidCounter() = %d, want 2", got)
	}
}

func TestInvalidSensorIDRejected(t *testing.T) {
	r, _ := newTestRing(t)

	r.Push(250, []byte{0x01, 0x02}, 2)

	if occ := r.Occupancy(); occ != 0 {
		t.Fatalf("Occupancy() = %d, want 0", occ)
	}
	if got := r.InvalidCounter(); got != 1 {
		t.Fatalf("InvalidCounter() = %d, want 1", got)
	}
}

func TestUnregisteredSensorRejected(t *testing.T) {
	r, _ := newTestRing(t)
	if !r.Unregister(1) {
		t.Fatal("Unregister(1) = false")
	}

	r.Push(1, []byte{0x01, 0x02}, 2)

	if occ := r.Occupancy(); occ != 0 {
		t.Fatalf("Occupancy() = %d, want 0", occ)
	}
	if got := r.InvalidCounter(); got != 1 {
		t.Fatalf("InvalidCounter() = %d, want 1", got)
	}
}

func TestDropOldest(t *testing.T) {
	r, _ := newTestRing(t)

	const n = 1025
	for i := 0; i < n; i++ {
		r.Push(0, []byte{byte(i), byte(i >> 8)}, 2)
	}

	snap := r.Snapshot()
	if snap.SamplesDropped != 1 {
		t.Fatalf("SamplesDropped = %d, want 1", snap.SamplesDropped)
	}
	if snap.Occupancy != 1024 {
		t.Fatalf("Occupancy = %d, want 1024", snap.Occupancy)
	}
	if snap.HighWater != 1024 {
		t.Fatalf("HighWater = %d, want 1024", snap.HighWater)
	}

	// The surviving order must be samples #2..#1025 (0-indexed: 1..1024).
	first, ok := r.PopOldest()
	if !ok {
		t.Fatal("PopOldest() = false")
	}
	if first.Payload[0] != 1 {
		t.Fatalf("oldest surviving sample payload[0] = %d, want 1", first.Payload[0])
	}
}

func TestRegisterUnregisterIdempotent(t *testing.T) {
	r, _ := newTestRing(t)

	if !r.Register(5) {
		t.Fatal("Register(5) = false")
	}
	if !r.Register(5) {
		t.Fatal("second Register(5) = false")
	}
	if !r.Unregister(5) {
		t.Fatal("Unregister(5) = false")
	}
	if !r.Unregister(5) {
		t.Fatal("second Unregister(5) = false")
	}
	if r.Register(constants.MaxSensors) {
		t.Fatal("Register(out of range) = true, want false")
	}
}

func TestOccupancyNeverExceedsCapacity(t *testing.T) {
	r, _ := newTestRing(t)
	for i := 0; i < 5000; i++ {
		r.Push(0, []byte{0, 0}, 2)
		occ := r.Occupancy()
		if occ > r.Capacity() {
			t.Fatalf("Occupancy() = %d exceeds Capacity() = %d", occ, r.Capacity())
		}
		if r.HighWater() < uint32(occ) {
			t.Fatalf("HighWater() = %d < Occupancy() = %d", r.HighWater(), occ)
		}
	}
}

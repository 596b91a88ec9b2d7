// Package ring implements the ingest ring buffer: an ISR-safe,
// lock-light, drop-oldest single-producer/single-consumer queue of
// sensor samples with registration gating and metrics.
//
// The producer (Push) is expected to run from interrupt context; the
// consumer (PeekOldest/PopOldest) runs from the cooperative main
// loop. The only synchronization primitive is the Platform's critical
// section, entered for the shortest possible span around cursor and
// counter mutation — never around a blocking call.
package ring

import (
	"math"

	"github.com/arlo-embedded/sensorlink/internal/constants"
	"github.com/arlo-embedded/sensorlink/internal/interfaces"
)

// SampleSlot is the unit stored in the ring.
type SampleSlot struct {
	TimestampMs uint32
	SensorID    uint8
	Size        uint8
	Payload     [constants.SamplePayloadMax]byte
}

// Stats is a point-in-time snapshot of the ring's diagnostic
// counters. Nothing in the core ever branches on these values; they
// exist for observability only.
type Stats struct {
	Occupancy       uint64
	Capacity        uint64
	HighWater       uint32
	SamplesReceived uint32
	SamplesDropped  uint32
	InvalidSamples  uint32
	RegisteredCount int
}

// Ring is a fixed-capacity circular buffer of RingCapacity SampleSlot
// cells addressed by two free-running 64-bit cursors, prod and cons
// (prod >= cons always). A 64-bit cursor makes wraparound
// indistinguishable from never-wrapping for the lifetime of any
// plausible deployment; indexing into the backing array is cursor mod
// capacity.
type Ring struct {
	platform interfaces.Platform
	observer interfaces.Observer

	cells [constants.RingCapacity]SampleSlot
	prod  uint64
	cons  uint64

	samplesReceived uint32
	samplesDropped  uint32
	invalidCounter  uint32
	highWater       uint32

	registered      [constants.MaxSensors]bool
	registeredCount int
}

// New creates an empty ring with no sensors registered. platform must
// not be nil; observer may be nil, in which case events are silently
// dropped.
func New(platform interfaces.Platform, observer interfaces.Observer) *Ring {
	if observer == nil {
		observer = interfaces.NoOpObserver{}
	}
	return &Ring{platform: platform, observer: observer}
}

// Push validates and admits one sample. It is safe to call from
// interrupt context: validation happens before the critical section,
// the clock is sampled outside the critical section (the clock source
// is itself ISR-safe), and the critical section contains only bounded
// work — a handful of field writes, a payload copy of at most
// SamplePayloadMax bytes, and cursor arithmetic.
func (r *Ring) Push(sensorID uint8, data []byte, size uint8) {
	if size < constants.SamplePayloadMin || size > constants.SamplePayloadMax || int(sensorID) >= constants.MaxSensors {
		r.platform.EnterCritical()
		r.invalidCounter = saturateIncr(r.invalidCounter)
		r.platform.ExitCritical()
		r.observer.ObserveInvalidSample()
		return
	}

	ts := r.platform.GetTickMs()

	r.platform.EnterCritical()
	defer r.platform.ExitCritical()

	if !r.registered[sensorID] {
		r.invalidCounter = saturateIncr(r.invalidCounter)
		r.observer.ObserveInvalidSample()
		return
	}

	occupancy := r.prod - r.cons
	if occupancy >= constants.RingCapacity {
		// Drop-oldest: admit the new sample by retiring the front.
		r.cons++
		r.samplesDropped = saturateIncr(r.samplesDropped)
		r.observer.ObserveSampleDropped()
	}

	idx := r.prod % constants.RingCapacity
	cell := &r.cells[idx]
	cell.TimestampMs = ts
	cell.SensorID = sensorID
	cell.Size = size
	copy(cell.Payload[:size], data[:size])

	r.prod++

	curOccupancy := r.prod - r.cons
	if curOccupancy > uint64(r.highWater) {
		if curOccupancy > math.MaxUint32 {
			r.highWater = math.MaxUint32
		} else {
			r.highWater = uint32(curOccupancy)
		}
	}
	r.samplesReceived = saturateIncr(r.samplesReceived)
	r.observer.ObserveSampleReceived()
	r.observer.ObserveRingOccupancy(uint32(curOccupancy))
}

// PeekOldest copies the oldest sample without removing it. It returns
// false if the ring is empty.
func (r *Ring) PeekOldest() (SampleSlot, bool) {
	r.platform.EnterCritical()
	defer r.platform.ExitCritical()

	if r.prod-r.cons == 0 {
		return SampleSlot{}, false
	}
	idx := r.cons % constants.RingCapacity
	return r.cells[idx], true
}

// PopOldest copies and retires the oldest sample. It returns false if
// the ring is empty.
func (r *Ring) PopOldest() (SampleSlot, bool) {
	r.platform.EnterCritical()
	defer r.platform.ExitCritical()

	if r.prod-r.cons == 0 {
		return SampleSlot{}, false
	}
	idx := r.cons % constants.RingCapacity
	slot := r.cells[idx]
	r.cons++
	return slot, true
}

// Occupancy returns the current number of samples in the ring.
func (r *Ring) Occupancy() uint64 {
	r.platform.EnterCritical()
	defer r.platform.ExitCritical()
	return r.prod - r.cons
}

// Capacity returns the fixed ring capacity.
func (r *Ring) Capacity() uint64 {
	return constants.RingCapacity
}

// HighWater returns the highest occupancy ever observed.
func (r *Ring) HighWater() uint32 {
	r.platform.EnterCritical()
	defer r.platform.ExitCritical()
	return r.highWater
}

// InvalidCounter returns the count of rejected pushes (bad size, bad
// sensor_id, or unregistered sensor_id — all three share one bucket).
func (r *Ring) InvalidCounter() uint32 {
	r.platform.EnterCritical()
	defer r.platform.ExitCritical()
	return r.invalidCounter
}

// Register marks sensorID as eligible to push samples. Returns false
// if sensorID is out of range.
func (r *Ring) Register(sensorID uint8) bool {
	if int(sensorID) >= constants.MaxSensors {
		return false
	}
	r.platform.EnterCritical()
	defer r.platform.ExitCritical()

	if !r.registered[sensorID] && r.registeredCount >= constants.MaxSensors {
		// Unreachable in practice: the table has MaxSensors slots and
		// IDs are < MaxSensors, so registeredCount can never reach
		// MaxSensors while an unregistered ID remains. Preserved for
		// symmetry with a future larger ID space.
		return false
	}
	if !r.registered[sensorID] {
		r.registered[sensorID] = true
		r.registeredCount++
	}
	return true
}

// Unregister clears sensorID's registration. Idempotent; returns
// false only if sensorID is out of range.
func (r *Ring) Unregister(sensorID uint8) bool {
	if int(sensorID) >= constants.MaxSensors {
		return false
	}
	r.platform.EnterCritical()
	defer r.platform.ExitCritical()

	if r.registered[sensorID] {
		r.registered[sensorID] = false
		if r.registeredCount > 0 {
			r.registeredCount--
		}
	}
	return true
}

// Snapshot returns a consistent point-in-time view of all counters.
func (r *Ring) Snapshot() Stats {
	r.platform.EnterCritical()
	defer r.platform.ExitCritical()
	return Stats{
		Occupancy:       r.prod - r.cons,
		Capacity:        constants.RingCapacity,
		HighWater:       r.highWater,
		SamplesReceived: r.samplesReceived,
		SamplesDropped:  r.samplesDropped,
		InvalidSamples:  r.invalidCounter,
		RegisteredCount: r.registeredCount,
	}
}

func saturateIncr(v uint32) uint32 {
	if v == math.MaxUint32 {
		return v
	}
	return v + 1
}

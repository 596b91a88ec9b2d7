// Package sensorlink wires the ingest ring, packetizer, and
// bounded-retry send wrapper into a single running pipeline: register
// sensors, push samples from a callback (interrupt context on real
// hardware), and run the packetizer loop to drain and transmit
// batches.
package sensorlink

import (
	"context"
	"time"

	"github.com/arlo-embedded/sensorlink/internal/comm"
	"github.com/arlo-embedded/sensorlink/internal/constants"
	"github.com/arlo-embedded/sensorlink/internal/interfaces"
	"github.com/arlo-embedded/sensorlink/internal/packetizer"
	"github.com/arlo-embedded/sensorlink/internal/ring"
)

// LinkParams configures a Pipeline.
type LinkParams struct {
	// Platform provides the clock, delay, and critical section.
	Platform interfaces.Platform

	// Transport sends finished packets to the peer radio.
	Transport interfaces.Transport

	// Logger receives send-wrapper and pipeline diagnostics. May be
	// nil.
	Logger interfaces.Logger

	// Observer receives ring and send metrics events. If nil, a
	// MetricsObserver wrapping a fresh Metrics is used.
	Observer interfaces.Observer

	// StartSeqNum is the first sequence number the packetizer assigns.
	StartSeqNum uint16

	// AgeThresholdMs overrides the packetizer's default age-based
	// flush threshold; 0 uses the default.
	AgeThresholdMs uint32
}

// DefaultParams returns a LinkParams with every optional field at its
// documented default, for platform and transport that the caller
// supplies.
func DefaultParams(platform interfaces.Platform, transport interfaces.Transport) LinkParams {
	return LinkParams{
		Platform:       platform,
		Transport:      transport,
		AgeThresholdMs: constants.DefaultAgeMs,
	}
}

// Pipeline is a running sensor-ingest-to-radio link: a ring, a
// packetizer, and a send wrapper, wired together and optionally
// driven by a background goroutine.
type Pipeline struct {
	ring       *ring.Ring
	packetizer *packetizer.Packetizer
	metrics    *Metrics
	observer   interfaces.Observer

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Pipeline from params. No sensors are registered; call
// RegisterSensor for each sensor ID the pipeline should accept
// samples from.
func New(params LinkParams) *Pipeline {
	var metrics *Metrics
	observer := params.Observer
	if observer == nil {
		metrics = NewMetrics()
		observer = NewMetricsObserver(metrics)
	}

	r := ring.New(params.Platform, observer)
	w := comm.New(params.Transport, params.Platform, params.Logger)
	ageThreshold := params.AgeThresholdMs
	if ageThreshold == 0 {
		ageThreshold = constants.DefaultAgeMs
	}
	pz := packetizer.New(r, w, params.Platform, observer, params.StartSeqNum)
	pz.SetAgeThresholdMs(ageThreshold)

	return &Pipeline{
		ring:       r,
		packetizer: pz,
		metrics:    metrics,
		observer:   observer,
	}
}

// RegisterSensor marks sensorID as eligible to push samples.
func (p *Pipeline) RegisterSensor(sensorID uint8) bool {
	return p.ring.Register(sensorID)
}

// UnregisterSensor clears sensorID's registration.
func (p *Pipeline) UnregisterSensor(sensorID uint8) bool {
	return p.ring.Unregister(sensorID)
}

// PushSample admits one sample from sensorID. Safe to call from
// interrupt context on real hardware; data[:size] is copied before
// this call returns.
func (p *Pipeline) PushSample(sensorID uint8, data []byte, size uint8) {
	p.ring.Push(sensorID, data, size)
}

// RunOnce drains at most one batch from the ring and, if non-empty,
// dispatches it. Call this directly for manual/test-driven pacing, or
// use Start for a free-running background loop.
func (p *Pipeline) RunOnce() {
	p.packetizer.RunOnce()
}

// RingStats returns a snapshot of ring counters.
func (p *Pipeline) RingStats() ring.Stats {
	return p.ring.Snapshot()
}

// PacketizerStats returns a snapshot of packetizer counters.
func (p *Pipeline) PacketizerStats() packetizer.Stats {
	return p.packetizer.Stats()
}

// Metrics returns the pipeline's built-in Metrics, or nil if the
// caller supplied a custom Observer in LinkParams.
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// Start launches a background goroutine that repeatedly calls RunOnce
// and sleeps between calls until ctx is cancelled or Stop is called. After each RunOnce it sleeps MinTxIntervalMs if the
// ring is now empty, 1ms otherwise, so an idle link polls no faster
// than it can ever transmit while a busy link drains promptly.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		for {
			p.packetizer.RunOnce()

			sleep := time.Millisecond
			if p.ring.Occupancy() == 0 {
				sleep = time.Duration(constants.MinTxIntervalMs) * time.Millisecond
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(sleep):
			}
		}
	}()
}

// Stop signals the background loop to exit and waits for it to
// finish. Safe to call even if Start was never called.
func (p *Pipeline) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	if p.metrics != nil {
		p.metrics.Stop()
	}
}

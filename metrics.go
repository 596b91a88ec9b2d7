package sensorlink

import (
	"sync/atomic"
	"time"

	"github.com/arlo-embedded/sensorlink/internal/interfaces"
)

// LatencyBuckets defines the send-latency histogram buckets in
// nanoseconds. Buckets cover from 100us to 1s with logarithmic
// spacing, matched to the expected range of a bounded-retry send over
// a low-rate radio link (single-digit-ms sends, up to ~2*BackoffMs
// worst case for retries).
var LatencyBuckets = []uint64{
	100_000,     // 100us
	1_000_000,   // 1ms
	10_000_000,  // 10ms
	50_000_000,  // 50ms
	100_000_000, // 100ms
	500_000_000, // 500ms
	1_000_000_000, // 1s
}

const numLatencyBuckets = 7

// Metrics tracks ingest, packetizer, and send-wrapper statistics for
// a pipeline. All counters are safe for concurrent use; the ring's
// Push runs from interrupt context on real hardware and the main loop
// runs cooperatively, so every field here is lock-free.
type Metrics struct {
	// Ingest counters
	SamplesReceived atomic.Uint64
	SamplesDropped  atomic.Uint64
	InvalidSamples  atomic.Uint64

	// Ring occupancy
	RingOccupancyTotal atomic.Uint64
	RingOccupancyCount atomic.Uint64
	RingHighWater      atomic.Uint32

	// Send outcomes
	SendsAttempted atomic.Uint64
	SendsSucceeded atomic.Uint64
	SendsFailed    atomic.Uint64
	RetryAttempts  atomic.Uint64

	// Performance tracking
	TotalLatencyNs atomic.Uint64
	SendCount      atomic.Uint64

	// Latency histogram buckets (cumulative counts): bucket[i] holds
	// the count of sends with latency <= LatencyBuckets[i].
	LatencyHist [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordSampleReceived records one sample admitted to the ring.
func (m *Metrics) RecordSampleReceived() {
	m.SamplesReceived.Add(1)
}

// RecordSampleDropped records one sample retired early to make room
// for a new one (drop-oldest).
func (m *Metrics) RecordSampleDropped() {
	m.SamplesDropped.Add(1)
}

// RecordInvalidSample records one rejected push (bad size, bad
// sensor_id, or unregistered sensor_id).
func (m *Metrics) RecordInvalidSample() {
	m.InvalidSamples.Add(1)
}

// RecordRingOccupancy records one occupancy observation.
func (m *Metrics) RecordRingOccupancy(occupancy uint32) {
	m.RingOccupancyTotal.Add(uint64(occupancy))
	m.RingOccupancyCount.Add(1)

	for {
		current := m.RingHighWater.Load()
		if occupancy <= current {
			break
		}
		if m.RingHighWater.CompareAndSwap(current, occupancy) {
			break
		}
	}
}

// RecordSend records one packet dispatch outcome.
func (m *Metrics) RecordSend(latencyNs uint64, attempts uint32, success bool) {
	m.SendsAttempted.Add(1)
	if success {
		m.SendsSucceeded.Add(1)
	} else {
		m.SendsFailed.Add(1)
	}
	if attempts > 1 {
		m.RetryAttempts.Add(uint64(attempts - 1))
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.SendCount.Add(1)

	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyHist[i].Add(1)
		}
	}
}

// Stop marks the pipeline as stopped.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time snapshot of Metrics.
type MetricsSnapshot struct {
	SamplesReceived uint64
	SamplesDropped  uint64
	InvalidSamples  uint64

	AvgRingOccupancy float64
	RingHighWater    uint32

	SendsAttempted uint64
	SendsSucceeded uint64
	SendsFailed    uint64
	RetryAttempts  uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	SendRate  float64 // sends per second
	ErrorRate float64 // percentage of failed sends
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		SamplesReceived: m.SamplesReceived.Load(),
		SamplesDropped:  m.SamplesDropped.Load(),
		InvalidSamples:  m.InvalidSamples.Load(),
		RingHighWater:   m.RingHighWater.Load(),
		SendsAttempted:  m.SendsAttempted.Load(),
		SendsSucceeded:  m.SendsSucceeded.Load(),
		SendsFailed:     m.SendsFailed.Load(),
		RetryAttempts:   m.RetryAttempts.Load(),
	}

	occTotal := m.RingOccupancyTotal.Load()
	occCount := m.RingOccupancyCount.Load()
	if occCount > 0 {
		snap.AvgRingOccupancy = float64(occTotal) / float64(occCount)
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	sendCount := m.SendCount.Load()
	if sendCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / sendCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.SendRate = float64(snap.SendsAttempted) / uptimeSeconds
	}

	if snap.SendsAttempted > 0 {
		snap.ErrorRate = float64(snap.SendsFailed) / float64(snap.SendsAttempted) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyHist[i].Load()
	}

	if sendCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	total := m.SendCount.Load()
	if total == 0 {
		return 0
	}

	targetCount := uint64(float64(total) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyHist[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyHist[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all metrics counters. Useful for testing.
func (m *Metrics) Reset() {
	m.SamplesReceived.Store(0)
	m.SamplesDropped.Store(0)
	m.InvalidSamples.Store(0)
	m.RingOccupancyTotal.Store(0)
	m.RingOccupancyCount.Store(0)
	m.RingHighWater.Store(0)
	m.SendsAttempted.Store(0)
	m.SendsSucceeded.Store(0)
	m.SendsFailed.Store(0)
	m.RetryAttempts.Store(0)
	m.TotalLatencyNs.Store(0)
	m.SendCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyHist[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// MetricsObserver implements interfaces.Observer by recording every
// event into a Metrics instance.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveSampleReceived() {
	o.metrics.RecordSampleReceived()
}

func (o *MetricsObserver) ObserveSampleDropped() {
	o.metrics.RecordSampleDropped()
}

func (o *MetricsObserver) ObserveInvalidSample() {
	o.metrics.RecordInvalidSample()
}

func (o *MetricsObserver) ObserveRingOccupancy(occupancy uint32) {
	o.metrics.RecordRingOccupancy(occupancy)
}

func (o *MetricsObserver) ObserveSend(latencyNs uint64, attempts uint32, success bool) {
	o.metrics.RecordSend(latencyNs, attempts, success)
}

var _ interfaces.Observer = (*MetricsObserver)(nil)

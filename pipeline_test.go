package sensorlink

import (
	"context"
	"testing"
	"time"

	"github.com/arlo-embedded/sensorlink/internal/interfaces"
	"github.com/arlo-embedded/sensorlink/internal/packetizer"
	"github.com/arlo-embedded/sensorlink/internal/platform"
)

// fakeClock is a manually-stepped Platform for deterministic
// pipeline-level tests, mirroring internal/packetizer's test clock.
type fakeClock struct {
	nowMs uint32
}

func (f *fakeClock) Init()            {}
func (f *fakeClock) GetTickMs() uint32 { return f.nowMs }
func (f *fakeClock) WaitMs(ms uint32)  { f.nowMs += ms }
func (f *fakeClock) EnterCritical()    {}
func (f *fakeClock) ExitCritical()     {}

var _ interfaces.Platform = (*fakeClock)(nil)

func TestPipelineSingleSmallBatchRoundTrips(t *testing.T) {
	clock := &fakeClock{}
	tr := NewMockTransport(interfaces.StatusSuccess)
	p := New(DefaultParams(clock, tr))

	if !p.RegisterSensor(1) {
		t.Fatal("expected sensor 1 to register")
	}

	p.PushSample(1, []byte{0xAA, 0xBB}, 2)
	p.RunOnce()

	sent := tr.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 packet sent, got %d", len(sent))
	}

	decoded, err := packetizer.Decode(sent[0])
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.SampleCount != 1 {
		t.Fatalf("expected 1 sample, got %d", decoded.SampleCount)
	}
	if decoded.Samples[0].SensorID != 1 {
		t.Errorf("expected sensor_id 1, got %d", decoded.Samples[0].SensorID)
	}
	if string(decoded.Samples[0].Payload) != "\xAA\xBB" {
		t.Errorf("payload mismatch: %x", decoded.Samples[0].Payload)
	}

	stats := p.PacketizerStats()
	if stats.PacketsSent != 1 {
		t.Errorf("expected 1 packet sent in stats, got %d", stats.PacketsSent)
	}
	if stats.SeqNum != 1 {
		t.Errorf("expected seq_num to advance to 1, got %d", stats.SeqNum)
	}
}

func TestPipelinePushToUnregisteredSensorIsInvalid(t *testing.T) {
	clock := &fakeClock{}
	tr := NewMockTransport(interfaces.StatusSuccess)
	metrics := NewMetrics()
	params := DefaultParams(clock, tr)
	params.Observer = NewMetricsObserver(metrics)
	p := New(params)

	p.PushSample(9, []byte{0x01, 0x02}, 2)
	p.RunOnce()

	if len(tr.Sent()) != 0 {
		t.Error("expected no packet sent for an unregistered sensor")
	}
	snap := metrics.Snapshot()
	if snap.InvalidSamples != 1 {
		t.Errorf("expected 1 invalid sample recorded, got %d", snap.InvalidSamples)
	}
}

func TestPipelineRetriesTransientFailureThenSucceeds(t *testing.T) {
	clock := &fakeClock{}
	tr := NewMockTransport(interfaces.StatusError, interfaces.StatusSuccess)
	p := New(DefaultParams(clock, tr))
	p.RegisterSensor(2)

	p.PushSample(2, []byte{0x42, 0x43}, 2)
	p.RunOnce()

	stats := p.PacketizerStats()
	if stats.PacketsSent != 1 {
		t.Errorf("expected the retried send to succeed, got PacketsSent=%d", stats.PacketsSent)
	}
	if len(tr.Sent()) != 2 {
		t.Errorf("expected 2 transport calls (1 failed, 1 retried), got %d", len(tr.Sent()))
	}
}

func TestPipelinePermanentTransportErrorDoesNotAdvanceSeqNum(t *testing.T) {
	clock := &fakeClock{}
	tr := NewMockTransport(interfaces.StatusInvalidPacketLength)
	p := New(DefaultParams(clock, tr))
	p.RegisterSensor(3)

	p.PushSample(3, []byte{0x01, 0x02}, 2)
	p.RunOnce()

	stats := p.PacketizerStats()
	if stats.PacketsSent != 0 || stats.PacketsFailed != 1 {
		t.Errorf("expected the permanent error to count as a failed packet, got %+v", stats)
	}
	if stats.SeqNum != 0 {
		t.Errorf("expected seq_num to stay at 0 after a failed send, got %d", stats.SeqNum)
	}
}

func TestPipelineDropOldestOnFullRing(t *testing.T) {
	clock := &fakeClock{}
	tr := NewMockTransport(interfaces.StatusSuccess)
	metrics := NewMetrics()
	params := DefaultParams(clock, tr)
	params.Observer = NewMetricsObserver(metrics)
	p := New(params)
	p.RegisterSensor(4)

	for i := 0; i < int(RingCapacity)+5; i++ {
		p.PushSample(4, []byte{byte(i), byte(i)}, 2)
	}

	snap := metrics.Snapshot()
	if snap.SamplesDropped == 0 {
		t.Error("expected some samples to be dropped once the ring fills")
	}
	if snap.SamplesReceived != snap.SamplesDropped+uint64(p.RingStats().Occupancy) {
		t.Errorf("received should equal dropped plus remaining occupancy: received=%d dropped=%d occupancy=%d",
			snap.SamplesReceived, snap.SamplesDropped, p.RingStats().Occupancy)
	}
}

func TestPipelineStartStopDrivesBackgroundLoop(t *testing.T) {
	hosted := platform.NewHosted()
	tr := NewMockTransport(interfaces.StatusSuccess)
	params := DefaultParams(hosted, tr)
	p := New(params)
	p.RegisterSensor(5)

	p.PushSample(5, []byte{0x01, 0x02}, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for len(tr.Sent()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()

	if len(tr.Sent()) == 0 {
		t.Fatal("expected the background loop to dispatch at least one packet")
	}
}

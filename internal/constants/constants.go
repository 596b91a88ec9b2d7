// Package constants holds the compile-time tunables shared by the
// ring, packetizer, and send wrapper.
package constants

import "time"

const (
	// MaxSensors is the number of distinct sensor IDs the registration
	// table can track, and the exclusive upper bound on sensor_id.
	MaxSensors = 10

	// SamplePayloadMax is the maximum number of meaningful payload
	// bytes in a SampleSlot.
	SamplePayloadMax = 6

	// SamplePayloadMin is the minimum accepted sample size.
	SamplePayloadMin = 2

	// RingCapacity is the fixed number of cells in the ingest ring.
	RingCapacity = 1024

	// MaxPacketBytes is the maximum encoded packet size, header
	// included.
	MaxPacketBytes = 200

	// PacketHeaderBytes is the size of the fixed packet header
	// (seq_num + sample_count + flags).
	PacketHeaderBytes = 4

	// MinTxIntervalMs is the minimum time the protocol requires
	// between consecutive transport sends.
	MinTxIntervalMs = 10

	// DefaultAgeMs is the default age threshold used to force-flush a
	// batch that has been accumulating samples.
	DefaultAgeMs = 20

	// MaxRetries is the number of send attempts the send wrapper will
	// make before giving up.
	MaxRetries = 2

	// BackoffMs is the fixed delay between retried send attempts.
	BackoffMs = 5
)

// Duration forms of the millisecond constants above, for APIs that
// prefer a time.Duration.
const (
	DefaultAgeThreshold = DefaultAgeMs * time.Millisecond
	DefaultBackoff      = BackoffMs * time.Millisecond
	MinTxInterval       = MinTxIntervalMs * time.Millisecond
)

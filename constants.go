package sensorlink

import "github.com/arlo-embedded/sensorlink/internal/constants"

// Re-exported tunables for public API consumers.
const (
	MaxSensors        = constants.MaxSensors
	SamplePayloadMax  = constants.SamplePayloadMax
	SamplePayloadMin  = constants.SamplePayloadMin
	RingCapacity      = constants.RingCapacity
	MaxPacketBytes    = constants.MaxPacketBytes
	PacketHeaderBytes = constants.PacketHeaderBytes
	MinTxIntervalMs   = constants.MinTxIntervalMs
	DefaultAgeMs      = constants.DefaultAgeMs
	MaxRetries        = constants.MaxRetries
	BackoffMs         = constants.BackoffMs
)

package packetizer

import (
	"fmt"

	"github.com/arlo-embedded/sensorlink/internal/constants"
	"github.com/arlo-embedded/sensorlink/internal/ring"
)

// EncodeSample appends one sample entry (sensor_id, delta_ms, size,
// payload) to dst, with delta_ms computed relative to baseTs and
// wrapped mod 256.
func EncodeSample(dst []byte, baseTs uint32, s ring.SampleSlot) []byte {
	delta := uint8((s.TimestampMs - baseTs) & 0xFF)
	dst = append(dst, s.SensorID, delta, s.Size)
	return append(dst, s.Payload[:s.Size]...)
}

// Encode builds a complete packet from a finished batch: header,
// base timestamp, and each sample's encoded entry in order. It is the
// inverse of Decode, used both by tests checking the round-trip
// property and by RunOnce once greedy batch selection has settled on
// a final sample set.
func Encode(seqNum uint16, baseTs uint32, samples []ring.SampleSlot) []byte {
	packet := make([]byte, constants.PacketHeaderBytes, constants.MaxPacketBytes)
	writeU16LE(packet[0:2], seqNum)
	packet[2] = uint8(len(samples))
	packet[3] = 0

	packet = appendU32LE(packet, baseTs)
	for _, s := range samples {
		packet = EncodeSample(packet, baseTs, s)
	}
	return packet
}

// DecodedSample is one sample entry recovered from a packet by
// Decode.
type DecodedSample struct {
	TimestampMs uint32
	SensorID    uint8
	Payload     []byte
}

// DecodedPacket is the fully parsed form of a packet built by
// RunOnce, used by tests and diagnostic tooling to verify the wire
// format round-trips.
type DecodedPacket struct {
	SeqNum      uint16
	SampleCount uint8
	Samples     []DecodedSample
}

// Decode parses packet into its header and samples. It is the
// reference decoder used to check the round-trip property: encoding a
// batch and decoding it must yield exactly the input samples in
// order.
func Decode(packet []byte) (DecodedPacket, error) {
	if len(packet) < constants.PacketHeaderBytes {
		return DecodedPacket{}, fmt.Errorf("packetizer: packet too short for header: %d bytes", len(packet))
	}

	seqNum := uint16(packet[0]) | uint16(packet[1])<<8
	sampleCount := packet[2]

	out := DecodedPacket{SeqNum: seqNum, SampleCount: sampleCount}
	if sampleCount == 0 {
		return out, nil
	}

	off := constants.PacketHeaderBytes
	if off+4 > len(packet) {
		return DecodedPacket{}, fmt.Errorf("packetizer: packet too short for base timestamp")
	}
	baseTs := uint32(packet[off]) | uint32(packet[off+1])<<8 | uint32(packet[off+2])<<16 | uint32(packet[off+3])<<24
	off += 4

	out.Samples = make([]DecodedSample, 0, sampleCount)
	for i := 0; i < int(sampleCount); i++ {
		if off+3 > len(packet) {
			return DecodedPacket{}, fmt.Errorf("packetizer: truncated sample entry %d", i)
		}
		sensorID := packet[off]
		delta := packet[off+1]
		size := packet[off+2]
		off += 3
		if off+int(size) > len(packet) {
			return DecodedPacket{}, fmt.Errorf("packetizer: truncated sample payload %d", i)
		}
		payload := make([]byte, size)
		copy(payload, packet[off:off+int(size)])
		off += int(size)

		out.Samples = append(out.Samples, DecodedSample{
			TimestampMs: baseTs + uint32(delta),
			SensorID:    sensorID,
			Payload:     payload,
		})
	}
	return out, nil
}

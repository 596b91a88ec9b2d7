// Package packetizer greedily batches ring samples into fixed-format
// wire packets and hands each finished packet to the send wrapper.
//
// Packet format:
//
//	header (4 bytes):
//	  seq_num       uint16 LE
//	  sample_count  uint8
//	  reserved      uint8
//	payload:
//	  base_timestamp_ms uint32 LE  -- timestamp of the first sample
//	  sample entries, each:
//	    sensor_id uint8
//	    delta_ms  uint8  -- timestamp_ms - base_timestamp_ms, mod 256
//	    size      uint8
//	    payload   size bytes
package packetizer

import (
	"github.com/arlo-embedded/sensorlink/internal/constants"
	"github.com/arlo-embedded/sensorlink/internal/interfaces"
	"github.com/arlo-embedded/sensorlink/internal/ring"
)

const maxPayloadBytes = constants.MaxPacketBytes - constants.PacketHeaderBytes

// sampleSource is the subset of *ring.Ring the packetizer pulls
// samples from.
type sampleSource interface {
	PeekOldest() (ring.SampleSlot, bool)
	PopOldest() (ring.SampleSlot, bool)
}

// sender is the subset of *comm.Wrapper the packetizer sends finished
// packets through.
type sender interface {
	Send(packet []byte) (ok bool, attempts uint32)
}

// Stats is a point-in-time snapshot of the packetizer's diagnostic
// counters.
type Stats struct {
	PacketsSent   uint32
	PacketsFailed uint32
	SeqNum        uint16
}

// Packetizer drains a sample source into fixed-format packets and
// dispatches each one through a sender, enforcing the minimum
// transmit interval and the age-based flush threshold.
type Packetizer struct {
	source   sampleSource
	send     sender
	platform interfaces.Platform
	observer interfaces.Observer

	seqNum         uint16
	lastSendTimeMs uint32
	ageThresholdMs uint32

	packetsSent   uint32
	packetsFailed uint32
}

// New returns a Packetizer reading from source and dispatching
// through send, starting at sequence number startSeq with the default
// age threshold. observer may be nil.
func New(source sampleSource, send sender, platform interfaces.Platform, observer interfaces.Observer, startSeq uint16) *Packetizer {
	if observer == nil {
		observer = interfaces.NoOpObserver{}
	}
	return &Packetizer{
		source:         source,
		send:           send,
		platform:       platform,
		observer:       observer,
		seqNum:         startSeq,
		ageThresholdMs: constants.DefaultAgeMs,
	}
}

// SetAgeThresholdMs overrides the default age-based flush threshold.
func (p *Packetizer) SetAgeThresholdMs(ageMs uint32) {
	p.ageThresholdMs = ageMs
}

// Stats returns the current packet counters.
func (p *Packetizer) Stats() Stats {
	return Stats{PacketsSent: p.packetsSent, PacketsFailed: p.packetsFailed, SeqNum: p.seqNum}
}

// RunOnce drains as many ring samples as fit into one packet and, if
// it produced a non-empty batch, dispatches it. It is meant to be
// called frequently from the main loop; an empty ring is a no-op. A
// first sample too large to fit a packet on its own is discarded and
// the next oldest sample is considered in its place.
func (p *Packetizer) RunOnce() {
	if _, has := p.source.PeekOldest(); !has {
		return
	}

	var samples []ring.SampleSlot
	length := constants.PacketHeaderBytes
	var baseTs uint32

	for {
		tmp, has := p.source.PeekOldest()
		if !has {
			break
		}

		if len(samples) == 0 {
			baseTs = tmp.TimestampMs
		}

		delta := tmp.TimestampMs - baseTs
		if delta > 255 {
			break
		}

		encLen := 3 + int(tmp.Size) // sensor_id + delta + size + payload
		effectiveLen := length + encLen
		if len(samples) == 0 {
			effectiveLen += 4 // base_timestamp_ms
		}

		if effectiveLen > constants.MaxPacketBytes {
			if len(samples) == 0 {
				// The oldest sample can never fit on its own: drop it
				// so it doesn't wedge every future batch.
				p.source.PopOldest()
				continue
			}
			break
		}

		if len(samples) > 0 {
			now := p.platform.GetTickMs()
			if now-baseTs >= p.ageThresholdMs {
				break
			}
		}

		s, has := p.source.PopOldest()
		if !has {
			break
		}

		if len(samples) == 0 {
			length += 4
		}
		length += encLen
		samples = append(samples, s)
	}

	if len(samples) == 0 {
		return
	}

	packet := Encode(p.seqNum, baseTs, samples)

	now := p.platform.GetTickMs()
	if elapsed := now - p.lastSendTimeMs; elapsed < constants.MinTxIntervalMs {
		p.platform.WaitMs(constants.MinTxIntervalMs - elapsed)
	}

	sendStartMs := p.platform.GetTickMs()
	ok, attempts := p.send.Send(packet)
	p.lastSendTimeMs = p.platform.GetTickMs()
	p.observer.ObserveSend(uint64(p.lastSendTimeMs-sendStartMs)*1_000_000, attempts, ok)

	if ok {
		p.packetsSent = saturateIncr(p.packetsSent)
		p.seqNum++
	} else {
		p.packetsFailed = saturateIncr(p.packetsFailed)
	}
}

func writeU16LE(dst []byte, v uint16) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
}

func appendU32LE(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func saturateIncr(v uint32) uint32 {
	if v == 0xFFFFFFFF {
		return v
	}
	return v + 1
}

// Package diag periodically serializes pipeline diagnostic snapshots
// to a rotated log file, so a field deployment has a record of ring
// occupancy, drop counts, and send outcomes without a live console
// attached.
package diag

import (
	"fmt"
	"io"
	"time"

	"github.com/agilira/lethe"

	"github.com/arlo-embedded/sensorlink/internal/packetizer"
	"github.com/arlo-embedded/sensorlink/internal/ring"
)

// Snapshot is the set of counters written on every tick.
type Snapshot struct {
	Ring       ring.Stats
	Packetizer packetizer.Stats
}

// Sink writes a line-oriented Snapshot record to a rotating log file
// on every Record call.
type Sink struct {
	w io.Writer
}

// NewDailySink opens path with daily rotation, matching lethe's
// NewDaily defaults (50MB size cap, 24h rotation, 7 backups).
func NewDailySink(path string) (*Sink, error) {
	w, err := lethe.NewDaily(path)
	if err != nil {
		return nil, fmt.Errorf("diag: open %s: %w", path, err)
	}
	return &Sink{w: w}, nil
}

// NewSinkWithWriter wraps an arbitrary io.Writer as a Sink, for tests
// and for callers who manage rotation themselves.
func NewSinkWithWriter(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Record writes one snapshot line.
func (s *Sink) Record(snap Snapshot) error {
	line := fmt.Sprintf(
		"%s ring_occupancy=%d ring_high_water=%d ring_dropped=%d ring_invalid=%d packets_sent=%d packets_failed=%d seq_num=%d\n",
		time.Now().UTC().Format(time.RFC3339),
		snap.Ring.Occupancy,
		snap.Ring.HighWater,
		snap.Ring.SamplesDropped,
		snap.Ring.InvalidSamples,
		snap.Packetizer.PacketsSent,
		snap.Packetizer.PacketsFailed,
		snap.Packetizer.SeqNum,
	)
	_, err := s.w.Write([]byte(line))
	return err
}

// Close releases the underlying writer, if it is closeable.
func (s *Sink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

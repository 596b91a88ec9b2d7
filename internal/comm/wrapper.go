// Package comm implements the bounded-retry send wrapper around the
// transport's one-shot blocking send.
package comm

import (
	"github.com/arlo-embedded/sensorlink/internal/constants"
	"github.com/arlo-embedded/sensorlink/internal/interfaces"
)

// IsPermanent reports whether status represents a permanent input
// error that retrying cannot fix.
func IsPermanent(status interfaces.Status) bool {
	switch status {
	case interfaces.StatusInvalidPacketLength, interfaces.StatusInvalidPacketLocation:
		return true
	default:
		return false
	}
}

// Wrapper retries a transport send up to MaxRetries times with a
// fixed backoff, short-circuiting on a permanent error.
type Wrapper struct {
	transport interfaces.Transport
	platform  interfaces.Platform
	logger    interfaces.Logger
}

// New returns a send wrapper over transport. logger may be nil.
func New(transport interfaces.Transport, platform interfaces.Platform, logger interfaces.Logger) *Wrapper {
	return &Wrapper{transport: transport, platform: platform, logger: logger}
}

// Send tries up to MaxRetries times to deliver packet. It returns
// (true, attempt) on the attempt that succeeded, or (false,
// MaxRetries) once every attempt has failed. A permanent transport
// error (invalid length or location) stops retrying immediately and
// returns the attempt number it was detected on.
//
// Fixed small backoff avoids starving the producer; capping at
// MaxRetries attempts bounds worst-case dispatch latency at roughly
// MaxRetries * (send_latency + BackoffMs).
func (w *Wrapper) Send(packet []byte) (ok bool, attempts uint32) {
	for attempt := uint32(1); attempt <= constants.MaxRetries; attempt++ {
		attempts = attempt

		status := w.transport.Send(packet)
		if status == interfaces.StatusSuccess {
			return true, attempt
		}

		if IsPermanent(status) {
			if w.logger != nil {
				w.logger.Warnf("send wrapper: permanent error on attempt %d: %s", attempt, status)
			}
			return false, attempt
		}

		if w.logger != nil {
			w.logger.Debugf("send wrapper: transient error on attempt %d: %s", attempt, status)
		}
		// Backoff unconditionally, even after the final attempt — the
		// source does the same; it costs one idle BackoffMs on the
		// failure path in exchange for a simpler loop.
		w.platform.WaitMs(constants.BackoffMs)
	}
	return false, constants.MaxRetries
}

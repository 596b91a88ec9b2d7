// Package transport provides the one-shot blocking packet send
// abstraction the send wrapper dispatches through, plus concrete
// implementations (a test mock and a real serial-line sender).
package transport

import "github.com/arlo-embedded/sensorlink/internal/interfaces"

// Status re-exports interfaces.Status so callers outside the internal
// tree can depend on the transport package alone.
type Status = interfaces.Status

const (
	StatusSuccess                 = interfaces.StatusSuccess
	StatusError                   = interfaces.StatusError
	StatusTimeout                 = interfaces.StatusTimeout
	StatusInvalidPacketLength     = interfaces.StatusInvalidPacketLength
	StatusInvalidPacketLocation   = interfaces.StatusInvalidPacketLocation
	StatusUnknown                 = interfaces.StatusUnknown
)

// Transport re-exports interfaces.Transport.
type Transport = interfaces.Transport

// Package serial adapts a UART link to the transport.Transport
// contract, for a sensor-link radio reachable as a serial device.
package serial

import (
	"errors"
	"io"
	"runtime"

	"github.com/tarm/serial"

	"github.com/arlo-embedded/sensorlink/internal/constants"
	"github.com/arlo-embedded/sensorlink/internal/interfaces"
)

// Link wraps an open serial port as a Transport. One Send call is one
// write of the whole packet followed by a read of a single
// acknowledgement byte; anything else is reported as StatusError so
// the send wrapper's retry logic can decide what to do next.
type Link struct {
	port io.ReadWriteCloser
}

const (
	ackByte = 0x06
	nakByte = 0x15
)

// Open opens dev at baud bps. If dev is empty, Open tries the
// platform's conventional serial device names in order and returns
// the first one that opens, mirroring the convention of trying
// several candidate device paths before giving up.
func Open(dev string, baud int) (*Link, error) {
	var devices []string
	if dev != "" {
		devices = append(devices, dev)
	} else {
		switch runtime.GOOS {
		case "windows":
			devices = append(devices, "COM3")
		case "linux":
			devices = append(devices, "/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyACM0")
		default:
			devices = append(devices, "/dev/tty.usbserial")
		}
	}

	var firstErr error
	for _, d := range devices {
		cfg := &serial.Config{Name: d, Baud: baud}
		port, err := serial.OpenPort(cfg)
		if err == nil {
			return &Link{port: port}, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = errors.New("transport/serial: no device specified")
	}
	return nil, firstErr
}

// Send writes packet and waits for a single acknowledgement byte.
func (l *Link) Send(packet []byte) interfaces.Status {
	if len(packet) == 0 || len(packet) > constants.MaxPacketBytes {
		return interfaces.StatusInvalidPacketLength
	}

	if _, err := l.port.Write(packet); err != nil {
		return interfaces.StatusError
	}

	var ack [1]byte
	n, err := l.port.Read(ack[:])
	if err != nil {
		return interfaces.StatusTimeout
	}
	if n != 1 {
		return interfaces.StatusUnknown
	}
	switch ack[0] {
	case ackByte:
		return interfaces.StatusSuccess
	case nakByte:
		return interfaces.StatusError
	default:
		return interfaces.StatusUnknown
	}
}

// Close closes the underlying port.
func (l *Link) Close() error {
	return l.port.Close()
}

var _ interfaces.Transport = (*Link)(nil)

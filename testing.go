package sensorlink

import (
	"github.com/arlo-embedded/sensorlink/internal/interfaces"
	"github.com/arlo-embedded/sensorlink/internal/platform"
	"github.com/arlo-embedded/sensorlink/internal/transport"
)

// MockTransport is a scriptable interfaces.Transport for tests:
// each call to Send consumes the next status in order, sticking on
// the last one once exhausted.
type MockTransport = transport.Mock

// NewMockTransport returns a MockTransport that replies with results
// in order. With no results given, every Send reports
// interfaces.StatusSuccess.
func NewMockTransport(results ...interfaces.Status) *MockTransport {
	return transport.NewMock(results...)
}

// MockPlatform is a real, if coarse, host-clock Platform useful for
// integration tests that need actual elapsed time rather than a
// hand-stepped fake clock.
type MockPlatform = platform.Hosted

// NewMockPlatform returns a MockPlatform with its epoch set to now.
func NewMockPlatform() *MockPlatform {
	return platform.NewHosted()
}

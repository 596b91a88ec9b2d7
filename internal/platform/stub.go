package platform

import "github.com/arlo-embedded/sensorlink/internal/interfaces"

// Stub is a deliberately non-functional Platform implementation for
// cross-compilation targets where no timer or IRQ-masking facility
// has been wired up yet. It mirrors the posture of the original
// platform.c production stubs: the shape is correct, the bodies are
// not. Porting to a real MCU means replacing Stub, not internal/ring
// or internal/packetizer.
type Stub struct{}

// NewStub returns a Stub platform.
func NewStub() *Stub { return &Stub{} }

// Init does nothing. A real port initializes SysTick/RTC/OS tick
// here.
func (s *Stub) Init() {}

// GetTickMs always returns 0. A real port returns monotonic
// milliseconds since boot.
func (s *Stub) GetTickMs() uint32 { return 0 }

// WaitMs does not block. A real port blocks for approximately ms
// milliseconds.
func (s *Stub) WaitMs(ms uint32) {}

// EnterCritical does nothing. A real port disables the sensor
// interrupt or takes the RTOS lock.
func (s *Stub) EnterCritical() {}

// ExitCritical does nothing. A real port re-enables the sensor
// interrupt or releases the RTOS lock.
func (s *Stub) ExitCritical() {}

var _ interfaces.Platform = (*Stub)(nil)

package platform

import (
	"runtime"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/arlo-embedded/sensorlink/internal/interfaces"
)

// Hosted is a Linux-hosted Platform implementation used by the
// cmd/sensorlinkd simulator and by integration tests that need a
// real, if coarse, clock and blocking delay. There is no producing
// interrupt to mask on a host process, so the critical section is
// backed by a sync.Mutex — the correct single-process stand-in, not
// an IRQ mask.
type Hosted struct {
	epoch time.Time

	mu sync.Mutex
}

// NewHosted returns a Hosted platform with its monotonic epoch set to
// now.
func NewHosted() *Hosted {
	return &Hosted{epoch: time.Now()}
}

// Init resets the monotonic epoch.
func (h *Hosted) Init() {
	h.epoch = time.Now()
}

// GetTickMs returns milliseconds elapsed since the epoch, truncated
// to uint32 — it wraps at 2^32ms (~49.7 days), matching the
// wraparound behavior a real MCU tick counter has.
func (h *Hosted) GetTickMs() uint32 {
	return uint32(time.Since(h.epoch).Milliseconds())
}

// WaitMs blocks for approximately ms milliseconds.
func (h *Hosted) WaitMs(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// EnterCritical takes the mutex standing in for the IRQ mask.
func (h *Hosted) EnterCritical() {
	h.mu.Lock()
}

// ExitCritical releases the mutex standing in for the IRQ mask.
func (h *Hosted) ExitCritical() {
	h.mu.Unlock()
}

var _ interfaces.Platform = (*Hosted)(nil)

// PinCurrentGoroutine locks the calling goroutine to its current OS
// thread and pins that thread to cpu. It is meant to be called once
// from the top of the main loop goroutine before entering the
// run-once/sleep cycle, exactly as each ublk queue's I/O loop pins
// itself to a CPU before servicing completions: a hosted sensor-link
// main loop is just as latency-sensitive about scheduler jitter
// between run_once calls as a queue thread is about completion
// latency. Returns an error if affinity could not be set; the loop
// should log and continue unpinned rather than fail.
func PinCurrentGoroutine(cpu int) error {
	// Locked for the remaining lifetime of the goroutine: the main
	// loop never returns, so there is no matching UnlockOSThread.
	runtime.LockOSThread()
	var mask unix.CPUSet
	mask.Set(cpu)
	return unix.SchedSetaffinity(0, &mask)
}

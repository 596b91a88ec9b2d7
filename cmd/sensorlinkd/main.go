// Command sensorlinkd runs a hosted sensorlink pipeline: it opens a
// serial transport, wires up a platform clock, and drives the
// packetizer loop until interrupted. It exists for development and
// integration testing on a Linux host; the production target is the
// bare-metal firmware that links internal/ring, internal/packetizer,
// and internal/comm directly against internal/platform.Stub.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sensorlink "github.com/arlo-embedded/sensorlink"
	"github.com/arlo-embedded/sensorlink/internal/diag"
	"github.com/arlo-embedded/sensorlink/internal/logging"
	"github.com/arlo-embedded/sensorlink/internal/platform"
	"github.com/arlo-embedded/sensorlink/internal/transport/serial"
)

func main() {
	var (
		serialDevice   = flag.String("serial-device", "", "Serial device path (empty autodetects)")
		baudRate       = flag.Int("baud", 115200, "Serial baud rate")
		// The production default overrides the packetizer's own
		// compile-time default (sensorlink.DefaultAgeMs, 20ms): the
		// deployed main loop runs the radio link at a tighter 10ms
		// batching window.
		ageThresholdMs = flag.Uint("age-threshold", 10, "Packetizer age-based flush threshold, in milliseconds")
		cpuAffinity    = flag.Int("cpu-affinity", -1, "Pin the main loop to this CPU core (-1 disables pinning)")
		diagnosticsLog = flag.String("diagnostics-log", "", "Path to a rotating diagnostics log (empty disables)")
		verbose        = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	if *cpuAffinity >= 0 {
		if err := platform.PinCurrentGoroutine(*cpuAffinity); err != nil {
			logger.Warn("failed to pin main loop to cpu", "cpu", *cpuAffinity, "error", err)
		} else {
			logger.Info("pinned main loop", "cpu", *cpuAffinity)
		}
	}

	link, err := serial.Open(*serialDevice, *baudRate)
	if err != nil {
		logger.Error("failed to open serial transport", "error", err)
		os.Exit(1)
	}
	defer link.Close()

	var diagSink *diag.Sink
	if *diagnosticsLog != "" {
		diagSink, err = diag.NewDailySink(*diagnosticsLog)
		if err != nil {
			logger.Error("failed to open diagnostics log", "path", *diagnosticsLog, "error", err)
			os.Exit(1)
		}
		defer diagSink.Close()
	}

	hostPlatform := platform.NewHosted()
	params := sensorlink.DefaultParams(hostPlatform, link)
	params.Logger = logger
	params.AgeThresholdMs = uint32(*ageThresholdMs)

	pipeline := sensorlink.New(params)
	for id := uint8(0); id < sensorlink.MaxSensors; id++ {
		pipeline.RegisterSensor(id)
	}

	logger.Info("pipeline starting",
		"serial_device", *serialDevice,
		"baud", *baudRate,
		"age_threshold_ms", *ageThresholdMs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipeline.Start(ctx)

	if diagSink != nil {
		go runDiagnosticsLoop(ctx, pipeline, diagSink)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")
	cancel()
	pipeline.Stop()

	stats := pipeline.PacketizerStats()
	fmt.Printf("packets sent: %d, packets failed: %d, final seq_num: %d\n",
		stats.PacketsSent, stats.PacketsFailed, stats.SeqNum)
}

// runDiagnosticsLoop periodically records ring and packetizer counters
// to the diagnostics sink until ctx is cancelled.
func runDiagnosticsLoop(ctx context.Context, p *sensorlink.Pipeline, sink *diag.Sink) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := diag.Snapshot{
				Ring:       p.RingStats(),
				Packetizer: p.PacketizerStats(),
			}
			if err := sink.Record(snap); err != nil {
				logging.Default().Warnf("diagnostics record failed: %v", err)
			}
		}
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os/signal"
	"sync"
	"syscall"
	"time"

	radardist "github.com/DynamicDevices/radar-distance"
)

// syntheticSource emits radar-style lines without any hardware: a sine wave
// of distances with a short occupancy gap, the way a person pacing in front
// of a sensor would look.
type syntheticSource struct {
	mu   sync.Mutex
	out  chan<- radardist.RawLine
	stop chan struct{}
}

func (s *syntheticSource) Start(out chan<- radardist.RawLine) error {
	s.mu.Lock()
	s.out = out
	s.stop = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(out)
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()

		out <- radardist.RawLine{
			Timestamp: time.Now(),
			Channel:   radardist.ChannelStdout,
			Text:      "Chip ID: 0xDEADBEEF XM125",
		}

		i := 0
		for {
			select {
			case <-s.stop:
				return
			case now := <-ticker.C:
				i++
				text := "0 0.000"
				if i%25 != 0 { // brief absence every 5s
					dist := 1.2 + 0.4*math.Sin(float64(i)/10)
					text = fmt.Sprintf("1 %.3f", dist)
				}
				out <- radardist.RawLine{Timestamp: now, Channel: radardist.ChannelStdout, Text: text}
			}
		}
	}()
	return nil
}

func (s *syntheticSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	return nil
}

func main() {
	cfg := &radardist.Config{}
	cfg.ApplyDefaults()

	monitor, err := radardist.NewMonitor(cfg,
		radardist.WithSource("sim-1", "simulator", &syntheticSource{}),
	)
	if err != nil {
		log.Fatalf("build monitor: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("snapshot API on :8080, metrics on :9100")
	if err := monitor.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("monitor exited: %v", err)
	}
}

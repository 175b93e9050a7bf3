package execstream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/DynamicDevices/radar-distance/internal/domain"
	"github.com/DynamicDevices/radar-distance/internal/ports"
)

// Config describes a local command whose output is treated as a sensor
// stream. Useful for bench setups where the sensor binary runs on the
// monitor host itself, and for replaying captured output in tests.
type Config struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

func (c *Config) Validate() error {
	if c.Command == "" {
		return errors.New("command is required")
	}
	return nil
}

// Source runs a local command and forwards its stdout and stderr lines.
type Source struct {
	cfg Config

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(cfg Config) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Source{cfg: cfg}, nil
}

func (s *Source) Start(out chan<- domain.RawLine) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("exec source already started")
	}
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, s.cfg.Command, s.cfg.Args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("exec stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("exec stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("exec start %q: %w", s.cfg.Command, err)
	}

	s.mu.Lock()
	s.cancel = cancel
	s.started = true
	s.mu.Unlock()

	s.wg.Add(2)
	go s.scan(stdout, domain.ChannelStdout, out)
	go s.scan(stderr, domain.ChannelStderr, out)

	go func() {
		s.wg.Wait()
		_ = cmd.Wait()
		close(out)
	}()
	return nil
}

func (s *Source) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.started = false
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	return nil
}

func (s *Source) scan(r io.Reader, ch domain.Channel, out chan<- domain.RawLine) {
	defer s.wg.Done()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		out <- domain.RawLine{Timestamp: time.Now(), Channel: ch, Text: text}
	}
}

var _ ports.StreamSource = (*Source)(nil)

package sshstream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/DynamicDevices/radar-distance/internal/domain"
	"github.com/DynamicDevices/radar-distance/internal/ports"
)

// Config captures the session details for one monitored host.
type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	Command        string        `yaml:"command"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 22
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Username == "" {
		return errors.New("username is required")
	}
	if c.Command == "" {
		return errors.New("command is required")
	}
	return nil
}

// Source runs a remote command over SSH and forwards its stdout and stderr
// lines, tagged by channel. A broken session is terminal: the output channel
// is closed and the session is never re-established.
type Source struct {
	cfg Config

	mu      sync.Mutex
	started bool
	client  *ssh.Client
	session *ssh.Session
	wg      sync.WaitGroup
}

func New(cfg Config) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Source{cfg: cfg}, nil
}

func (s *Source) Start(out chan<- domain.RawLine) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("ssh source already started")
	}
	s.mu.Unlock()

	// Sensor hosts are provisioned without distributing known_hosts to the
	// monitor, hence the insecure host key callback.
	clientCfg := &ssh.ClientConfig{
		User:            s.cfg.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(s.cfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         s.cfg.ConnectTimeout,
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	client, err := ssh.Dial("tcp", addr, clientCfg)
	if err != nil {
		return fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	session, err := client.NewSession()
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("ssh session: %w", err)
	}

	// The sensor binary runs under sudo and refuses to start without a PTY.
	if err := session.RequestPty("xterm", 40, 80, ssh.TerminalModes{}); err != nil {
		_ = session.Close()
		_ = client.Close()
		return fmt.Errorf("ssh request pty: %w", err)
	}

	stdout, err := session.StdoutPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return fmt.Errorf("ssh stdout pipe: %w", err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return fmt.Errorf("ssh stderr pipe: %w", err)
	}

	if err := session.Start(s.cfg.Command); err != nil {
		_ = session.Close()
		_ = client.Close()
		return fmt.Errorf("ssh start %q: %w", s.cfg.Command, err)
	}

	s.mu.Lock()
	s.client = client
	s.session = session
	s.started = true
	s.mu.Unlock()

	s.wg.Add(2)
	go s.scan(stdout, domain.ChannelStdout, out)
	go s.scan(stderr, domain.ChannelStderr, out)

	go func() {
		s.wg.Wait()
		_ = session.Wait()
		close(out)
	}()
	return nil
}

// Stop tears the session down, which unblocks both scanners at their next
// read; the output channel closes once they drain.
func (s *Source) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	session := s.session
	client := s.client
	s.started = false
	s.session = nil
	s.client = nil
	s.mu.Unlock()

	var err error
	if session != nil {
		if e := session.Close(); e != nil && !errors.Is(e, io.EOF) {
			err = errors.Join(err, e)
		}
	}
	if client != nil {
		if e := client.Close(); e != nil {
			err = errors.Join(err, e)
		}
	}

	s.wg.Wait()
	return err
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

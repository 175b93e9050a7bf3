package mqttstream

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/DynamicDevices/radar-distance/internal/domain"
	"github.com/DynamicDevices/radar-distance/internal/ports"
)

// Config describes an MQTT subscription carrying sensor output. Each
// message payload holds one or more newline-separated sensor lines, exactly
// as the firmware would print them on a serial console.
type Config struct {
	Broker         string        `yaml:"broker"`
	Topic          string        `yaml:"topic"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	QoS            byte          `yaml:"qos"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "radar-distance-monitor"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.Broker == "" {
		return errors.New("broker is required")
	}
	if c.Topic == "" {
		return errors.New("topic is required")
	}
	return nil
}

// Source subscribes to one topic and forwards payload lines. A lost
// connection is terminal, matching the no-retry contract of the other
// transports: auto-reconnect is disabled and the output channel closes.
type Source struct {
	cfg Config

	mu      sync.Mutex
	started bool
	closed  bool
	client  mqtt.Client
	out     chan<- domain.RawLine
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
		return fmt.Errorf("mqtt source already started")
	}
	s.out = out
	s.mu.Unlock()

	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetAutoReconnect(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.closeOut()
		})
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username).SetPassword(s.cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(s.cfg.ConnectTimeout) {
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect %s: timeout", s.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", s.cfg.Broker, err)
	}

	sub := client.Subscribe(s.cfg.Topic, s.cfg.QoS, s.onMessage)
	if !sub.WaitTimeout(s.cfg.ConnectTimeout) || sub.Error() != nil {
		client.Disconnect(250)
		if sub.Error() != nil {
			return fmt.Errorf("mqtt subscribe %s: %w", s.cfg.Topic, sub.Error())
		}
		return fmt.Errorf("mqtt subscribe %s: timeout", s.cfg.Topic)
	}

	s.mu.Lock()
	s.client = client
	s.started = true
	s.mu.Unlock()
	return nil
}

func (s *Source) onMessage(_ mqtt.Client, msg mqtt.Message) {
	now := time.Now()

	// The send happens under the lock so Stop cannot close the channel
	// between the closed check and the send. The aggregation side keeps
	// draining until close, so the send always completes.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, text := range strings.Split(string(msg.Payload()), "\n") {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		s.out <- domain.RawLine{Timestamp: now, Channel: domain.ChannelStdout, Text: text}
	}
}

func (s *Source) Stop() error {
	s.mu.Lock()
	client := s.client
	s.started = false
	s.client = nil
	s.mu.Unlock()

	if client != nil {
		client.Unsubscribe(s.cfg.Topic)
		client.Disconnect(250)
	}
	s.closeOut()
	return nil
}

func (s *Source) closeOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.out == nil {
		return
	}
	s.closed = true
	close(s.out)
}

var _ ports.StreamSource = (*Source)(nil)

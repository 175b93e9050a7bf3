package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DynamicDevices/radar-distance/internal/adapters/execstream"
	"github.com/DynamicDevices/radar-distance/internal/adapters/mqttstream"
	"github.com/DynamicDevices/radar-distance/internal/adapters/sshstream"
	"github.com/DynamicDevices/radar-distance/internal/liveness"
	"github.com/DynamicDevices/radar-distance/internal/window"
)

// Duration wraps time.Duration so YAML configs can use human-readable
// values like "120s" or "1h30m" instead of raw nanosecond integers.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

type Config struct {
	Sources  []SourceConfig `yaml:"sources"`
	Window   WindowConfig   `yaml:"window"`
	Liveness LivenessConfig `yaml:"liveness"`
	Tick     TickConfig     `yaml:"tick"`
	Decoder  DecoderConfig  `yaml:"decoder"`
	Sidecar  SidecarConfig  `yaml:"sidecar"`
	Archive  ArchiveConfig  `yaml:"archive"`
	HTTP     HTTPConfig     `yaml:"http"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Viewport ViewportConfig `yaml:"viewport"`
}

// SourceConfig describes one sensor stream. Exactly one transport
// section is honored, selected by Transport.
type SourceConfig struct {
	ID        string            `yaml:"id"`
	Tag       string            `yaml:"tag"`
	Transport string            `yaml:"transport"`
	SSH       sshstream.Config  `yaml:"ssh"`
	Exec      execstream.Config `yaml:"exec"`
	MQTT      mqttstream.Config `yaml:"mqtt"`
}

type WindowConfig struct {
	Length Duration `yaml:"length"`
}

type LivenessConfig struct {
	Timeout Duration `yaml:"timeout"`
}

type TickConfig struct {
	Interval Duration `yaml:"interval"`
}

type DecoderConfig struct {
	ExtraBenign []string `yaml:"extra_benign"`
}

type SidecarConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Dir           string   `yaml:"dir"`
	FallbackAfter Duration `yaml:"fallback_after"`
}

type ArchiveConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type ViewportConfig struct {
	MinDuration Duration `yaml:"min_duration"`
	MaxDuration Duration `yaml:"max_duration"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Window.Length.Duration == 0 {
		c.Window.Length.Duration = window.DefaultLength
	}
	if c.Liveness.Timeout.Duration == 0 {
		c.Liveness.Timeout.Duration = liveness.DefaultTimeout
	}
	if c.Tick.Interval.Duration == 0 {
		c.Tick.Interval.Duration = 100 * time.Millisecond
	}
	if c.Sidecar.Dir == "" {
		c.Sidecar.Dir = "."
	}
	if c.Sidecar.FallbackAfter.Duration == 0 {
		c.Sidecar.FallbackAfter.Duration = 30 * time.Second
	}
	if c.Archive.Table == "" {
		c.Archive.Table = "radar_samples"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Viewport.MinDuration.Duration == 0 {
		c.Viewport.MinDuration.Duration = 10 * time.Second
	}
	if c.Viewport.MaxDuration.Duration == 0 {
		c.Viewport.MaxDuration.Duration = time.Hour
	}

	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Transport == "" {
			src.Transport = "ssh"
		}
		if src.Tag == "" {
			src.Tag = src.ID
		}
		switch src.Transport {
		case "ssh":
			src.SSH.ApplyDefaults()
		case "mqtt":
			src.MQTT.ApplyDefaults()
		}
	}
}

func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}

	seen := make(map[string]bool, len(c.Sources))
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.ID == "" {
			return fmt.Errorf("sources[%d]: id is required", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("duplicate source id %q", src.ID)
		}
		seen[src.ID] = true

		switch src.Transport {
		case "ssh":
			if err := src.SSH.Validate(); err != nil {
				return fmt.Errorf("source %q ssh config: %w", src.ID, err)
			}
		case "exec":
			if err := src.Exec.Validate(); err != nil {
				return fmt.Errorf("source %q exec config: %w", src.ID, err)
			}
		case "mqtt":
			if err := src.MQTT.Validate(); err != nil {
				return fmt.Errorf("source %q mqtt config: %w", src.ID, err)
			}
		default:
			return fmt.Errorf("source %q: unknown transport %q", src.ID, src.Transport)
		}
	}

	if c.Window.Length.Duration <= 0 {
		return fmt.Errorf("window.length must be positive")
	}
	if c.Liveness.Timeout.Duration <= 0 {
		return fmt.Errorf("liveness.timeout must be positive")
	}
	if c.Tick.Interval.Duration <= 0 {
		return fmt.Errorf("tick.interval must be positive")
	}
	if c.Viewport.MinDuration.Duration > c.Viewport.MaxDuration.Duration {
		return fmt.Errorf("viewport.min_duration exceeds viewport.max_duration")
	}
	return nil
}

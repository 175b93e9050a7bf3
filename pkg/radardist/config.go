package radardist

import (
	"github.com/DynamicDevices/radar-distance/internal/adapters/execstream"
	"github.com/DynamicDevices/radar-distance/internal/adapters/mqttstream"
	"github.com/DynamicDevices/radar-distance/internal/adapters/sshstream"
	"github.com/DynamicDevices/radar-distance/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// SourceConfig describes one sensor stream and its transport.
	SourceConfig = config.SourceConfig
	// SSHConfig configures the SSH transport.
	SSHConfig = sshstream.Config
	// ExecConfig configures the local-process transport.
	ExecConfig = execstream.Config
	// MQTTConfig configures the MQTT transport.
	MQTTConfig = mqttstream.Config
	// WindowConfig bounds the sliding series.
	WindowConfig = config.WindowConfig
	// LivenessConfig sets the silence timeout.
	LivenessConfig = config.LivenessConfig
	// SidecarConfig configures the per-source CSV sample logs.
	SidecarConfig = config.SidecarConfig
	// ArchiveConfig configures the Postgres sample archive.
	ArchiveConfig = config.ArchiveConfig
	// HTTPConfig configures the snapshot API server.
	HTTPConfig = config.HTTPConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// ViewportConfig bounds viewport durations.
	ViewportConfig = config.ViewportConfig
	// Duration is a time.Duration that unmarshals from YAML strings like "120s".
	Duration = config.Duration
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Conf loads a config file and builds a Monitor from it in one call.
func Conf(path string, opts ...MonitorOption) (*Monitor, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return NewMonitor(cfg, opts...)
}

package radardist

import (
	"time"

	base "github.com/DynamicDevices/radar-distance/pkg/radardist"
)

// Type aliases so consumers can import github.com/DynamicDevices/radar-distance directly.
type (
	Config         = base.Config
	SourceConfig   = base.SourceConfig
	SSHConfig      = base.SSHConfig
	ExecConfig     = base.ExecConfig
	MQTTConfig     = base.MQTTConfig
	WindowConfig   = base.WindowConfig
	LivenessConfig = base.LivenessConfig
	SidecarConfig  = base.SidecarConfig
	ArchiveConfig  = base.ArchiveConfig
	HTTPConfig     = base.HTTPConfig
	MetricsConfig  = base.MetricsConfig
	ViewportConfig = base.ViewportConfig
	Duration       = base.Duration

	Monitor       = base.Monitor
	MonitorOption = base.MonitorOption
	Snapshot      = base.Snapshot
	SourceView    = base.SourceView
	Viewport      = base.Viewport
	Point         = base.Point

	Sample         = base.Sample
	RawLine        = base.RawLine
	DeviceIdentity = base.DeviceIdentity
	Channel        = base.Channel
	LivenessState  = base.LivenessState

	StreamSource  = base.StreamSource
	SampleLog     = base.SampleLog
	LogOpener     = base.LogOpener
	SampleRecord  = base.SampleRecord
	Observability = base.Observability
	Field         = base.Field
)

// Liveness states and output channels.
const (
	StateConnecting   = base.StateConnecting
	StateConnected    = base.StateConnected
	StateDisconnected = base.StateDisconnected

	ChannelStdout = base.ChannelStdout
	ChannelStderr = base.ChannelStderr
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Conf loads a config file and builds a Monitor from it in one call.
func Conf(path string, opts ...MonitorOption) (*Monitor, error) {
	return base.Conf(path, opts...)
}

// Monitor lifecycle and options.
func NewMonitor(cfg *Config, opts ...MonitorOption) (*Monitor, error) {
	return base.NewMonitor(cfg, opts...)
}

func WithSource(id, tag string, src StreamSource) MonitorOption {
	return base.WithSource(id, tag, src)
}

func WithObservability(obs Observability) MonitorOption {
	return base.WithObservability(obs)
}

func WithLogOpener(op LogOpener) MonitorOption {
	return base.WithLogOpener(op)
}

func WithStart(t time.Time) MonitorOption {
	return base.WithStart(t)
}

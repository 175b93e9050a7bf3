package radardist

import (
	"time"

	"github.com/DynamicDevices/radar-distance/internal/ports"
)

// MonitorOption customizes the dependencies used by Monitor.
type MonitorOption func(*monitorOverrides)

type injectedSource struct {
	id, tag string
	src     ports.StreamSource
}

type monitorOverrides struct {
	sources       []injectedSource
	observability Observability
	opener        LogOpener
	start         time.Time
}

// WithSource injects an extra stream source (simulators, replay files,
// custom transports) alongside the configured ones.
func WithSource(id, tag string, src StreamSource) MonitorOption {
	return func(o *monitorOverrides) {
		o.sources = append(o.sources, injectedSource{id: id, tag: tag, src: src})
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) MonitorOption {
	return func(o *monitorOverrides) {
		o.observability = obs
	}
}

// WithLogOpener overrides the sample log destination, bypassing the
// configured sidecar and archive selection.
func WithLogOpener(op LogOpener) MonitorOption {
	return func(o *monitorOverrides) {
		o.opener = op
	}
}

// WithStart pins the monitor epoch; series times are seconds since this
// instant. Defaults to time.Now().
func WithStart(t time.Time) MonitorOption {
	return func(o *monitorOverrides) {
		o.start = t
	}
}

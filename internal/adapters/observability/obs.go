package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DynamicDevices/radar-distance/internal/ports"
)

// Obs implements the Observability port with slog for structured logs and
// Prometheus for metrics. Components emit events and counters through the
// port; sink and formatting stay a deployment decision.
type Obs struct {
	log      *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// New registers the monitor's metrics with the default registerer. Pass nil
// to log through slog.Default.
func New(logger *slog.Logger) *Obs {
	if logger == nil {
		logger = slog.Default()
	}

	lines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "radar_lines_total",
		Help: "Raw lines received across all sources.",
	})
	samples := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "radar_samples_total",
		Help: "Lines decoded into presence/distance samples.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "radar_rejected_lines_total",
		Help: "Lines that failed to decode, excluding known benign output.",
	})
	sidecarErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "radar_sidecar_errors_total",
		Help: "Sample log open/write failures.",
	})
	connected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "radar_sources_connected",
		Help: "Sources currently in the connected state.",
	})
	tick := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "radar_tick_duration_seconds",
		Help:    "Duration of one aggregation tick.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	prometheus.MustRegister(lines, samples, rejected, sidecarErrs, connected, tick)

	return &Obs{
		log: logger,
		counters: map[string]prometheus.Counter{
			"radar_lines_total":          lines,
			"radar_samples_total":        samples,
			"radar_rejected_lines_total": rejected,
			"radar_sidecar_errors_total": sidecarErrs,
		},
		gauges: map[string]prometheus.Gauge{
			"radar_sources_connected": connected,
		},
		histos: map[string]prometheus.Observer{
			"radar_tick_duration_seconds": tick,
		},
	}
}

func (o *Obs) LogInfo(msg string, fields ...ports.Field) {
	o.log.Info(msg, attrs(nil, fields)...)
}

func (o *Obs) LogWarn(msg string, err error, fields ...ports.Field) {
	o.log.Warn(msg, attrs(err, fields)...)
}

func (o *Obs) LogError(msg string, err error, fields ...ports.Field) {
	o.log.Error(msg, attrs(err, fields)...)
}

func (o *Obs) IncCounter(name string, v float64) {
	if c, ok := o.counters[name]; ok {
		c.Add(v)
	}
}

func (o *Obs) SetGauge(name string, v float64) {
	if g, ok := o.gauges[name]; ok {
		g.Set(v)
	}
}

func (o *Obs) ObserveLatency(name string, seconds float64) {
	if h, ok := o.histos[name]; ok {
		h.Observe(seconds)
	}
}

func attrs(err error, fields []ports.Field) []any {
	out := make([]any, 0, 2*len(fields)+2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	if err != nil {
		out = append(out, "error", err)
	}
	return out
}

var _ ports.Observability = (*Obs)(nil)

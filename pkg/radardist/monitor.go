package radardist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/DynamicDevices/radar-distance/internal/adapters/archive"
	"github.com/DynamicDevices/radar-distance/internal/adapters/execstream"
	"github.com/DynamicDevices/radar-distance/internal/adapters/mqttstream"
	"github.com/DynamicDevices/radar-distance/internal/adapters/observability"
	"github.com/DynamicDevices/radar-distance/internal/adapters/sidecar"
	"github.com/DynamicDevices/radar-distance/internal/adapters/sshstream"
	"github.com/DynamicDevices/radar-distance/internal/decode"
	"github.com/DynamicDevices/radar-distance/internal/ingest"
	"github.com/DynamicDevices/radar-distance/internal/ports"
	"github.com/DynamicDevices/radar-distance/internal/window"
)

// Snapshot is the aggregate read-only view served to consumers. Now is
// seconds since the monitor epoch.
type Snapshot struct {
	Now     float64               `json:"now"`
	Frozen  bool                  `json:"frozen"`
	Sources map[string]SourceView `json:"sources"`
}

// Monitor wires stream sources into the ingestion multiplexer and runs the
// aggregation tick, the snapshot API, and the metrics endpoint. It is the
// embedding surface for the whole pipeline: construct with NewMonitor, then
// either Start/Shutdown or Run with a context.
type Monitor struct {
	cfg     *Config
	obs     ports.Observability
	mux     *ingest.Multiplexer
	epoch   time.Time
	db      *sql.DB
	pending []injectedSource

	httpSrv    *http.Server
	metricsSrv *http.Server

	// Consumer requests land here and are applied by the tick goroutine,
	// which is the only caller of multiplexer methods after Start.
	reqMu      sync.Mutex
	wantFrozen bool
	viewport   *window.Viewport

	snapMu sync.RWMutex
	snap   Snapshot

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewMonitor bootstraps the default adapters: transports built from the
// config's source list, slog+Prometheus observability, and the sidecar CSV
// or Postgres archive sample logs. MonitorOption values override any of
// them.
func NewMonitor(cfg *Config, opts ...MonitorOption) (*Monitor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides monitorOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.New(slog.Default())
	}

	m := &Monitor{
		cfg:    cfg,
		obs:    obs,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	opener := overrides.opener
	if opener == nil {
		var err error
		opener, err = m.buildOpener()
		if err != nil {
			return nil, err
		}
	}

	m.epoch = overrides.start
	if m.epoch.IsZero() {
		m.epoch = time.Now()
	}

	m.mux = ingest.New(ingest.Config{
		Start:            m.epoch,
		WindowLength:     cfg.Window.Length.Duration,
		LivenessTimeout:  cfg.Liveness.Timeout.Duration,
		LogFallbackAfter: cfg.Sidecar.FallbackAfter.Duration,
		ViewportMin:      cfg.Viewport.MinDuration.Duration,
		ViewportMax:      cfg.Viewport.MaxDuration.Duration,
		Decoder:          decode.New(cfg.Decoder.ExtraBenign...),
		Opener:           opener,
		Obs:              obs,
	})

	for _, src := range cfg.Sources {
		stream, err := buildSource(src)
		if err != nil {
			m.closeDB()
			return nil, fmt.Errorf("source %q: %w", src.ID, err)
		}
		m.pending = append(m.pending, injectedSource{id: src.ID, tag: src.Tag, src: stream})
	}
	m.pending = append(m.pending, overrides.sources...)

	m.snap = Snapshot{Sources: map[string]SourceView{}}
	return m, nil
}

// buildOpener selects the sample log destination: sidecar CSV files when
// enabled, otherwise the Postgres archive when a connection string is set,
// otherwise no logging at all.
func (m *Monitor) buildOpener() (ports.LogOpener, error) {
	if m.cfg.Sidecar.Enabled {
		return sidecar.NewCSVOpener(m.cfg.Sidecar.Dir), nil
	}
	if m.cfg.Archive.ConnString != "" {
		db, err := sql.Open("postgres", m.cfg.Archive.ConnString)
		if err != nil {
			return nil, err
		}
		m.db = db
		return archive.New(db, m.cfg.Archive.Table), nil
	}
	return nil, nil
}

func buildSource(src SourceConfig) (ports.StreamSource, error) {
	switch src.Transport {
	case "ssh":
		return sshstream.New(src.SSH)
	case "exec":
		return execstream.New(src.Exec)
	case "mqtt":
		return mqttstream.New(src.MQTT)
	default:
		return nil, fmt.Errorf("unknown transport %q", src.Transport)
	}
}

// Start registers every source and launches the tick loop and HTTP servers.
// It returns immediately; call Run to block on a context instead.
func (m *Monitor) Start() error {
	if m == nil {
		return fmt.Errorf("monitor is nil")
	}

	m.registerSources()
	go m.run()
	m.startServers()
	return nil
}

// registerSources starts every pending source. A source that fails to
// start is logged and skipped; the monitor keeps running with the rest.
func (m *Monitor) registerSources() {
	for _, p := range m.pending {
		if err := m.mux.Register(p.id, p.tag, p.src); err != nil {
			m.obs.LogError("source_register_failed", err, Field{Key: "source", Value: p.id})
		}
	}
	m.pending = nil
}

// Run starts the monitor and blocks until the provided context is
// cancelled, then attempts a graceful shutdown.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Shutdown(shutdownCtx)
}

// Shutdown stops the tick loop, the HTTP servers, every stream source, and
// the archive connection.
func (m *Monitor) Shutdown(ctx context.Context) error {
	var errs []error

	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	select {
	case <-m.doneCh:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}

	if m.httpSrv != nil {
		if err := m.httpSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	if m.metricsSrv != nil {
		if err := m.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if err := m.mux.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := m.closeDB(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (m *Monitor) closeDB() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

// run is the aggregation tick loop. It is the sole goroutine that touches
// the multiplexer after Start.
func (m *Monitor) run() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.cfg.Tick.Interval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case now := <-ticker.C:
			m.step(now)
		}
	}
}

// step applies pending freeze requests, advances the multiplexer, and
// refreshes the cached snapshot served to consumers.
func (m *Monitor) step(now time.Time) {
	m.reqMu.Lock()
	wantFrozen := m.wantFrozen
	var vp *window.Viewport
	if m.viewport != nil {
		v := *m.viewport
		vp = &v
	}
	m.reqMu.Unlock()

	if wantFrozen != m.mux.Frozen() {
		if wantFrozen {
			m.mux.Freeze()
		} else {
			m.mux.Unfreeze()
		}
	}

	started := time.Now()
	m.mux.Tick(now)
	snap := Snapshot{
		Now:     now.Sub(m.epoch).Seconds(),
		Frozen:  m.mux.Frozen(),
		Sources: m.mux.Snapshot(now, vp),
	}
	m.obs.ObserveLatency("radar_tick_duration_seconds", time.Since(started).Seconds())

	m.snapMu.Lock()
	m.snap = snap
	m.snapMu.Unlock()
}

// GetSnapshot returns the snapshot cached by the most recent tick. It is
// safe from any goroutine.
func (m *Monitor) GetSnapshot() Snapshot {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	return m.snap
}

// Freeze requests unbounded retention for scroll-back. It takes effect on
// the next tick.
func (m *Monitor) Freeze() {
	m.reqMu.Lock()
	m.wantFrozen = true
	m.reqMu.Unlock()
}

// Unfreeze resumes sliding retention and discards the viewport.
func (m *Monitor) Unfreeze() {
	m.reqMu.Lock()
	m.wantFrozen = false
	m.viewport = nil
	m.reqMu.Unlock()
}

// SetViewport selects the visible subrange while frozen. Bounds are
// enforced at snapshot time against the configured duration limits.
func (m *Monitor) SetViewport(vp Viewport) {
	m.reqMu.Lock()
	m.viewport = &vp
	m.reqMu.Unlock()
}

// CurrentViewport returns the requested viewport, or false when none is
// set.
func (m *Monitor) CurrentViewport() (Viewport, bool) {
	m.reqMu.Lock()
	defer m.reqMu.Unlock()
	if m.viewport == nil {
		return Viewport{}, false
	}
	return *m.viewport, true
}

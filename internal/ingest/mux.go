package ingest

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DynamicDevices/radar-distance/internal/decode"
	"github.com/DynamicDevices/radar-distance/internal/domain"
	"github.com/DynamicDevices/radar-distance/internal/liveness"
	"github.com/DynamicDevices/radar-distance/internal/ports"
	"github.com/DynamicDevices/radar-distance/internal/window"
)

// Config wires the multiplexer's collaborators and policies.
type Config struct {
	// Start is the monitor epoch; all series times are seconds since Start.
	Start time.Time

	WindowLength    time.Duration
	LivenessTimeout time.Duration

	// LogFallbackAfter opens an identity-less sample log (host-derived name)
	// once a source has been producing samples this long without a chip-id
	// line. Zero disables the fallback and such sources are never logged.
	LogFallbackAfter time.Duration

	// ViewportMin and ViewportMax bound viewport durations during frozen
	// snapshots; zero values select the window package defaults.
	ViewportMin time.Duration
	ViewportMax time.Duration

	Decoder *decode.Decoder
	Opener  ports.LogOpener // nil disables sample logging
	Obs     ports.Observability
}

// SourceView is one source's slice of an aggregate snapshot. All fields are
// copies; holding a view never aliases multiplexer state.
type SourceView struct {
	Tag           string                 `json:"tag"`
	Status        domain.LivenessState   `json:"status"`
	StatusChanged bool                   `json:"status_changed"`
	Running       bool                   `json:"running"`
	Series        []window.Point         `json:"series"`
	LastLine      *domain.RawLine        `json:"last_line,omitempty"`
	LastSample    *domain.Sample         `json:"last_sample,omitempty"`
	Identity      *domain.DeviceIdentity `json:"identity,omitempty"`
}

// Multiplexer fans in every registered stream source. One goroutine per
// source decodes lines into a per-source queue; a single external tick
// drains the queues and is the sole mutator of window and liveness state, so
// those structures need no locks by construction.
//
// Register may be called from any goroutine. Tick, Snapshot, Freeze,
// Unfreeze and Close must all come from the one aggregation goroutine.
type Multiplexer struct {
	cfg     Config
	tracker *liveness.Tracker
	obs     ports.Observability

	mu      sync.Mutex // guards sources/order against Register racing the tick
	order   []string
	sources map[string]*sourceState
	frozen  bool
}

type sourceState struct {
	id, tag string
	stream  ports.StreamSource
	queue   *eventQueue
	buffer  *window.Buffer
	running atomic.Bool

	// Everything below is owned by the aggregation tick.
	lastLine      *domain.RawLine
	lastSample    *domain.Sample
	identity      *domain.DeviceIdentity
	firstSample   time.Time
	log           ports.SampleLog
	logDead       bool
	status        domain.LivenessState
	statusChanged bool
}

func New(cfg Config) *Multiplexer {
	if cfg.Start.IsZero() {
		cfg.Start = time.Now()
	}
	if cfg.WindowLength <= 0 {
		cfg.WindowLength = window.DefaultLength
	}
	if cfg.Decoder == nil {
		cfg.Decoder = decode.New()
	}
	if cfg.Obs == nil {
		cfg.Obs = ports.NopObservability{}
	}
	return &Multiplexer{
		cfg:     cfg,
		tracker: liveness.New(cfg.LivenessTimeout),
		obs:     cfg.Obs,
		sources: make(map[string]*sourceState),
	}
}

// Register starts the stream source and its reader goroutine. A transport
// failure is terminal for this source only: it is logged and the source is
// left in its initial connecting state, but the error is also returned so
// callers can surface it.
func (m *Multiplexer) Register(id, tag string, src ports.StreamSource) error {
	if tag == "" {
		tag = id
	}
	st := &sourceState{
		id:     id,
		tag:    tag,
		stream: src,
		queue:  &eventQueue{},
		buffer: window.NewBuffer(m.cfg.WindowLength),
		status: domain.StateConnecting,
	}

	m.mu.Lock()
	if _, dup := m.sources[id]; dup {
		m.mu.Unlock()
		return fmt.Errorf("source %q already registered", id)
	}
	if m.frozen {
		st.buffer.Freeze()
	}
	m.sources[id] = st
	m.order = append(m.order, id)
	m.mu.Unlock()

	lines := make(chan domain.RawLine, 64)
	if err := src.Start(lines); err != nil {
		m.obs.LogError("source_start_failed", err, ports.Field{Key: "source", Value: id})
		return fmt.Errorf("start source %q: %w", id, err)
	}
	st.running.Store(true)

	go m.readLines(st, lines)
	return nil
}

// readLines moves raw lines into the source's queue until the stream closes.
// It runs the decoder here, off the aggregation tick, so one verbose source
// cannot slow the tick down.
func (m *Multiplexer) readLines(st *sourceState, lines <-chan domain.RawLine) {
	defer st.running.Store(false)
	for line := range lines {
		st.queue.Push(m.decodeLine(line))
	}
	m.obs.LogInfo("source_stream_ended", ports.Field{Key: "source", Value: st.id})
}

func (m *Multiplexer) decodeLine(line domain.RawLine) event {
	ev := event{line: line}
	if ident, ok := decode.ScanIdentity(line.Text); ok {
		ev.identity = &ident
	}

	presence, raw, err := m.cfg.Decoder.Decode(line.Text)
	if err != nil {
		ev.reject = err
		ev.benign = m.cfg.Decoder.Benign(line.Text)
		return ev
	}
	s := decode.NewSample(line.Timestamp, presence, raw)
	ev.sample = &s
	return ev
}

// Tick drains every source's queue fully and non-blockingly, then advances
// liveness. Presence-true samples are appended to the window series; every
// decoded sample, presence or not, counts toward liveness. Rejected lines
// and diagnostic chatter update the latest-line view but are not data
// arrival: a source emitting only its startup banner stays connecting.
func (m *Multiplexer) Tick(now time.Time) {
	states := m.snapshotStates()
	connected := 0
	for _, st := range states {
		samples := 0
		for _, ev := range st.queue.DrainAll() {
			if ev.sample != nil {
				samples++
			}
			m.consume(st, ev, now)
		}
		m.maybeOpenFallbackLog(st, now)

		state, changed := m.tracker.Observe(st.id, samples > 0, now)
		st.status = state
		st.statusChanged = changed
		if state == domain.StateConnected {
			connected++
		}
	}
	m.obs.SetGauge("radar_sources_connected", float64(connected))
}

func (m *Multiplexer) consume(st *sourceState, ev event, now time.Time) {
	m.obs.IncCounter("radar_lines_total", 1)

	line := ev.line
	st.lastLine = &line

	if ev.identity != nil && st.identity == nil {
		ident := *ev.identity
		st.identity = &ident
		m.obs.LogInfo("device_identity_discovered",
			ports.Field{Key: "source", Value: st.id},
			ports.Field{Key: "chip_id", Value: ident.ChipID},
			ports.Field{Key: "model", Value: ident.Model})
		m.openLog(st, ident)
	}

	if ev.reject != nil {
		if !ev.benign {
			m.obs.IncCounter("radar_rejected_lines_total", 1)
			m.obs.LogWarn("line_rejected", ev.reject,
				ports.Field{Key: "source", Value: st.id},
				ports.Field{Key: "line", Value: line.Text})
		}
		return
	}

	s := *ev.sample
	st.lastSample = &s
	m.obs.IncCounter("radar_samples_total", 1)
	if st.firstSample.IsZero() {
		st.firstSample = s.Timestamp
	}

	rel := s.Timestamp.Sub(m.cfg.Start).Seconds()
	if s.Presence {
		st.buffer.Append(rel, s.Distance)
	}
	m.writeLog(st, s, line.Text, rel)
}

// maybeOpenFallbackLog gives identity-less sources a host-named log once
// they have been producing samples long enough that a chip-id banner is
// clearly not coming. Rows seen before any log is open are dropped.
func (m *Multiplexer) maybeOpenFallbackLog(st *sourceState, now time.Time) {
	if m.cfg.LogFallbackAfter <= 0 || st.identity != nil || st.firstSample.IsZero() {
		return
	}
	if now.Sub(st.firstSample) >= m.cfg.LogFallbackAfter {
		m.openLog(st, domain.DeviceIdentity{})
	}
}

func (m *Multiplexer) openLog(st *sourceState, ident domain.DeviceIdentity) {
	if m.cfg.Opener == nil || st.log != nil || st.logDead {
		return
	}
	log, err := m.cfg.Opener.Open(st.id, st.tag, ident)
	if err != nil {
		m.obs.IncCounter("radar_sidecar_errors_total", 1)
		m.obs.LogError("sample_log_open_failed", err, ports.Field{Key: "source", Value: st.id})
		st.logDead = true
		return
	}
	st.log = log
}

// writeLog appends one row per processed sample. A write failure disables
// logging for this source only; ingestion continues unaffected.
func (m *Multiplexer) writeLog(st *sourceState, s domain.Sample, rawLine string, rel float64) {
	if st.log == nil || st.logDead {
		return
	}
	err := st.log.Write(ports.SampleRecord{
		Timestamp:    s.Timestamp,
		RelativeTime: rel,
		Sample:       s,
		RawLine:      rawLine,
	})
	if err != nil {
		m.obs.IncCounter("radar_sidecar_errors_total", 1)
		m.obs.LogError("sample_log_write_failed", err, ports.Field{Key: "source", Value: st.id})
		st.logDead = true
		_ = st.log.Close()
		st.log = nil
	}
}

// Snapshot builds the read-only aggregate view for consumers. While frozen
// and given a viewport, each series is the viewport subrange; otherwise it
// is the full retained window.
func (m *Multiplexer) Snapshot(now time.Time, vp *window.Viewport) map[string]SourceView {
	rel := now.Sub(m.cfg.Start).Seconds()
	states := m.snapshotStates()

	views := make(map[string]SourceView, len(states))
	for _, st := range states {
		var series []window.Point
		if st.buffer.Frozen() && vp != nil {
			v := vp.Clamp(rel, m.cfg.ViewportMin, m.cfg.ViewportMax)
			series = st.buffer.SnapshotRange(v.Start, v.End())
		} else {
			series = st.buffer.Snapshot()
		}

		view := SourceView{
			Tag:           st.tag,
			Status:        st.status,
			StatusChanged: st.statusChanged,
			Running:       st.running.Load(),
			Series:        series,
		}
		if st.lastLine != nil {
			line := *st.lastLine
			view.LastLine = &line
		}
		if st.lastSample != nil {
			s := *st.lastSample
			view.LastSample = &s
		}
		if st.identity != nil {
			ident := *st.identity
			view.Identity = &ident
		}
		views[st.id] = view
	}
	return views
}

// Freeze switches every buffer to unbounded retention for scroll-back.
func (m *Multiplexer) Freeze() {
	m.mu.Lock()
	m.frozen = true
	m.mu.Unlock()
	for _, st := range m.snapshotStates() {
		st.buffer.Freeze()
	}
}

// Unfreeze resumes sliding retention on every buffer.
func (m *Multiplexer) Unfreeze() {
	m.mu.Lock()
	m.frozen = false
	m.mu.Unlock()
	for _, st := range m.snapshotStates() {
		st.buffer.Unfreeze()
	}
}

// Frozen reports the retention mode.
func (m *Multiplexer) Frozen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frozen
}

// Close stops every stream source and closes every open sample log.
func (m *Multiplexer) Close() error {
	var errs []error
	for _, st := range m.snapshotStates() {
		if st.stream != nil {
			if err := st.stream.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop source %q: %w", st.id, err))
			}
		}
		if st.log != nil {
			if err := st.log.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close log %q: %w", st.id, err))
			}
			st.log = nil
		}
	}
	return errors.Join(errs...)
}

// snapshotStates copies the registration-ordered source list so the tick can
// iterate without holding the lock.
func (m *Multiplexer) snapshotStates() []*sourceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*sourceState, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.sources[id])
	}
	return out
}

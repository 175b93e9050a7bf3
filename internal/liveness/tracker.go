package liveness

import (
	"time"

	"github.com/DynamicDevices/radar-distance/internal/domain"
)

// DefaultTimeout is the silence duration after which a connected source is
// marked disconnected.
const DefaultTimeout = 10 * time.Second

// Tracker infers per-source connectivity purely from data arrival timing.
// It is owned by the aggregation tick and is not safe for concurrent use;
// nothing else may mutate liveness state.
type Tracker struct {
	timeout time.Duration
	sources map[string]*entry
}

type entry struct {
	state     domain.LivenessState
	lastEvent time.Time
}

func New(timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Tracker{timeout: timeout, sources: make(map[string]*entry)}
}

// Observe records whether at least one event arrived for the source since
// the previous tick. It returns the resulting state and whether this call
// changed it; the changed flag is the cheap signal consumers use to skip
// needless status redraws.
//
// An event moves the source to connected from any prior state. Silence only
// matters once connected: a source that has never produced an event stays
// connecting indefinitely, and a disconnected source stays disconnected
// until data flows again.
func (t *Tracker) Observe(id string, hadEvent bool, now time.Time) (domain.LivenessState, bool) {
	e, ok := t.sources[id]
	if !ok {
		e = &entry{state: domain.StateConnecting}
		t.sources[id] = e
	}

	prev := e.state
	if hadEvent {
		e.state = domain.StateConnected
		e.lastEvent = now
	} else if e.state == domain.StateConnected && now.Sub(e.lastEvent) > t.timeout {
		e.state = domain.StateDisconnected
	}
	return e.state, e.state != prev
}

// Status returns the source's current state without advancing time.
// Unobserved sources report connecting.
func (t *Tracker) Status(id string) domain.LivenessState {
	if e, ok := t.sources[id]; ok {
		return e.state
	}
	return domain.StateConnecting
}

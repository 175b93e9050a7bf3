package domain

import "fmt"

// LivenessState is the inferred connectivity of a source, derived purely
// from data arrival timing.
type LivenessState int

const (
	// StateConnecting is the initial state; it persists until the first
	// event arrives, however long that takes.
	StateConnecting LivenessState = iota
	// StateConnected means at least one event arrived within the liveness
	// timeout.
	StateConnected
	// StateDisconnected means a previously connected source has been silent
	// longer than the liveness timeout.
	StateDisconnected
)

func (s LivenessState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state as its name.
func (s LivenessState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON accepts the names produced by MarshalJSON.
func (s *LivenessState) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"connecting"`:
		*s = StateConnecting
	case `"connected"`:
		*s = StateConnected
	case `"disconnected"`:
		*s = StateDisconnected
	default:
		return fmt.Errorf("unknown liveness state %s", data)
	}
	return nil
}

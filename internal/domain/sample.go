package domain

import (
	"fmt"
	"time"
)

// Sample is one decoded presence/distance measurement from a source.
type Sample struct {
	Timestamp   time.Time `json:"ts"`
	Presence    bool      `json:"presence"`
	RawDistance float64   `json:"raw_distance"`
	// Distance is RawDistance when Presence is true and 0.0 otherwise. The
	// zeroing is an invariant of the decoder, not a default.
	Distance float64 `json:"distance"`
}

// RawLine is one line of source output, tagged with the channel it arrived
// on. The latest line per source is kept for live display; full raw output
// only survives in the sample log.
type RawLine struct {
	Timestamp time.Time `json:"ts"`
	Channel   Channel   `json:"channel"`
	Text      string    `json:"text"`
}

// DeviceIdentity is the chip identity a source reports in its startup
// banner. It is discovered at runtime, at most once per source.
type DeviceIdentity struct {
	ChipID string `json:"chip_id"`
	Model  string `json:"model"`
}

// Channel tags which output stream of a source a raw line arrived on.
type Channel int

const (
	ChannelStdout Channel = iota
	ChannelStderr
)

func (c Channel) String() string {
	switch c {
	case ChannelStdout:
		return "stdout"
	case ChannelStderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the channel tag as its name.
func (c Channel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON accepts the names produced by MarshalJSON.
func (c *Channel) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"stdout"`:
		*c = ChannelStdout
	case `"stderr"`:
		*c = ChannelStderr
	default:
		return fmt.Errorf("unknown channel %s", data)
	}
	return nil
}

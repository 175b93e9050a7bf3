package window

import "time"

// Viewport duration bounds for scroll-back inspection.
const (
	MinViewportDuration = 10 * time.Second
	MaxViewportDuration = time.Hour
)

// Viewport selects the visible subrange of a frozen buffer. Start is seconds
// since monitor start; Duration is the visible span in seconds. The viewport
// is owned by the consumer, not the buffer.
type Viewport struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Clamp bounds the viewport to [0, now] and to the [min, max] duration
// range; zero min/max select the defaults.
func (v Viewport) Clamp(now float64, min, max time.Duration) Viewport {
	if min <= 0 {
		min = MinViewportDuration
	}
	if max <= 0 {
		max = MaxViewportDuration
	}
	if v.Duration < min.Seconds() {
		v.Duration = min.Seconds()
	}
	if v.Duration > max.Seconds() {
		v.Duration = max.Seconds()
	}
	if now < 0 {
		now = 0
	}
	if v.Start < 0 {
		v.Start = 0
	}
	if v.Start > now {
		v.Start = now
	}
	return v
}

// End returns the exclusive-ish upper edge of the viewport, Start+Duration.
func (v Viewport) End() float64 { return v.Start + v.Duration }

package window

import (
	"sort"
	"time"
)

// DefaultLength is the sliding retention window.
const DefaultLength = 120 * time.Second

// Point is one plotted measurement: seconds since monitor start and the
// processed distance in meters.
type Point struct {
	Time     float64 `json:"t"`
	Distance float64 `json:"d"`
}

// Buffer is one source's ordered time series with dual retention. While
// sliding, every append evicts points older than the window relative to the
// newest point. Frozen, nothing is evicted so a viewport can scroll back
// through the whole run.
//
// Appends must carry non-decreasing times; a single source is read by one
// goroutine so insertion order is time order. The buffer itself is owned by
// the aggregation tick and is not safe for concurrent use.
type Buffer struct {
	window float64 // seconds
	frozen bool

	// ring deque: the live points are ring[head : head+size] modulo len.
	ring []Point
	head int
	size int
}

func NewBuffer(length time.Duration) *Buffer {
	if length <= 0 {
		length = DefaultLength
	}
	return &Buffer{window: length.Seconds(), ring: make([]Point, 16)}
}

// Append adds a point and, in sliding mode, evicts from the front everything
// older than the window. Eviction cost is proportional to the number of
// points evicted, not the buffer length.
func (b *Buffer) Append(t, distance float64) {
	if b.size == len(b.ring) {
		b.grow()
	}
	b.ring[(b.head+b.size)%len(b.ring)] = Point{Time: t, Distance: distance}
	b.size++
	if !b.frozen {
		b.evict(t - b.window)
	}
}

// EvictOlderThan drops points with time strictly below cutoff. It is a no-op
// while frozen.
func (b *Buffer) EvictOlderThan(cutoff float64) {
	if !b.frozen {
		b.evict(cutoff)
	}
}

func (b *Buffer) evict(cutoff float64) {
	for b.size > 0 && b.ring[b.head].Time < cutoff {
		b.head = (b.head + 1) % len(b.ring)
		b.size--
	}
}

func (b *Buffer) grow() {
	next := make([]Point, 2*len(b.ring))
	for i := 0; i < b.size; i++ {
		next[i] = b.at(i)
	}
	b.ring = next
	b.head = 0
}

func (b *Buffer) at(i int) Point {
	return b.ring[(b.head+i)%len(b.ring)]
}

// Freeze stops eviction so history accumulates for scroll-back.
func (b *Buffer) Freeze() { b.frozen = true }

// Unfreeze resumes sliding retention and immediately evicts the backlog that
// accumulated while frozen.
func (b *Buffer) Unfreeze() {
	b.frozen = false
	if b.size > 0 {
		b.evict(b.at(b.size-1).Time - b.window)
	}
}

// Frozen reports the retention mode.
func (b *Buffer) Frozen() bool { return b.frozen }

// Len returns the number of retained points.
func (b *Buffer) Len() int { return b.size }

// Snapshot copies the full retained series in time order. In sliding mode
// this equals the visible window by construction.
func (b *Buffer) Snapshot() []Point {
	if b.size == 0 {
		return nil
	}
	out := make([]Point, b.size)
	for i := range out {
		out[i] = b.at(i)
	}
	return out
}

// SnapshotRange copies the points with start <= time <= end. Consumers use
// it with a viewport while frozen; downstream auto-scaling must look only at
// this subrange, never the whole frozen history.
func (b *Buffer) SnapshotRange(start, end float64) []Point {
	if b.size == 0 || end < start {
		return nil
	}
	lo := sort.Search(b.size, func(i int) bool { return b.at(i).Time >= start })
	hi := sort.Search(b.size, func(i int) bool { return b.at(i).Time > end })
	if lo >= hi {
		return nil
	}
	out := make([]Point, hi-lo)
	for i := range out {
		out[i] = b.at(lo + i)
	}
	return out
}

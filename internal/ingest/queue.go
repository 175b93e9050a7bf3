package ingest

import (
	"sync"

	"github.com/DynamicDevices/radar-distance/internal/domain"
)

// event is everything the reader goroutine learned from one raw line.
type event struct {
	line     domain.RawLine
	sample   *domain.Sample         // nil when the line did not decode
	identity *domain.DeviceIdentity // non-nil when the line carried a chip id
	reject   error                  // decode failure, nil otherwise
	benign   bool                   // rejection matches the allow-list
}

// eventQueue is the unbounded multi-producer/single-consumer queue crossing
// the ingestion/aggregation boundary. Push never blocks beyond the mutex and
// DrainAll takes whatever is available now, so a slow aggregation tick can
// never starve a producer.
type eventQueue struct {
	mu   sync.Mutex
	data []event
}

func (q *eventQueue) Push(e event) {
	q.mu.Lock()
	q.data = append(q.data, e)
	q.mu.Unlock()
}

// DrainAll removes and returns every queued event in FIFO order.
func (q *eventQueue) DrainAll() []event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	out := q.data
	q.data = nil
	return out
}

func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

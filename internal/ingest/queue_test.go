package ingest

import (
	"sync"
	"testing"

	"github.com/DynamicDevices/radar-distance/internal/domain"
)

func TestEventQueueFIFO(t *testing.T) {
	q := &eventQueue{}

	q.Push(event{line: domain.RawLine{Text: "first"}})
	q.Push(event{line: domain.RawLine{Text: "second"}})

	out := q.DrainAll()
	if len(out) != 2 || out[0].line.Text != "first" || out[1].line.Text != "second" {
		t.Fatalf("unexpected drain: %+v", out)
	}

	if q.Len() != 0 {
		t.Fatalf("queue should be empty after drain, got %d", q.Len())
	}
	if q.DrainAll() != nil {
		t.Fatalf("draining an empty queue should return nil")
	}
}

func TestEventQueueConcurrentPush(t *testing.T) {
	q := &eventQueue{}

	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(event{})
			}
		}()
	}
	wg.Wait()

	if got := len(q.DrainAll()); got != producers*perProducer {
		t.Fatalf("expected %d events, got %d", producers*perProducer, got)
	}
}

package ports

import "github.com/DynamicDevices/radar-distance/internal/domain"

// StreamSource delivers the ordered raw output lines of one monitored
// endpoint. Start launches the transport and returns once lines are being
// read; the implementation stamps each line with its arrival time, closes
// out when the stream ends or fails, and never reconnects. Stop cancels the
// transport at the next safe point and waits for readers to finish.
type StreamSource interface {
	Start(out chan<- domain.RawLine) error
	Stop() error
}

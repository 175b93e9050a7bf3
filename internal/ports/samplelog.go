package ports

import (
	"time"

	"github.com/DynamicDevices/radar-distance/internal/domain"
)

// SampleRecord is one row of the durable per-source sample log: one row per
// processed sample, never per raw line.
type SampleRecord struct {
	Timestamp    time.Time
	RelativeTime float64
	Sample       domain.Sample
	RawLine      string
}

// SampleLog persists sample records for one source. Write must make the row
// durable before returning; throughput is sacrificed for durability.
type SampleLog interface {
	Write(rec SampleRecord) error
	Close() error
}

// LogOpener creates a SampleLog for one source once its identity is known.
// identity may be the zero value when no chip-id line was ever seen;
// implementations substitute a host-derived identifier.
type LogOpener interface {
	Open(sourceID, tag string, identity domain.DeviceIdentity) (SampleLog, error)
}

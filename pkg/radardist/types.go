package radardist

import (
	"github.com/DynamicDevices/radar-distance/internal/domain"
	"github.com/DynamicDevices/radar-distance/internal/ingest"
	"github.com/DynamicDevices/radar-distance/internal/ports"
	"github.com/DynamicDevices/radar-distance/internal/window"
)

// Sample is one decoded reading from a presence radar.
type Sample = domain.Sample

// RawLine is a single line of sensor output with its arrival metadata.
type RawLine = domain.RawLine

// DeviceIdentity carries the chip id and model announced in the sensor banner.
type DeviceIdentity = domain.DeviceIdentity

// Channel distinguishes stdout from stderr lines.
type Channel = domain.Channel

const (
	ChannelStdout = domain.ChannelStdout
	ChannelStderr = domain.ChannelStderr
)

// LivenessState is the per-source connection state.
type LivenessState = domain.LivenessState

const (
	StateConnecting   = domain.StateConnecting
	StateConnected    = domain.StateConnected
	StateDisconnected = domain.StateDisconnected
)

// Point is one (relative time, distance) pair in a source's series.
type Point = window.Point

// Viewport selects the visible subrange of a frozen series.
type Viewport = window.Viewport

// SourceView is the per-source slice of a snapshot.
type SourceView = ingest.SourceView

// StreamSource produces raw sensor lines over some transport. Custom
// implementations can be injected with WithSource.
type StreamSource = ports.StreamSource

// SampleLog persists decoded samples row by row.
type SampleLog = ports.SampleLog

// LogOpener creates a SampleLog once a source's identity is known.
type LogOpener = ports.LogOpener

// SampleRecord is one row handed to a SampleLog.
type SampleRecord = ports.SampleRecord

// Observability emits structured logs and metrics for the monitor.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

package decode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DynamicDevices/radar-distance/internal/domain"
)

// Rejection reasons. Decode wraps them with the offending line so callers
// can log it verbatim.
var (
	ErrTooFewTokens = errors.New("line has fewer than two tokens")
	ErrBadPresence  = errors.New("presence token is not an integer")
	ErrBadDistance  = errors.New("distance token is not a number")
)

// identityMarker precedes the chip identifier in a source's startup banner.
const identityMarker = "chip id"

// defaultBenign lists the sensor firmware's known startup chatter; lines
// containing one of these fragments fail to decode but should not be
// reported as warnings.
var defaultBenign = []string{
	"chip id",
	"spi speed",
	"setup presence sensing",
	"create done",
}

// Decoder turns raw sensor output lines into presence/distance pairs.
//
// The presence token accepts any integer, not just 0 and 1; every non-zero
// value is treated as presence. The firmware prints a boolean-ish flag and
// only the "parses as int" property is guaranteed.
type Decoder struct {
	benign []string
}

// New builds a decoder. extraBenign fragments are added to the built-in
// allow-list; matching is case-insensitive substring containment.
func New(extraBenign ...string) *Decoder {
	benign := make([]string, 0, len(defaultBenign)+len(extraBenign))
	benign = append(benign, defaultBenign...)
	for _, s := range extraBenign {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			benign = append(benign, s)
		}
	}
	return &Decoder{benign: benign}
}

// Decode parses one line into a presence flag and a raw distance in meters.
// It never panics on arbitrary input; a non-nil error means the line is not
// a measurement.
func (d *Decoder) Decode(text string) (presence bool, distance float64, err error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return false, 0, fmt.Errorf("decode %q: %w", text, ErrTooFewTokens)
	}
	p, err := strconv.Atoi(fields[0])
	if err != nil {
		return false, 0, fmt.Errorf("decode %q: %w", text, ErrBadPresence)
	}
	dist, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return false, 0, fmt.Errorf("decode %q: %w", text, ErrBadDistance)
	}
	return p != 0, dist, nil
}

// Benign reports whether a rejected line matches the allow-list of known
// harmless diagnostic output.
func (d *Decoder) Benign(text string) bool {
	lower := strings.ToLower(text)
	for _, frag := range d.benign {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// NewSample applies the zeroing rule: a sample without presence carries
// distance 0.0 no matter what the raw reading says.
func NewSample(ts time.Time, presence bool, raw float64) domain.Sample {
	s := domain.Sample{Timestamp: ts, Presence: presence, RawDistance: raw}
	if presence {
		s.Distance = raw
	}
	return s
}

// ScanIdentity extracts the device identity from a line containing the
// chip-id marker (case-insensitive). The id and model tokens follow the
// marker, separated from it by an optional colon. This scan is independent
// of Decode and runs on every line.
func ScanIdentity(text string) (domain.DeviceIdentity, bool) {
	idx := strings.Index(strings.ToLower(text), identityMarker)
	if idx < 0 {
		return domain.DeviceIdentity{}, false
	}
	rest := strings.TrimSpace(text[idx+len(identityMarker):])
	rest = strings.TrimPrefix(rest, ":")
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return domain.DeviceIdentity{}, false
	}
	return domain.DeviceIdentity{ChipID: fields[0], Model: fields[1]}, true
}

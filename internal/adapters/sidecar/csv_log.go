package sidecar

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/DynamicDevices/radar-distance/internal/domain"
	"github.com/DynamicDevices/radar-distance/internal/ports"
)

var header = []string{
	"timestamp",
	"relative_time",
	"processed_presence",
	"processed_distance",
	"raw_presence",
	"raw_distance",
	"raw_line",
}

// CSVOpener creates one CSV sample log per source under Dir. Creation is
// deliberately lazy on the caller's side: the multiplexer only opens a log
// once the device identity is known (or the host-derived fallback fires), so
// the file name stays descriptive. Rows seen before the open are dropped,
// not buffered; that pre-identity window is a known limitation.
type CSVOpener struct {
	Dir string
}

func NewCSVOpener(dir string) *CSVOpener {
	return &CSVOpener{Dir: dir}
}

// Open creates <tag>_<chipid>[_<model>]_<starttime>.csv and writes the
// header row. An empty identity substitutes the monitor hostname for the
// chip id.
func (o *CSVOpener) Open(sourceID, tag string, identity domain.DeviceIdentity) (ports.SampleLog, error) {
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("sidecar dir %s: %w", o.Dir, err)
	}

	if tag == "" {
		tag = sourceID
	}
	chip := identity.ChipID
	if chip == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "unknown-host"
		}
		chip = host
	}

	parts := []string{sanitize(tag), sanitize(chip)}
	if identity.Model != "" {
		parts = append(parts, sanitize(identity.Model))
	}
	parts = append(parts, time.Now().Format("20060102-150405"))
	path := filepath.Join(o.Dir, strings.Join(parts, "_")+".csv")

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sidecar create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("sidecar header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("sidecar header: %w", err)
	}

	return &csvLog{file: f, w: w}, nil
}

type csvLog struct {
	file *os.File
	w    *csv.Writer
}

// Write appends one row and flushes it immediately; durability beats
// throughput for a crash-forensics log.
func (l *csvLog) Write(rec ports.SampleRecord) error {
	s := rec.Sample
	row := []string{
		rec.Timestamp.Format("2006-01-02 15:04:05.000"),
		strconv.FormatFloat(rec.RelativeTime, 'f', 3, 64),
		boolField(s.Presence),
		strconv.FormatFloat(s.Distance, 'f', -1, 64),
		boolField(s.Presence),
		strconv.FormatFloat(s.RawDistance, 'f', -1, 64),
		escapeRaw(rec.RawLine),
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *csvLog) Close() error {
	l.w.Flush()
	err := l.w.Error()
	if cerr := l.file.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}

// escapeRaw substitutes the field and record delimiters so the raw line
// survives naive downstream parsers that split on commas and newlines.
func escapeRaw(s string) string {
	return strings.NewReplacer(",", ";", "\n", "\\n", "\r", "").Replace(s)
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// sanitize keeps file names portable across the hosts logs get copied to.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}

var _ ports.LogOpener = (*CSVOpener)(nil)

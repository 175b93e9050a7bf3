package decode

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDecodeValidLines(t *testing.T) {
	d := New()

	cases := []struct {
		line     string
		presence bool
		distance float64
	}{
		{"1 0.452", true, 0.452},
		{"0 0.452", false, 0.452},
		{"1 1.000 extra trailing tokens", true, 1.0},
		{"  1\t2.5  ", true, 2.5},
		{"2 0.1", true, 0.1}, // any non-zero integer counts as presence
		{"-1 0.1", true, 0.1},
	}

	for _, tc := range cases {
		presence, dist, err := d.Decode(tc.line)
		if err != nil {
			t.Fatalf("Decode(%q): unexpected error %v", tc.line, err)
		}
		if presence != tc.presence || dist != tc.distance {
			t.Fatalf("Decode(%q) = (%v, %v), want (%v, %v)",
				tc.line, presence, dist, tc.presence, tc.distance)
		}
	}
}

func TestDecodeRejections(t *testing.T) {
	d := New()

	cases := []struct {
		line string
		want error
	}{
		{"", ErrTooFewTokens},
		{"1", ErrTooFewTokens},
		{"garbage line", ErrBadPresence},
		{"x 0.5", ErrBadPresence},
		{"1.5 0.5", ErrBadPresence},
		{"1 notafloat", ErrBadDistance},
		{"Chip ID : 0xDEADBEEF XM125", ErrBadPresence},
	}

	for _, tc := range cases {
		if _, _, err := d.Decode(tc.line); !errors.Is(err, tc.want) {
			t.Fatalf("Decode(%q) error = %v, want %v", tc.line, err, tc.want)
		}
	}
}

func TestDecodeErrorPreservesLine(t *testing.T) {
	d := New()

	_, _, err := d.Decode("garbage line")
	if err == nil || !strings.Contains(err.Error(), "garbage line") {
		t.Fatalf("expected error to carry the offending line, got %v", err)
	}
}

func TestNewSampleZeroingInvariant(t *testing.T) {
	now := time.Now()

	s := NewSample(now, true, 0.452)
	if s.Distance != 0.452 || s.RawDistance != 0.452 {
		t.Fatalf("presence sample should keep raw distance, got %+v", s)
	}

	s = NewSample(now, false, 0.452)
	if s.Distance != 0 {
		t.Fatalf("absence sample must carry distance 0, got %v", s.Distance)
	}
	if s.RawDistance != 0.452 {
		t.Fatalf("absence sample must preserve raw distance, got %v", s.RawDistance)
	}
}

func TestBenignAllowList(t *testing.T) {
	d := New("extra phrase")

	benign := []string{
		"Chip ID : 0x1234 XM125",
		"SPI speed: 5 MHz",
		"Setup presence sensing OK",
		"sensor create done",
		"something with EXTRA PHRASE inside",
	}
	for _, line := range benign {
		if !d.Benign(line) {
			t.Fatalf("expected %q to be benign", line)
		}
	}

	if d.Benign("completely unexpected output") {
		t.Fatalf("unexpected line must not be benign")
	}
}

func TestScanIdentity(t *testing.T) {
	cases := []struct {
		line   string
		chip   string
		model  string
		wantOK bool
	}{
		{"Chip ID : 0xDEADBEEF XM125", "0xDEADBEEF", "XM125", true},
		{"boot: chip id: 42 A121 ready", "42", "A121", true},
		{"CHIP ID 0x1 m2", "0x1", "m2", true},
		{"chip id : onlyid", "", "", false},
		{"1 0.452", "", "", false},
	}

	for _, tc := range cases {
		ident, ok := ScanIdentity(tc.line)
		if ok != tc.wantOK {
			t.Fatalf("ScanIdentity(%q) ok = %v, want %v", tc.line, ok, tc.wantOK)
		}
		if ok && (ident.ChipID != tc.chip || ident.Model != tc.model) {
			t.Fatalf("ScanIdentity(%q) = %+v, want {%s %s}", tc.line, ident, tc.chip, tc.model)
		}
	}
}

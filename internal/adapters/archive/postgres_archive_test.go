package archive

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/DynamicDevices/radar-distance/internal/domain"
	"github.com/DynamicDevices/radar-distance/internal/ports"
)

func TestPostgresArchiveWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	a := New(db, "radar_samples")
	log, err := a.Open("host-1", "Living Room", domain.DeviceIdentity{ChipID: "0xBEEF", Model: "XM125"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ts := time.Now()
	expected := regexp.QuoteMeta(
		"INSERT INTO radar_samples (source_id, tag, chip_id, model, ts, relative_time, presence, distance, raw_distance, raw_line) " +
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)")
	mock.ExpectExec(expected).
		WithArgs("host-1", "Living Room", "0xBEEF", "XM125", ts, 2.5, true, 0.452, 0.452, "1 0.452").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := ports.SampleRecord{
		Timestamp:    ts,
		RelativeTime: 2.5,
		Sample: domain.Sample{
			Timestamp:   ts,
			Presence:    true,
			RawDistance: 0.452,
			Distance:    0.452,
		},
		RawLine: "1 0.452",
	}
	if err := log.Write(rec); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresArchiveWriteFailureSurfaces(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	a := New(db, "radar_samples")
	log, _ := a.Open("host-1", "", domain.DeviceIdentity{})

	mock.ExpectExec("INSERT INTO radar_samples").
		WillReturnError(sqlmock.ErrCancelled)

	if err := log.Write(ports.SampleRecord{}); err == nil {
		t.Fatalf("expected write error to surface")
	}
}

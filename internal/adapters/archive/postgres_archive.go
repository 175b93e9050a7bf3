package archive

import (
	"database/sql"
	"fmt"

	"github.com/DynamicDevices/radar-distance/internal/domain"
	"github.com/DynamicDevices/radar-distance/internal/ports"
)

// PostgresArchive writes sample rows into a Postgres (or Timescale) table.
// It implements the same per-source log port as the CSV sidecar so
// deployments can archive centrally instead of collecting per-host files.
// One INSERT per row keeps the durability contract of the sidecar.
type PostgresArchive struct {
	db    *sql.DB
	table string
}

func New(db *sql.DB, table string) *PostgresArchive {
	return &PostgresArchive{db: db, table: table}
}

// Open returns a writer bound to the source's identity columns. The shared
// *sql.DB stays owned by the caller; Close on the returned log is a no-op.
func (a *PostgresArchive) Open(sourceID, tag string, identity domain.DeviceIdentity) (ports.SampleLog, error) {
	query := fmt.Sprintf(
		"INSERT INTO %s (source_id, tag, chip_id, model, ts, relative_time, presence, distance, raw_distance, raw_line) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)", a.table)
	return &pgLog{
		db:       a.db,
		query:    query,
		sourceID: sourceID,
		tag:      tag,
		identity: identity,
	}, nil
}

type pgLog struct {
	db       *sql.DB
	query    string
	sourceID string
	tag      string
	identity domain.DeviceIdentity
}

func (l *pgLog) Write(rec ports.SampleRecord) error {
	s := rec.Sample
	_, err := l.db.Exec(l.query,
		l.sourceID,
		l.tag,
		l.identity.ChipID,
		l.identity.Model,
		rec.Timestamp,
		rec.RelativeTime,
		s.Presence,
		s.Distance,
		s.RawDistance,
		rec.RawLine,
	)
	return err
}

func (l *pgLog) Close() error { return nil }

var _ ports.LogOpener = (*PostgresArchive)(nil)

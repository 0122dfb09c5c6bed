package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"aquadash/internal/models"
)

type SnapshotSQLite struct {
	db *sql.DB
}

func NewSnapshotSQLite(db *sql.DB) *SnapshotSQLite {
	return &SnapshotSQLite{db: db}
}

const (
	snapshotRowID = 1

	upsertSnapshotSQL = `
		INSERT INTO snapshot (id, relay1, relay2, temp_c, ph, tds,
			temp_status, ph_status, tds_status, recommendation,
			timer1_on, timer1_off, timer2_on, timer2_off, source_ts, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			relay1=excluded.relay1,
			relay2=excluded.relay2,
			temp_c=excluded.temp_c,
			ph=excluded.ph,
			tds=excluded.tds,
			temp_status=excluded.temp_status,
			ph_status=excluded.ph_status,
			tds_status=excluded.tds_status,
			recommendation=excluded.recommendation,
			timer1_on=excluded.timer1_on,
			timer1_off=excluded.timer1_off,
			timer2_on=excluded.timer2_on,
			timer2_off=excluded.timer2_off,
			source_ts=excluded.source_ts,
			updated_at=excluded.updated_at
	`

	selectSnapshotSQL = `
		SELECT relay1, relay2, temp_c, ph, tds,
			temp_status, ph_status, tds_status, recommendation,
			timer1_on, timer1_off, timer2_on, timer2_off, source_ts, updated_at
		FROM snapshot WHERE id=?
	`
)

// Save replaces the single cached snapshot row (id always 1).
func (r *SnapshotSQLite) Save(ctx context.Context, s models.RealtimeSnapshot) error {
	_, err := r.db.ExecContext(ctx, upsertSnapshotSQL,
		snapshotRowID,
		s.Relay1,
		s.Relay2,
		float64(s.Temperature),
		float64(s.PH),
		float64(s.TDS),
		s.TempStatus,
		s.PHStatus,
		s.TDSStatus,
		s.Recommendation,
		s.Timer1On,
		s.Timer1Off,
		s.Timer2On,
		s.Timer2Off,
		s.Timestamp,
		time.Now().UTC(),
	)
	return err
}

// Load fetches the cached snapshot and the time it was stored.
// Returns sql.ErrNoRows passthrough as a zero snapshot with zero time.
func (r *SnapshotSQLite) Load(ctx context.Context) (models.RealtimeSnapshot, time.Time, error) {
	row := r.db.QueryRowContext(ctx, selectSnapshotSQL, snapshotRowID)

	var (
		s                models.RealtimeSnapshot
		tempC, phV, tdsV float64
		updatedAt        time.Time
	)
	if err := row.Scan(
		&s.Relay1,
		&s.Relay2,
		&tempC,
		&phV,
		&tdsV,
		&s.TempStatus,
		&s.PHStatus,
		&s.TDSStatus,
		&s.Recommendation,
		&s.Timer1On,
		&s.Timer1Off,
		&s.Timer2On,
		&s.Timer2Off,
		&s.Timestamp,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RealtimeSnapshot{}, time.Time{}, nil // nothing cached yet
		}
		return models.RealtimeSnapshot{}, time.Time{}, err
	}
	s.Temperature = models.FlexFloat(tempC)
	s.PH = models.FlexFloat(phV)
	s.TDS = models.FlexFloat(tdsV)
	return s, updatedAt.UTC(), nil
}

package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"aquadash/internal/models"

	"github.com/google/uuid"
)

type ReadingSQLite struct {
	db *sql.DB
}

func NewReadingSQLite(db *sql.DB) *ReadingSQLite { return &ReadingSQLite{db: db} }

// takenAtLayout is the text form taken_at is stored in. Window bounds must be
// bound in the same form: sqlite compares TEXT lexically, and a time.Time bound
// by the driver carries a zone suffix that breaks the comparison at the edges.
const takenAtLayout = "2006-01-02 15:04:05"

// Append inserts one archived reading. If ID or TakenAt are empty, they're set.
func (r *ReadingSQLite) Append(ctx context.Context, rd models.Reading) error {
	if rd.ID == "" {
		rd.ID = uuid.NewString()
	}
	if rd.TakenAt.IsZero() {
		rd.TakenAt = time.Now().UTC()
	} else {
		rd.TakenAt = rd.TakenAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO readings (id, taken_at, temp_c, ph, tds, relay1, relay2, recommendation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rd.ID,
		rd.TakenAt.Format(takenAtLayout),
		rd.Temperature,
		rd.PH,
		rd.TDS,
		rd.Relay1,
		rd.Relay2,
		rd.Recommendation,
	)
	return err
}

// List returns archived readings within [from, to] (inclusive), ordered ASC.
func (r *ReadingSQLite) List(ctx context.Context, from, to time.Time) ([]models.Reading, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "taken_at >= ?")
		args = append(args, from.UTC().Format(takenAtLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "taken_at <= ?")
		args = append(args, to.UTC().Format(takenAtLayout))
	}

	q := `SELECT id, taken_at, temp_c, ph, tds, relay1, relay2, recommendation FROM readings`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY taken_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Reading, 0, 64)
	for rows.Next() {
		var (
			rd   models.Reading
			reco sql.NullString
		)
		if err := rows.Scan(&rd.ID, &rd.TakenAt, &rd.Temperature, &rd.PH, &rd.TDS,
			&rd.Relay1, &rd.Relay2, &reco); err != nil {
			return nil, err
		}
		rd.TakenAt = rd.TakenAt.UTC()
		if reco.Valid {
			rd.Recommendation = reco.String
		}
		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

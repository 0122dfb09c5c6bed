package repository

import (
	"context"
	"database/sql"
	"time"

	"aquadash/internal/models"
	"aquadash/internal/repository/db"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// SnapshotRepo caches the last realtime snapshot fetched from the upstream.
type SnapshotRepo interface {
	Save(ctx context.Context, s models.RealtimeSnapshot) error
	Load(ctx context.Context) (models.RealtimeSnapshot, time.Time, error)
}

// ReadingRepo is the local append-only archive of polled readings.
type ReadingRepo interface {
	Append(ctx context.Context, r models.Reading) error
	List(ctx context.Context, from, to time.Time) ([]models.Reading, error)
}

type Repository struct {
	Snapshots SnapshotRepo
	Readings  ReadingRepo
	Auth      Authorization
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{
		Snapshots: NewSnapshotSQLite(conn),
		Readings:  NewReadingSQLite(conn),
		Auth:      NewUserRepository(conn),
	}
}

// InitDB is re-exported so cmd wiring needs only this package.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}

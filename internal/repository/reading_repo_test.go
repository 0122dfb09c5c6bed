package repository_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"aquadash/internal/models"
	"aquadash/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestReadingSQLite_Append_WritesFormattedUTCTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewReadingSQLite(db)

	locJakarta, _ := time.LoadLocation("Asia/Jakarta")
	takenAt := time.Date(2024, 3, 10, 18, 0, 0, 0, locJakarta) // 11:00 UTC

	rd := models.Reading{
		ID:             "reading-1",
		TakenAt:        takenAt,
		Temperature:    26.5,
		PH:             7.1,
		TDS:            320,
		Relay1:         "on",
		Relay2:         "off",
		Recommendation: "Kondisi normal",
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO readings")).
		WithArgs(
			"reading-1",
			"2024-03-10 11:00:00", // stored as formatted UTC text
			26.5,
			7.1,
			320.0,
			"on",
			"off",
			"Kondisi normal",
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Append(context.Background(), rd); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReadingSQLite_Append_FillsMissingIDAndTime(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewReadingSQLite(db)

	isNonEmptyString := sqlmockArgumentFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		return ok && s != ""
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO readings")).
		WithArgs(
			isNonEmptyString, // generated uuid
			isNonEmptyString, // formatted "now"
			0.0, 0.0, 0.0, "", "", "",
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Append(context.Background(), models.Reading{}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReadingSQLite_List_WindowedAscending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewReadingSQLite(db)

	from := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "taken_at", "temp_c", "ph", "tds", "relay1", "relay2", "recommendation"}).
		AddRow("a", time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC), 26.0, 7.0, 310.0, "on", "off", nil).
		AddRow("b", time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC), 26.5, 7.1, 320.0, "on", "off", "Kondisi normal")

	// Bounds travel as the same formatted text Append stores, not as time.Time.
	mock.ExpectQuery(regexp.QuoteMeta("taken_at >= ? AND taken_at <= ? ORDER BY taken_at ASC")).
		WithArgs("2024-03-10 00:00:00", "2024-03-11 00:00:00").
		WillReturnRows(rows)

	out, err := repo.List(context.Background(), from, to)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(out))
	}
	if out[0].ID != "a" || out[1].ID != "b" {
		t.Errorf("unexpected order: %s, %s", out[0].ID, out[1].ID)
	}
	if out[0].Recommendation != "" {
		t.Errorf("NULL recommendation should map to empty string, got %q", out[0].Recommendation)
	}
	if out[1].Recommendation != "Kondisi normal" {
		t.Errorf("recommendation = %q", out[1].Recommendation)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReadingSQLite_List_NoWindowOmitsWhereClause(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewReadingSQLite(db)

	rows := sqlmock.NewRows([]string{"id", "taken_at", "temp_c", "ph", "tds", "relay1", "relay2", "recommendation"})
	mock.ExpectQuery(regexp.QuoteMeta("FROM readings ORDER BY taken_at ASC")).
		WillReturnRows(rows)

	out, err := repo.List(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %d", len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReadingSQLite_List_QueryErrorIsPropagated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewReadingSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM readings")).
		WillReturnError(errors.New("database is locked"))

	if _, err := repo.List(context.Background(), time.Time{}, time.Time{}); err == nil {
		t.Fatal("expected query error")
	}
}

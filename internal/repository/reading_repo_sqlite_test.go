package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"aquadash/internal/models"
	"aquadash/internal/repository"
)

// Against a real sqlite file: sqlmock cannot see how the driver serializes
// bound values, and the window comparison happens inside sqlite as TEXT.
func TestReadingSQLite_List_WindowEdgesInclusive(t *testing.T) {
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "readings.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer db.Close()

	repo := repository.NewReadingSQLite(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{base.Add(-2 * time.Hour), base, base.Add(2 * time.Hour)} {
		rd := models.Reading{
			ID:          string(rune('a' + i)),
			TakenAt:     at,
			Temperature: 26.5,
			PH:          7.1,
			TDS:         320,
			Relay1:      "on",
			Relay2:      "off",
		}
		if err := repo.Append(ctx, rd); err != nil {
			t.Fatalf("Append(%s): %v", at, err)
		}
	}

	// Both boundary rows are part of the window.
	out, err := repo.List(ctx, base.Add(-2*time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected all 3 rows inside the inclusive window, got %d", len(out))
	}
	if !out[0].TakenAt.Equal(base.Add(-2 * time.Hour)) {
		t.Errorf("first row = %s, want the row at the from edge", out[0].TakenAt)
	}
	if !out[2].TakenAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("last row = %s, want the row at the to edge", out[2].TakenAt)
	}

	// A degenerate window still matches the row at that instant.
	out, err = repo.List(ctx, base, base)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || !out[0].TakenAt.Equal(base) {
		t.Fatalf("expected exactly the row at the bound, got %d rows", len(out))
	}

	// Half-open queries work too.
	out, err = repo.List(ctx, base, time.Time{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows from base onward, got %d", len(out))
	}
}

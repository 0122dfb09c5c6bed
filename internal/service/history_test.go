package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"aquadash/internal/backend"
	"aquadash/internal/models"
)

func TestHistoryService_History_SortsAscendingAndFormats(t *testing.T) {
	up := &stubUpstream{historyItems: []models.HistoryItem{
		{Timestamp: "2024-03-10T12:30:00Z", Temperature: 27, PH: 7.2, TDS: 340},
		{Timestamp: "2024-03-10T11:00:00Z", Temperature: 26.5, PH: 7.1, TDS: 320},
		{Timestamp: "2024-03-10T12:00:00Z", Temperature: 26.8, PH: 7.0, TDS: 330},
	}}
	svc := NewHistoryService(up, &stubReadingRepo{})

	items, err := svc.History(context.Background(), models.Period1Hour)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].At.Before(items[i-1].At) {
			t.Fatalf("items not sorted ascending: %s before %s", items[i].Timestamp, items[i-1].Timestamp)
		}
	}

	first := items[0]
	at, _ := time.Parse(time.RFC3339, "2024-03-10T11:00:00Z")
	if !first.At.Equal(at) {
		t.Fatalf("expected parsed At %s, got %s", at, first.At)
	}
	if want := at.Local().Format("15:04"); first.DisplayTime != want {
		t.Errorf("DisplayTime = %q, want %q", first.DisplayTime, want)
	}
	if want := at.Local().Format("2006-01-02 15:04:05"); first.FullDate != want {
		t.Errorf("FullDate = %q, want %q", first.FullDate, want)
	}
}

func TestHistoryService_History_WeekLabelsCarryTheDate(t *testing.T) {
	up := &stubUpstream{historyItems: []models.HistoryItem{
		{Timestamp: "2024-03-04T08:00:00Z"},
	}}
	svc := NewHistoryService(up, &stubReadingRepo{})

	items, err := svc.History(context.Background(), models.Period1Week)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	at, _ := time.Parse(time.RFC3339, "2024-03-04T08:00:00Z")
	if want := at.Local().Format("2 Jan 15:04"); items[0].DisplayTime != want {
		t.Fatalf("DisplayTime = %q, want %q", items[0].DisplayTime, want)
	}
}

func TestHistoryService_History_InvalidPeriodNeverHitsUpstream(t *testing.T) {
	up := &stubUpstream{}
	svc := NewHistoryService(up, &stubReadingRepo{})

	_, err := svc.History(context.Background(), "1month")
	if !errors.Is(err, backend.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if got := up.callLog(); len(got) != 0 {
		t.Fatalf("expected zero upstream calls, got %v", got)
	}
}

func TestHistoryService_History_UnparsableTimestampKeepsRow(t *testing.T) {
	up := &stubUpstream{historyItems: []models.HistoryItem{
		{Timestamp: "not-a-time", Temperature: 25},
		{Timestamp: "2024-03-10T11:00:00Z", Temperature: 26},
	}}
	svc := NewHistoryService(up, &stubReadingRepo{})

	items, err := svc.History(context.Background(), models.Period1Day)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected unparsable row preserved, got %d items", len(items))
	}
	// Zero At sorts first; the row gets no display labels.
	if items[0].Timestamp != "not-a-time" || items[0].DisplayTime != "" {
		t.Fatalf("unexpected first row: %+v", items[0])
	}
}

func TestHistoryService_CSV_QuotesTimestampsAndLeavesNumbersBare(t *testing.T) {
	svc := NewHistoryService(&stubUpstream{}, &stubReadingRepo{})
	at, _ := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	items := []models.HistoryItem{
		{Timestamp: "2024-01-01T00:00:00Z", Temperature: 26.5, PH: 7.1, TDS: 320, At: at},
	}

	out := string(svc.CSV(items))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "Timestamp,Date,Time,Temperature (C),pH,TDS (ppm)" {
		t.Fatalf("unexpected header: %q", lines[0])
	}

	local := at.Local()
	want := fmt.Sprintf("%q,%q,%q,26.5,7.1,320",
		"2024-01-01T00:00:00Z", local.Format("2006-01-02"), local.Format("15:04:05"))
	if lines[1] != want {
		t.Fatalf("row = %q, want %q", lines[1], want)
	}
}

func TestHistoryService_CSV_EmptyHistoryYieldsNoDocument(t *testing.T) {
	svc := NewHistoryService(&stubUpstream{}, &stubReadingRepo{})
	if out := svc.CSV(nil); out != nil {
		t.Fatalf("expected nil for empty history, got %q", out)
	}
}

func TestHistoryService_ExportFilename(t *testing.T) {
	svc := NewHistoryService(&stubUpstream{}, &stubReadingRepo{})
	svc.now = func() time.Time {
		return time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	}

	if got, want := svc.ExportFilename(models.Period1Day), "aquadash_history_1day_2024-03-10.csv"; got != want {
		t.Fatalf("ExportFilename = %q, want %q", got, want)
	}
}

func TestHistoryService_Readings_RejectsInvertedRange(t *testing.T) {
	svc := NewHistoryService(&stubUpstream{}, &stubReadingRepo{})
	from := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	if _, err := svc.Readings(context.Background(), from, to); err == nil {
		t.Fatal("expected error for from after to")
	}
}

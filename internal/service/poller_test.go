package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"aquadash/internal/models"
)

func TestPollerService_Run_PollsImmediately(t *testing.T) {
	up := &stubUpstream{snapshot: models.RealtimeSnapshot{Relay1: "on", Timestamp: "2024-03-10T11:00:00Z"}}
	cache := &stubSnapshotRepo{}
	archive := &stubReadingRepo{}
	svc := NewPollerService(up, cache, archive, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, time.Hour)
		close(done)
	}()

	// The first poll happens before the first tick.
	deadline := time.After(time.Second)
	for up.callCount("realtime") == 0 {
		select {
		case <-deadline:
			t.Fatal("no immediate poll within 1s")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if up.callCount("realtime") != 1 {
		t.Fatalf("expected exactly 1 poll before the first hourly tick, got %d", up.callCount("realtime"))
	}
	if cache.saves != 1 {
		t.Fatalf("expected 1 cache save, got %d", cache.saves)
	}
	if archive.count() != 1 {
		t.Fatalf("expected 1 archived reading, got %d", archive.count())
	}
}

func TestPollerService_Run_TicksUntilCanceled(t *testing.T) {
	up := &stubUpstream{snapshot: models.RealtimeSnapshot{Timestamp: "2024-03-10T11:00:00Z"}}
	cache := &stubSnapshotRepo{}
	archive := &stubReadingRepo{}
	svc := NewPollerService(up, cache, archive, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for up.callCount("realtime") < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 polls, got %d", up.callCount("realtime"))
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if archive.count() < 3 {
		t.Fatalf("expected each poll archived, got %d readings for %d polls", archive.count(), up.callCount("realtime"))
	}
}

func TestPollerService_PollFailureLeavesStateUntouched(t *testing.T) {
	up := &stubUpstream{realtimeErr: errors.New("timeout")}
	cache := &stubSnapshotRepo{}
	archive := &stubReadingRepo{}
	svc := NewPollerService(up, cache, archive, nil, nil)

	svc.poll(context.Background())

	if cache.saves != 0 {
		t.Fatalf("expected no cache save on failed poll, got %d", cache.saves)
	}
	if archive.count() != 0 {
		t.Fatalf("expected no archived reading on failed poll, got %d", archive.count())
	}
}

func TestReadingFromSnapshot_ParsesTimestamp(t *testing.T) {
	snap := models.RealtimeSnapshot{
		Timestamp:   "2024-03-10T11:00:00Z",
		Temperature: 26.5,
		PH:          7.1,
		TDS:         320,
		Relay1:      "on",
		Relay2:      "off",
	}

	r := readingFromSnapshot(snap)
	want, _ := time.Parse(time.RFC3339, "2024-03-10T11:00:00Z")
	if !r.TakenAt.Equal(want) {
		t.Fatalf("TakenAt = %s, want %s", r.TakenAt, want)
	}
	if r.ID == "" {
		t.Fatal("expected generated reading ID")
	}
	if r.Temperature != 26.5 || r.PH != 7.1 || r.TDS != 320 {
		t.Fatalf("unexpected reading values: %+v", r)
	}
}

func TestReadingFromSnapshot_FallsBackToNow(t *testing.T) {
	before := time.Now().UTC()
	r := readingFromSnapshot(models.RealtimeSnapshot{Timestamp: "garbage"})
	after := time.Now().UTC()

	if r.TakenAt.Before(before) || r.TakenAt.After(after) {
		t.Fatalf("TakenAt %s not within [%s, %s]", r.TakenAt, before, after)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aquadash/internal/backend"
	"aquadash/internal/logger"
	"aquadash/internal/metrics"
	"aquadash/internal/models"
	"aquadash/internal/repository"
)

var (
	ErrNoSnapshot = errors.New("no snapshot available")
)

const defaultSettleDelay = 800 * time.Millisecond

// RealtimeService serves the current snapshot and runs the write lifecycle for
// relays and timers: command, settle delay, confirm re-fetch. The confirmed
// snapshot is authoritative; the client's belief about state never is.
type RealtimeService struct {
	upstream backend.Upstream
	cache    repository.SnapshotRepo
	metrics  *metrics.Metrics
	log      *logger.Logger
	settle   time.Duration
}

func NewRealtimeService(up backend.Upstream, cache repository.SnapshotRepo, m *metrics.Metrics, log *logger.Logger, cfg Config) *RealtimeService {
	settle := cfg.SettleDelay
	if settle <= 0 {
		settle = defaultSettleDelay
	}
	return &RealtimeService{
		upstream: up,
		cache:    cache,
		metrics:  m,
		log:      log,
		settle:   settle,
	}
}

// Snapshot fetches the live snapshot, refreshing the local cache on success.
// When the upstream is unreachable the last cached snapshot is served instead;
// only a cold cache propagates the fetch error.
func (s *RealtimeService) Snapshot(ctx context.Context) (models.RealtimeSnapshot, error) {
	snap, err := s.upstream.Realtime(ctx)
	if err == nil {
		if saveErr := s.cache.Save(ctx, snap); saveErr != nil && s.log != nil {
			s.log.Warnw("snapshot_cache_save_failed", "err", saveErr)
		}
		return snap, nil
	}

	cached, storedAt, loadErr := s.cache.Load(ctx)
	if loadErr == nil && !storedAt.IsZero() {
		if s.log != nil {
			s.log.Warnw("snapshot_served_from_cache", "err", err, "cached_at", storedAt)
		}
		return cached, nil
	}
	return models.RealtimeSnapshot{}, fmt.Errorf("fetch realtime snapshot: %w", err)
}

// Cached returns the last persisted snapshot without touching the upstream.
func (s *RealtimeService) Cached(ctx context.Context) (models.RealtimeSnapshot, time.Time, error) {
	snap, storedAt, err := s.cache.Load(ctx)
	if err != nil {
		return models.RealtimeSnapshot{}, time.Time{}, err
	}
	if storedAt.IsZero() {
		return models.RealtimeSnapshot{}, time.Time{}, ErrNoSnapshot
	}
	return snap, storedAt, nil
}

// ToggleRelay inverts the relay's current status: "off" sends "on", "on" sends
// "off". The returned snapshot is the confirm re-fetch after the settle delay.
func (s *RealtimeService) ToggleRelay(ctx context.Context, relay string) (models.RealtimeSnapshot, error) {
	start := time.Now()
	s.metrics.CommandTotal.WithLabelValues("relay").Inc()

	current, err := s.Snapshot(ctx)
	if err != nil {
		s.metrics.CommandFailures.WithLabelValues("relay").Inc()
		return models.RealtimeSnapshot{}, err
	}

	next := models.RelayOn
	if relayStatus(current, relay) == models.RelayOn {
		next = models.RelayOff
	}

	if err := s.upstream.SetRelay(ctx, relay, next); err != nil {
		s.metrics.CommandFailures.WithLabelValues("relay").Inc()
		return models.RealtimeSnapshot{}, fmt.Errorf("set %s=%s: %w", relay, next, err)
	}

	snap, err := s.confirm(ctx, s.settle)
	s.metrics.CommandSeconds.WithLabelValues("relay").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.CommandFailures.WithLabelValues("relay").Inc()
	}
	return snap, err
}

// SetTimer saves a daily on/off time. An empty time resolves immediately from
// the cache without any upstream call.
func (s *RealtimeService) SetTimer(ctx context.Context, key, timeOfDay string) (models.RealtimeSnapshot, error) {
	if strings.TrimSpace(timeOfDay) == "" {
		snap, _, err := s.Cached(ctx)
		if errors.Is(err, ErrNoSnapshot) {
			return models.RealtimeSnapshot{}, nil
		}
		return snap, err
	}

	start := time.Now()
	s.metrics.CommandTotal.WithLabelValues("timer").Inc()

	if err := s.upstream.SetTimer(ctx, key, timeOfDay); err != nil {
		s.metrics.CommandFailures.WithLabelValues("timer").Inc()
		return models.RealtimeSnapshot{}, fmt.Errorf("set %s=%s: %w", key, timeOfDay, err)
	}

	snap, err := s.confirm(ctx, s.settle)
	s.metrics.CommandSeconds.WithLabelValues("timer").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.CommandFailures.WithLabelValues("timer").Inc()
	}
	return snap, err
}

// confirm waits out the settle delay, then re-fetches authoritative state.
// The delay masks the upstream sheet's write latency; without it the confirm
// read routinely observes the pre-write row.
func (s *RealtimeService) confirm(ctx context.Context, settle time.Duration) (models.RealtimeSnapshot, error) {
	select {
	case <-ctx.Done():
		return models.RealtimeSnapshot{}, ctx.Err()
	case <-time.After(settle):
	}
	return s.Snapshot(ctx)
}

func relayStatus(s models.RealtimeSnapshot, relay string) string {
	if relay == "relay2" {
		return s.Relay2
	}
	return s.Relay1
}

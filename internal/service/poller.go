package service

import (
	"context"
	"time"

	"aquadash/internal/backend"
	"aquadash/internal/logger"
	"aquadash/internal/metrics"
	"aquadash/internal/models"
	"aquadash/internal/repository"

	"github.com/google/uuid"
)

// PollerService refreshes the snapshot cache and the local reading archive on
// a fixed cadence. A failed poll keeps the previous cached snapshot; the next
// tick is the only retry.
type PollerService struct {
	upstream backend.Upstream
	cache    repository.SnapshotRepo
	archive  repository.ReadingRepo
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewPollerService(up backend.Upstream, cache repository.SnapshotRepo, archive repository.ReadingRepo, m *metrics.Metrics, log *logger.Logger) *PollerService {
	if m == nil {
		m = metrics.Nop()
	}
	return &PollerService{
		upstream: up,
		cache:    cache,
		archive:  archive,
		metrics:  m,
		log:      log,
	}
}

// Run polls immediately, then once per tick until ctx is canceled.
func (s *PollerService) Run(ctx context.Context, tick time.Duration) {
	s.poll(ctx)

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.poll(ctx)
		}
	}
}

func (s *PollerService) poll(ctx context.Context) {
	s.metrics.PollTotal.Inc()

	snap, err := s.upstream.Realtime(ctx)
	if err != nil {
		s.metrics.PollFailures.Inc()
		if s.log != nil {
			s.log.Warnw("poll_failed", "err", err)
		}
		return
	}

	if err := s.cache.Save(ctx, snap); err != nil {
		if s.log != nil {
			s.log.Errorw("poll_cache_save_failed", "err", err)
		}
	}

	if err := s.archive.Append(ctx, readingFromSnapshot(snap)); err != nil {
		if s.log != nil {
			s.log.Errorw("poll_archive_append_failed", "err", err)
		}
	}
}

func readingFromSnapshot(snap models.RealtimeSnapshot) models.Reading {
	takenAt := parseStamp(snap.Timestamp)
	if takenAt.IsZero() {
		takenAt = time.Now().UTC()
	}
	return models.Reading{
		ID:             uuid.NewString(),
		TakenAt:        takenAt,
		Temperature:    float64(snap.Temperature),
		PH:             float64(snap.PH),
		TDS:            float64(snap.TDS),
		Relay1:         snap.Relay1,
		Relay2:         snap.Relay2,
		Recommendation: snap.Recommendation,
	}
}

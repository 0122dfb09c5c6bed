package service

import (
	"context"
	"fmt"
	"time"

	"aquadash/internal/backend"
	"aquadash/internal/models"
)

const defaultCalibrationSettle = 2 * time.Second

// SettingsService edits the three server-held tables. Each save sends the
// whole working copy, then reloads from the upstream: the reload result is the
// authoritative persisted state, not an optimistic confirmation.
type SettingsService struct {
	upstream    backend.Upstream
	calibSettle time.Duration
}

func NewSettingsService(up backend.Upstream, cfg Config) *SettingsService {
	settle := cfg.CalibrationSettle
	if settle <= 0 {
		settle = defaultCalibrationSettle
	}
	return &SettingsService{upstream: up, calibSettle: settle}
}

func (s *SettingsService) Ranges(ctx context.Context) ([]models.RangeDefinition, error) {
	return s.upstream.Ranges(ctx)
}

func (s *SettingsService) SaveRanges(ctx context.Context, data []models.RangeDefinition) ([]models.RangeDefinition, error) {
	if err := s.upstream.UpdateRanges(ctx, data); err != nil {
		return nil, fmt.Errorf("update ranges: %w", err)
	}
	return s.upstream.Ranges(ctx)
}

func (s *SettingsService) FuzzyRules(ctx context.Context) ([]models.FuzzyRule, error) {
	return s.upstream.FuzzyRules(ctx)
}

func (s *SettingsService) SaveFuzzyRules(ctx context.Context, data []models.FuzzyRule) ([]models.FuzzyRule, error) {
	if err := s.upstream.UpdateFuzzyRules(ctx, data); err != nil {
		return nil, fmt.Errorf("update fuzzy rules: %w", err)
	}
	return s.upstream.FuzzyRules(ctx)
}

func (s *SettingsService) Calibrations(ctx context.Context) ([]models.CalibrationItem, error) {
	return s.upstream.Calibrations(ctx)
}

// SaveCalibrations waits out a longer settle before the confirming reload: the
// sheet commits calibration rows noticeably slower than the other tables.
func (s *SettingsService) SaveCalibrations(ctx context.Context, data []models.CalibrationItem) ([]models.CalibrationItem, error) {
	if len(data) == 0 {
		return s.upstream.Calibrations(ctx)
	}
	if err := s.upstream.UpdateCalibrations(ctx, data); err != nil {
		return nil, fmt.Errorf("update calibrations: %w", err)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.calibSettle):
	}
	return s.upstream.Calibrations(ctx)
}

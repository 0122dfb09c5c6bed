package service

import (
	"context"
	"time"

	"aquadash/internal/backend"
	"aquadash/internal/logger"
	"aquadash/internal/metrics"
	"aquadash/internal/models"
	"aquadash/internal/repository"
)

type Authorization interface {
	Login(username, password string) (string, error)
	SignUp(username, password string) (int, error)
	ParseToken(accessToken string) (string, error)
}

// Realtime exposes the snapshot and the relay/timer command lifecycle.
type Realtime interface {
	Snapshot(ctx context.Context) (models.RealtimeSnapshot, error)
	Cached(ctx context.Context) (models.RealtimeSnapshot, time.Time, error)
	ToggleRelay(ctx context.Context, relay string) (models.RealtimeSnapshot, error)
	SetTimer(ctx context.Context, key, timeOfDay string) (models.RealtimeSnapshot, error)
}

// History exposes period-selected upstream history, CSV export, and the local archive.
type History interface {
	History(ctx context.Context, period models.HistoryPeriod) ([]models.HistoryItem, error)
	CSV(items []models.HistoryItem) []byte
	ExportFilename(period models.HistoryPeriod) string
	Readings(ctx context.Context, from, to time.Time) ([]models.Reading, error)
}

// Settings exposes whole-table reads and bulk saves of the three config tables.
type Settings interface {
	Ranges(ctx context.Context) ([]models.RangeDefinition, error)
	SaveRanges(ctx context.Context, data []models.RangeDefinition) ([]models.RangeDefinition, error)
	FuzzyRules(ctx context.Context) ([]models.FuzzyRule, error)
	SaveFuzzyRules(ctx context.Context, data []models.FuzzyRule) ([]models.FuzzyRule, error)
	Calibrations(ctx context.Context) ([]models.CalibrationItem, error)
	SaveCalibrations(ctx context.Context, data []models.CalibrationItem) ([]models.CalibrationItem, error)
}

// Poller runs the background snapshot poll loop.
// Stop via context cancellation in main() for graceful shutdown.
type Poller interface {
	Run(ctx context.Context, tick time.Duration)
}

// Config carries the service-layer tuning knobs and secrets.
type Config struct {
	SettleDelay       time.Duration // wait after a write before the confirm re-fetch
	CalibrationSettle time.Duration // the sheet is slower to commit calibration writes
	AdminUser         string
	AdminPass         string // plain secret, constant-time compared
	AdminPassHash     string // bcrypt hash; takes precedence over AdminPass when set
	SigningKey        string
	TokenTTL          time.Duration
}

// Service aggregates all sub-services.
type Service struct {
	Realtime
	History
	Settings
	Poller
	Authorization
}

// NewService wires the upstream client and repository layer into concrete services.
func NewService(up backend.Upstream, repos *repository.Repository, m *metrics.Metrics, log *logger.Logger, cfg Config) *Service {
	if m == nil {
		m = metrics.Nop()
	}
	return &Service{
		Realtime:      NewRealtimeService(up, repos.Snapshots, m, log, cfg),
		History:       NewHistoryService(up, repos.Readings),
		Settings:      NewSettingsService(up, cfg),
		Poller:        NewPollerService(up, repos.Snapshots, repos.Readings, m, log),
		Authorization: NewAuthService(repos.Auth, cfg),
	}
}

package service

import (
	"context"
	"sync"
	"time"

	"aquadash/internal/models"
)

// stubUpstream is a scriptable backend.Upstream that records the call order.
type stubUpstream struct {
	mu sync.Mutex

	snapshot    models.RealtimeSnapshot
	realtimeErr error

	historyItems []models.HistoryItem
	historyErr   error

	relayErr error
	timerErr error

	ranges      []models.RangeDefinition
	rules       []models.FuzzyRule
	calibs      []models.CalibrationItem
	settingsErr error

	calls []string
}

func (s *stubUpstream) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *stubUpstream) callCount(call string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (s *stubUpstream) callLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *stubUpstream) Realtime(ctx context.Context) (models.RealtimeSnapshot, error) {
	s.record("realtime")
	if s.realtimeErr != nil {
		return models.RealtimeSnapshot{}, s.realtimeErr
	}
	return s.snapshot, nil
}

func (s *stubUpstream) History(ctx context.Context, period models.HistoryPeriod) ([]models.HistoryItem, error) {
	s.record("history:" + string(period))
	return s.historyItems, s.historyErr
}

func (s *stubUpstream) SetRelay(ctx context.Context, relay, status string) error {
	s.record("setRelay:" + relay + "=" + status)
	return s.relayErr
}

func (s *stubUpstream) SetTimer(ctx context.Context, key, timeOfDay string) error {
	s.record("setTimer:" + key + "=" + timeOfDay)
	return s.timerErr
}

func (s *stubUpstream) Ranges(ctx context.Context) ([]models.RangeDefinition, error) {
	s.record("getRanges")
	return s.ranges, s.settingsErr
}

func (s *stubUpstream) UpdateRanges(ctx context.Context, data []models.RangeDefinition) error {
	s.record("updateRanges")
	if s.settingsErr != nil {
		return s.settingsErr
	}
	s.ranges = data
	return nil
}

func (s *stubUpstream) FuzzyRules(ctx context.Context) ([]models.FuzzyRule, error) {
	s.record("getRules")
	return s.rules, s.settingsErr
}

func (s *stubUpstream) UpdateFuzzyRules(ctx context.Context, data []models.FuzzyRule) error {
	s.record("updateRules")
	if s.settingsErr != nil {
		return s.settingsErr
	}
	s.rules = data
	return nil
}

func (s *stubUpstream) Calibrations(ctx context.Context) ([]models.CalibrationItem, error) {
	s.record("getCalibs")
	return s.calibs, s.settingsErr
}

func (s *stubUpstream) UpdateCalibrations(ctx context.Context, data []models.CalibrationItem) error {
	s.record("updateCalibs")
	if s.settingsErr != nil {
		return s.settingsErr
	}
	s.calibs = data
	return nil
}

// stubSnapshotRepo is an in-memory repository.SnapshotRepo.
type stubSnapshotRepo struct {
	mu       sync.Mutex
	snap     models.RealtimeSnapshot
	storedAt time.Time
	saveErr  error
	loadErr  error
	saves    int
}

func (r *stubSnapshotRepo) Save(ctx context.Context, s models.RealtimeSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.snap = s
	r.storedAt = time.Now().UTC()
	r.saves++
	return nil
}

func (r *stubSnapshotRepo) Load(ctx context.Context) (models.RealtimeSnapshot, time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return models.RealtimeSnapshot{}, time.Time{}, r.loadErr
	}
	return r.snap, r.storedAt, nil
}

// stubReadingRepo is an in-memory repository.ReadingRepo.
type stubReadingRepo struct {
	mu        sync.Mutex
	readings  []models.Reading
	appendErr error
}

func (r *stubReadingRepo) Append(ctx context.Context, rd models.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.readings = append(r.readings, rd)
	return nil
}

func (r *stubReadingRepo) List(ctx context.Context, from, to time.Time) ([]models.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Reading, len(r.readings))
	copy(out, r.readings)
	return out, nil
}

func (r *stubReadingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.readings)
}

// stubUserRepo is an in-memory repository.Authorization.
type stubUserRepo struct {
	users  map[string]*models.User
	nextID int
}

func (r *stubUserRepo) Create(username, hash string) (int, error) {
	if r.users == nil {
		r.users = map[string]*models.User{}
	}
	r.nextID++
	r.users[username] = &models.User{ID: r.nextID, Username: username, PasswordHash: hash}
	return r.nextID, nil
}

func (r *stubUserRepo) GetByUsername(username string) (*models.User, error) {
	return r.users[username], nil
}

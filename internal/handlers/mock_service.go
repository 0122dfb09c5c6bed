package handlers

import (
	"context"
	"net/http"
	"time"

	"aquadash/internal/models"
	"aquadash/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	loginToken string
	loginErr   error
	signUpID   int
	signUpErr  error
	parseUser  string
	parseErr   error

	lastLoginUsername string
	lastLoginPassword string
	lastParseToken    string
}

func (m *mockAuth) Login(username, password string) (string, error) {
	m.lastLoginUsername = username
	m.lastLoginPassword = password
	return m.loginToken, m.loginErr
}
func (m *mockAuth) SignUp(username, password string) (int, error) {
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseUser, m.parseErr
}

type mockRealtime struct {
	snap        models.RealtimeSnapshot
	snapErr     error
	toggleErr   error
	timerErr    error
	lastRelay   string
	lastTimer   [2]string // key, time
	toggleCalls int
	timerCalls  int
}

func (m *mockRealtime) Snapshot(ctx context.Context) (models.RealtimeSnapshot, error) {
	return m.snap, m.snapErr
}
func (m *mockRealtime) Cached(ctx context.Context) (models.RealtimeSnapshot, time.Time, error) {
	return m.snap, time.Now(), m.snapErr
}
func (m *mockRealtime) ToggleRelay(ctx context.Context, relay string) (models.RealtimeSnapshot, error) {
	m.toggleCalls++
	m.lastRelay = relay
	return m.snap, m.toggleErr
}
func (m *mockRealtime) SetTimer(ctx context.Context, key, timeOfDay string) (models.RealtimeSnapshot, error) {
	m.timerCalls++
	m.lastTimer = [2]string{key, timeOfDay}
	return m.snap, m.timerErr
}

type mockHistory struct {
	items      []models.HistoryItem
	itemsErr   error
	csv        []byte
	filename   string
	readings   []models.Reading
	lastPeriod models.HistoryPeriod
	lastFrom   time.Time
	lastTo     time.Time
}

func (m *mockHistory) History(ctx context.Context, period models.HistoryPeriod) ([]models.HistoryItem, error) {
	m.lastPeriod = period
	return m.items, m.itemsErr
}
func (m *mockHistory) CSV(items []models.HistoryItem) []byte {
	return m.csv
}
func (m *mockHistory) ExportFilename(period models.HistoryPeriod) string {
	return m.filename
}
func (m *mockHistory) Readings(ctx context.Context, from, to time.Time) ([]models.Reading, error) {
	m.lastFrom = from
	m.lastTo = to
	return m.readings, nil
}

type mockSettings struct {
	ranges    []models.RangeDefinition
	rules     []models.FuzzyRule
	calibs    []models.CalibrationItem
	err       error
	lastSaved any
}

func (m *mockSettings) Ranges(ctx context.Context) ([]models.RangeDefinition, error) {
	return m.ranges, m.err
}
func (m *mockSettings) SaveRanges(ctx context.Context, data []models.RangeDefinition) ([]models.RangeDefinition, error) {
	m.lastSaved = data
	return m.ranges, m.err
}
func (m *mockSettings) FuzzyRules(ctx context.Context) ([]models.FuzzyRule, error) {
	return m.rules, m.err
}
func (m *mockSettings) SaveFuzzyRules(ctx context.Context, data []models.FuzzyRule) ([]models.FuzzyRule, error) {
	m.lastSaved = data
	return m.rules, m.err
}
func (m *mockSettings) Calibrations(ctx context.Context) ([]models.CalibrationItem, error) {
	return m.calibs, m.err
}
func (m *mockSettings) SaveCalibrations(ctx context.Context, data []models.CalibrationItem) ([]models.CalibrationItem, error) {
	m.lastSaved = data
	return m.calibs, m.err
}

type mockPoller struct{}

func (m *mockPoller) Run(ctx context.Context, tick time.Duration) {}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func newTestRouterWithProxy(s *service.Service, proxy *ProxyForwarder) *gin.Engine {
	h := NewHandler(s, proxy, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

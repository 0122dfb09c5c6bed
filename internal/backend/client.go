package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"aquadash/internal/models"

	"github.com/sony/gobreaker"
)

// Query actions understood by the upstream script service.
const (
	ActionRealtime     = "realtime"
	ActionHistory1Hour = "history1hour"
	ActionHistory1Day  = "history1day"
	ActionHistory1Week = "history1week"
	ActionGetRanges    = "getRangeDefinitions"
	ActionGetRules     = "getFuzzyRules"
	ActionGetCalibs    = "getCalibrations"
)

// Command actions sent as form envelopes.
const (
	ActionSetStatus    = "setStatus"
	ActionUpdateRanges = "updateRangeDefinitions"
	ActionUpdateRules  = "updateFuzzyRules"
	ActionUpdateCalibs = "updateCalibrations"
)

var queryActions = map[string]struct{}{
	ActionRealtime:     {},
	ActionHistory1Hour: {},
	ActionHistory1Day:  {},
	ActionHistory1Week: {},
	ActionGetRanges:    {},
	ActionGetRules:     {},
	ActionGetCalibs:    {},
}

// KnownQueryAction reports whether name is a recognized upstream query action.
func KnownQueryAction(name string) bool {
	_, ok := queryActions[name]
	return ok
}

var (
	ErrNoBaseURL      = errors.New("upstream URL not configured")
	ErrInvalidRelay   = errors.New("relay must be relay1 or relay2")
	ErrInvalidStatus  = errors.New(`relay status must be "on" or "off"`)
	ErrInvalidTimer   = errors.New("unknown timer key")
	ErrInvalidPeriod  = errors.New("period must be 1hour, 1day or 1week")
	ErrUpstreamStatus = errors.New("unexpected upstream status")
)

// Upstream is the fixed query/command interface of the external script service.
// All sensing, actuation and fuzzy inference live behind it.
type Upstream interface {
	Realtime(ctx context.Context) (models.RealtimeSnapshot, error)
	History(ctx context.Context, period models.HistoryPeriod) ([]models.HistoryItem, error)
	SetRelay(ctx context.Context, relay, status string) error
	SetTimer(ctx context.Context, key, timeOfDay string) error
	Ranges(ctx context.Context) ([]models.RangeDefinition, error)
	UpdateRanges(ctx context.Context, data []models.RangeDefinition) error
	FuzzyRules(ctx context.Context) ([]models.FuzzyRule, error)
	UpdateFuzzyRules(ctx context.Context, data []models.FuzzyRule) error
	Calibrations(ctx context.Context) ([]models.CalibrationItem, error)
	UpdateCalibrations(ctx context.Context, data []models.CalibrationItem) error
}

// Config carries the upstream connection settings.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerOpenFor  time.Duration
}

// Client talks to the upstream service over its query/command HTTP interface.
// Every call goes through a circuit breaker so a dead upstream fails fast
// instead of stalling each poll and command on a full timeout.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time
}

var _ Upstream = (*Client)(nil)

// New builds a Client. Returns ErrNoBaseURL when the upstream URL is unset.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrNoBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BreakerFailures < 1 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "script-upstream",
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.BreakerFailures
		},
	})
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: cb,
		now:     time.Now,
	}, nil
}

// Realtime fetches the current snapshot.
func (c *Client) Realtime(ctx context.Context) (models.RealtimeSnapshot, error) {
	var snap models.RealtimeSnapshot
	if err := c.getJSON(ctx, ActionRealtime, &snap); err != nil {
		return models.RealtimeSnapshot{}, err
	}
	return snap, nil
}

// History fetches readings for the selected look-back period.
func (c *Client) History(ctx context.Context, period models.HistoryPeriod) ([]models.HistoryItem, error) {
	action, err := historyAction(period)
	if err != nil {
		return nil, err
	}
	var items []models.HistoryItem
	if err := c.getJSON(ctx, action, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func historyAction(period models.HistoryPeriod) (string, error) {
	switch period {
	case models.Period1Hour:
		return ActionHistory1Hour, nil
	case models.Period1Day:
		return ActionHistory1Day, nil
	case models.Period1Week:
		return ActionHistory1Week, nil
	}
	return "", ErrInvalidPeriod
}

// SetRelay sends a setStatus command for one relay.
func (c *Client) SetRelay(ctx context.Context, relay, status string) error {
	if relay != "relay1" && relay != "relay2" {
		return ErrInvalidRelay
	}
	if status != models.RelayOn && status != models.RelayOff {
		return ErrInvalidStatus
	}
	return c.command(ctx, url.Values{
		"action": {ActionSetStatus},
		relay:    {status},
	})
}

// SetTimer sends a daily on/off time for a relay. The upstream parses a full
// datetime but only keeps the time-of-day, so the given HH:MM is combined with
// the current date. An empty time is a no-op that resolves without a request.
func (c *Client) SetTimer(ctx context.Context, key, timeOfDay string) error {
	switch key {
	case models.TimerKey1On, models.TimerKey1Off, models.TimerKey2On, models.TimerKey2Off:
	default:
		return ErrInvalidTimer
	}
	if strings.TrimSpace(timeOfDay) == "" {
		return nil
	}
	stamp, err := c.timerStamp(timeOfDay)
	if err != nil {
		return fmt.Errorf("parse timer %q: %w", timeOfDay, err)
	}
	return c.command(ctx, url.Values{
		"action": {ActionSetStatus},
		key:      {stamp},
	})
}

// timerStamp turns "HH:MM" (or "HH:MM:SS") into an RFC3339 datetime on today's date.
func (c *Client) timerStamp(timeOfDay string) (string, error) {
	var parsed time.Time
	var err error
	for _, layout := range []string{"15:04", "15:04:05"} {
		if parsed, err = time.Parse(layout, timeOfDay); err == nil {
			break
		}
	}
	if err != nil {
		return "", err
	}
	now := c.now()
	stamp := time.Date(now.Year(), now.Month(), now.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
	return stamp.Format(time.RFC3339), nil
}

// Ranges fetches the range definition table.
func (c *Client) Ranges(ctx context.Context) ([]models.RangeDefinition, error) {
	var out []models.RangeDefinition
	if err := c.getJSON(ctx, ActionGetRanges, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRanges replaces the whole range table.
func (c *Client) UpdateRanges(ctx context.Context, data []models.RangeDefinition) error {
	return c.commandWithData(ctx, ActionUpdateRanges, data)
}

// FuzzyRules fetches the fuzzy rule table.
func (c *Client) FuzzyRules(ctx context.Context) ([]models.FuzzyRule, error) {
	var out []models.FuzzyRule
	if err := c.getJSON(ctx, ActionGetRules, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFuzzyRules replaces the whole rule table.
func (c *Client) UpdateFuzzyRules(ctx context.Context, data []models.FuzzyRule) error {
	return c.commandWithData(ctx, ActionUpdateRules, data)
}

// Calibrations fetches the calibration constants, normalizing the upstream's
// positional [key, value, description] rows to named fields.
func (c *Client) Calibrations(ctx context.Context) ([]models.CalibrationItem, error) {
	var rows [][]any
	if err := c.getJSON(ctx, ActionGetCalibs, &rows); err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cellString(cell))
		}
		out = append(out, cells)
	}
	return models.UnmarshalRows(out), nil
}

// UpdateCalibrations replaces the calibration table using the positional shape.
func (c *Client) UpdateCalibrations(ctx context.Context, data []models.CalibrationItem) error {
	return c.commandWithData(ctx, ActionUpdateCalibs, models.MarshalRows(data))
}

func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// getJSON issues a query GET with a cache-busting timestamp parameter so
// intermediate caches cannot serve stale sensor data.
func (c *Client) getJSON(ctx context.Context, action string, out any) error {
	q := url.Values{
		"action": {action},
		"_ts":    {strconv.FormatInt(c.now().UnixMilli(), 10)},
	}
	body, err := c.execute(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), "", nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}
	return nil
}

// commandWithData wraps a whole-table payload into a command envelope.
func (c *Client) commandWithData(ctx context.Context, action string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", action, err)
	}
	return c.command(ctx, url.Values{
		"action": {action},
		"data":   {string(raw)},
	})
}

// command POSTs a form-encoded envelope and inspects the decoded reply: any
// status other than "error" is a success, otherwise the upstream message (or a
// generic fallback) is surfaced as the error.
func (c *Client) command(ctx context.Context, form url.Values) error {
	body, err := c.execute(ctx, http.MethodPost,
		c.baseURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	var resp models.CommandResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Some script deployments answer accepted commands with an HTML
		// redirect page instead of JSON. Anything else undecodable is a
		// failure, not a success.
		if isMarkup(body) {
			return nil
		}
		return fmt.Errorf("decode %s response: %w", form.Get("action"), err)
	}
	if resp.Status == "error" {
		if resp.Message != "" {
			return fmt.Errorf("upstream rejected %s: %s", form.Get("action"), resp.Message)
		}
		return fmt.Errorf("upstream rejected %s", form.Get("action"))
	}
	return nil
}

// isMarkup reports whether a reply body is an HTML/XML document.
func isMarkup(body []byte) bool {
	return strings.HasPrefix(strings.TrimSpace(string(body)), "<")
}

// execute runs one HTTP round-trip through the circuit breaker.
func (c *Client) execute(ctx context.Context, method, target, contentType string, body io.Reader) ([]byte, error) {
	res, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"aquadash/internal/backend"
	"aquadash/internal/models"
	"aquadash/internal/repository"
)

// HistoryService fetches and normalizes history series and renders CSV exports.
type HistoryService struct {
	upstream backend.Upstream
	archive  repository.ReadingRepo
	now      func() time.Time
}

func NewHistoryService(up backend.Upstream, archive repository.ReadingRepo) *HistoryService {
	return &HistoryService{upstream: up, archive: archive, now: time.Now}
}

// History fetches one period's readings and normalizes them: numeric coercion
// happens during decoding, timestamps are parsed, display times are formatted
// per period granularity, and the result is sorted ascending regardless of the
// order the upstream returned.
func (s *HistoryService) History(ctx context.Context, period models.HistoryPeriod) ([]models.HistoryItem, error) {
	if !period.Valid() {
		return nil, backend.ErrInvalidPeriod
	}
	items, err := s.upstream.History(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("fetch %s history: %w", period, err)
	}

	for i := range items {
		at := parseStamp(items[i].Timestamp)
		items[i].At = at
		if at.IsZero() {
			continue
		}
		local := at.Local()
		if period == models.Period1Week {
			items[i].DisplayTime = local.Format("2 Jan 15:04")
		} else {
			items[i].DisplayTime = local.Format("15:04")
		}
		items[i].FullDate = local.Format("2006-01-02 15:04:05")
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].At.Before(items[j].At)
	})
	return items, nil
}

// csvHeader is the fixed export column set.
const csvHeader = "Timestamp,Date,Time,Temperature (C),pH,TDS (ppm)"

// CSV serializes already-normalized history rows. Timestamp, date and time are
// quoted; numeric columns are bare. Empty history yields an empty document.
func (s *HistoryService) CSV(items []models.HistoryItem) []byte {
	if len(items) == 0 {
		return nil
	}
	var buf bytes.Buffer
	buf.WriteString(csvHeader)
	buf.WriteByte('\n')
	for _, it := range items {
		at := it.At
		if at.IsZero() {
			at = parseStamp(it.Timestamp)
		}
		local := at.Local()
		fmt.Fprintf(&buf, "%q,%q,%q,%s,%s,%s\n",
			it.Timestamp,
			local.Format("2006-01-02"),
			local.Format("15:04:05"),
			formatNum(float64(it.Temperature)),
			formatNum(float64(it.PH)),
			formatNum(float64(it.TDS)),
		)
	}
	return buf.Bytes()
}

// ExportFilename names a CSV download after the selected period and today's date.
func (s *HistoryService) ExportFilename(period models.HistoryPeriod) string {
	return fmt.Sprintf("aquadash_history_%s_%s.csv", period, s.now().Format("2006-01-02"))
}

// Readings serves a window of the local archive, already ascending.
func (s *HistoryService) Readings(ctx context.Context, from, to time.Time) ([]models.Reading, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, fmt.Errorf("invalid range: from %s is after to %s", from, to)
	}
	return s.archive.List(ctx, from, to)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseStamp accepts the timestamp shapes the sheet emits.
func parseStamp(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

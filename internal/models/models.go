package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Relay status values used across the whole system.
const (
	RelayOn  = "on"
	RelayOff = "off"
)

// Timer field keys accepted by the upstream setStatus command.
const (
	TimerKey1On  = "timer1On"
	TimerKey1Off = "timer1Off"
	TimerKey2On  = "timer2On"
	TimerKey2Off = "timer2Off"
)

// FlexFloat is a float64 that also accepts JSON strings ("26.5") because the
// upstream sheet service returns sensor values either as numbers or as text.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(f), 'f', -1, 64)), nil
}

// RealtimeSnapshot is the latest known sensor/actuator state. It is replaced
// wholesale on every poll; nothing is merged field-by-field.
type RealtimeSnapshot struct {
	Relay1         string    `json:"relay1"` // "on" | "off"
	Relay2         string    `json:"relay2"`
	Timestamp      string    `json:"Timestamp"`
	Timer1On       string    `json:"timer1On"` // ISO datetime or empty
	Timer1Off      string    `json:"timer1Off"`
	Timer2On       string    `json:"timer2On"`
	Timer2Off      string    `json:"timer2Off"`
	Temperature    FlexFloat `json:"suhu"`
	PH             FlexFloat `json:"ph"`
	TDS            FlexFloat `json:"tds"`
	Recommendation string    `json:"fuzzy_rekomendasi"`
	TempStatus     string    `json:"suhu_status"`
	PHStatus       string    `json:"ph_status"`
	TDSStatus      string    `json:"tds_status"`
}

// HistoryItem is one sensor reading at a point in time, immutable once fetched.
// DisplayTime and FullDate are filled during normalization for the chart.
type HistoryItem struct {
	Timestamp      string    `json:"timestamp"`
	Relay1         string    `json:"relay1"`
	Relay2         string    `json:"relay2"`
	Temperature    FlexFloat `json:"suhu"`
	PH             FlexFloat `json:"ph"`
	TDS            FlexFloat `json:"tds"`
	Recommendation string    `json:"fuzzy_rekomendasi"`
	DisplayTime    string    `json:"displayTime,omitempty"`
	FullDate       string    `json:"fullDate,omitempty"`
	At             time.Time `json:"-"` // parsed Timestamp, sort key
}

// HistoryPeriod selects the look-back window of a history query.
type HistoryPeriod string

const (
	Period1Hour HistoryPeriod = "1hour"
	Period1Day  HistoryPeriod = "1day"
	Period1Week HistoryPeriod = "1week"
)

// Valid reports whether p is one of the three supported periods.
func (p HistoryPeriod) Valid() bool {
	switch p {
	case Period1Hour, Period1Day, Period1Week:
		return true
	}
	return false
}

// RangeDefinition is a configured min/max band for a sensor category.
// Wire names match the upstream sheet columns.
type RangeDefinition struct {
	Variable string  `json:"Variabel"`
	Category string  `json:"Kategori"`
	Min      float64 `json:"Min"`
	Max      float64 `json:"Max"`
}

// FuzzyRule maps linguistic sensor terms to a recommended action.
type FuzzyRule struct {
	RuleID      int    `json:"RuleID"`
	Temperature string `json:"Suhu"`
	PH          string `json:"pH"`
	TDS         string `json:"TDS"`
	Action      string `json:"Aksi Direkomendasikan"`
}

// CalibrationItem is a tunable constant. The upstream transport shape is a 2D
// array of [key, value, description] rows; this is the normalized local form.
type CalibrationItem struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Reading is one locally archived snapshot sample.
type Reading struct {
	ID             string    `json:"id"`
	TakenAt        time.Time `json:"taken_at"`
	Temperature    float64   `json:"suhu"`
	PH             float64   `json:"ph"`
	TDS            float64   `json:"tds"`
	Relay1         string    `json:"relay1"`
	Relay2         string    `json:"relay2"`
	Recommendation string    `json:"fuzzy_rekomendasi,omitempty"`
}

// User is an operator account stored locally.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// CommandResponse is the decoded upstream reply to a command envelope.
type CommandResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// MarshalRows converts calibration items to the upstream positional shape.
// Column order is a fixed contract: key, value, description.
func MarshalRows(items []CalibrationItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.Key, it.Value, it.Description})
	}
	return rows
}

// UnmarshalRows converts upstream positional rows to named calibration items.
// Short rows are padded with empty fields rather than rejected.
func UnmarshalRows(rows [][]string) []CalibrationItem {
	items := make([]CalibrationItem, 0, len(rows))
	for _, row := range rows {
		var it CalibrationItem
		if len(row) > 0 {
			it.Key = row[0]
		}
		if len(row) > 1 {
			it.Value = row[1]
		}
		if len(row) > 2 {
			it.Description = row[2]
		}
		items = append(items, it)
	}
	return items
}

var _ json.Unmarshaler = (*FlexFloat)(nil)

package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"aquadash/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errGetRealtime = "failed to load realtime snapshot"
	errGetHistory  = "failed to load history"
	errToggleRelay = "failed to toggle relay"
	errSetTimer    = "failed to set timer"
	errGetReadings = "failed to load readings"

	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Current snapshot
// @Description  Live upstream snapshot; falls back to the local cache when the upstream is unreachable.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  models.RealtimeSnapshot
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/realtime [get]
func (h *Handler) getRealtime(c *gin.Context) {
	snap, err := h.services.Snapshot(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errGetRealtime, "realtime_fetch_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      History series
// @Tags         dashboard
// @Produce      json
// @Param        period  query  string  true  "Look-back window"  Enums(1hour,1day,1week)
// @Success      200  {array}   models.HistoryItem
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/history [get]
func (h *Handler) getHistory(c *gin.Context) {
	period := models.HistoryPeriod(c.DefaultQuery("period", string(models.Period1Hour)))
	if !period.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be 1hour, 1day or 1week"})
		return
	}
	items, err := h.services.History.History(c.Request.Context(), period)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errGetHistory, "history_fetch_failed", err, "period", period)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary      Export history as CSV
// @Tags         dashboard
// @Produce      text/csv
// @Param        period  query  string  true  "Look-back window"  Enums(1hour,1day,1week)
// @Success      200  {string}  string
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/history/export [get]
func (h *Handler) exportHistory(c *gin.Context) {
	period := models.HistoryPeriod(c.DefaultQuery("period", string(models.Period1Hour)))
	if !period.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be 1hour, 1day or 1week"})
		return
	}
	items, err := h.services.History.History(c.Request.Context(), period)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errGetHistory, "history_export_failed", err, "period", period)
		return
	}
	body := h.services.CSV(items)
	if len(body) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "empty", "message": "no history to export"})
		return
	}
	filename := h.services.ExportFilename(period)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

// @Summary      Toggle relay
// @Description  Inverts the relay's current state and returns the confirmed snapshot.
// @Tags         dashboard
// @Produce      json
// @Param        relay  path  string  true  "Relay"  Enums(relay1,relay2)
// @Success      200  {object}  map[string]interface{}  "status, relay, state"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/relay/{relay}/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggleRelay(c *gin.Context) {
	relay := c.Param("relay")
	if relay != "relay1" && relay != "relay2" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "relay must be relay1 or relay2"})
		return
	}
	snap, err := h.services.ToggleRelay(c.Request.Context(), relay)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errToggleRelay, "relay_toggle_failed", err, "relay", relay)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "toggled", "relay": relay, "state": snap})
}

// Request DTO for setting a timer.
type timerRequest struct {
	Key  string `json:"key" binding:"required"` // timer1On | timer1Off | timer2On | timer2Off
	Time string `json:"time"`                   // "HH:MM"; empty clears nothing and is a no-op
}

// @Summary      Set relay timer
// @Description  Saves a daily on/off time. An empty time is a no-op.
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body  timerRequest  true  "Timer payload"
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/timers [post]
// @Security     BearerAuth
func (h *Handler) setTimer(c *gin.Context) {
	var req timerRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	switch req.Key {
	case models.TimerKey1On, models.TimerKey1Off, models.TimerKey2On, models.TimerKey2Off:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown timer key"})
		return
	}
	snap, err := h.services.SetTimer(c.Request.Context(), req.Key, req.Time)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errSetTimer, "timer_set_failed", err, "key", req.Key)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "timer_set", "state": snap})
}

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      Archived readings
// @Description  Window of locally archived snapshots; served even when the upstream is down. Date-only 'to' is end-of-day inclusive.
// @Tags         dashboard
// @Produce      json
// @Param        from  query  string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"
// @Param        to    query  string  false  "End of range; date-only treated as end of day"
// @Success      200  {object}  map[string]interface{}  "count, readings"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/readings [get]
func (h *Handler) getReadings(c *gin.Context) {
	var (
		from time.Time
		to   time.Time
		err  error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return
	}

	readings, err := h.services.Readings(c.Request.Context(), from, to)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetReadings, "readings_list_failed", err, "from", from, "to", to)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(readings),
		"readings": readings,
	})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format %q", s)
}

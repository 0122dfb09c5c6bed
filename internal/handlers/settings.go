package handlers

import (
	"net/http"

	"aquadash/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errGetSettings  = "failed to load settings"
	errSaveSettings = "failed to save settings"
)

// @Summary      Range definitions
// @Tags         settings
// @Produce      json
// @Success      200  {array}   models.RangeDefinition
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/settings/ranges [get]
func (h *Handler) getRanges(c *gin.Context) {
	data, err := h.services.Ranges(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errGetSettings, "ranges_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// @Summary      Replace range definitions
// @Description  Saves the whole table, then reloads from the upstream; the response body is the persisted state.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Success      200  {array}   models.RangeDefinition
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/settings/ranges [put]
// @Security     BearerAuth
func (h *Handler) saveRanges(c *gin.Context) {
	var data []models.RangeDefinition
	if ok := h.bindJSONOrBadRequest(c, &data); !ok {
		return
	}
	saved, err := h.services.SaveRanges(c.Request.Context(), data)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errSaveSettings, "ranges_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// @Summary      Fuzzy rules
// @Tags         settings
// @Produce      json
// @Success      200  {array}   models.FuzzyRule
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/settings/rules [get]
func (h *Handler) getRules(c *gin.Context) {
	data, err := h.services.FuzzyRules(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errGetSettings, "rules_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// @Summary      Replace fuzzy rules
// @Tags         settings
// @Accept       json
// @Produce      json
// @Success      200  {array}   models.FuzzyRule
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/settings/rules [put]
// @Security     BearerAuth
func (h *Handler) saveRules(c *gin.Context) {
	var data []models.FuzzyRule
	if ok := h.bindJSONOrBadRequest(c, &data); !ok {
		return
	}
	saved, err := h.services.SaveFuzzyRules(c.Request.Context(), data)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errSaveSettings, "rules_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// @Summary      Calibration constants
// @Tags         settings
// @Produce      json
// @Success      200  {array}   models.CalibrationItem
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/settings/calibrations [get]
func (h *Handler) getCalibrations(c *gin.Context) {
	data, err := h.services.Calibrations(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errGetSettings, "calibrations_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// @Summary      Replace calibration constants
// @Tags         settings
// @Accept       json
// @Produce      json
// @Success      200  {array}   models.CalibrationItem
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/settings/calibrations [put]
// @Security     BearerAuth
func (h *Handler) saveCalibrations(c *gin.Context) {
	var data []models.CalibrationItem
	if ok := h.bindJSONOrBadRequest(c, &data); !ok {
		return
	}
	saved, err := h.services.SaveCalibrations(c.Request.Context(), data)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errSaveSettings, "calibrations_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

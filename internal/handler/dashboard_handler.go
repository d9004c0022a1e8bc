package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cordova-labs/booking-portal-api/internal/service"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
	"github.com/cordova-labs/booking-portal-api/pkg/response"
)

// DashboardHandler exposes the admin daily snapshot.
type DashboardHandler struct {
	dashboard *service.DashboardService
	metrics   *service.MetricsService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, metrics: metrics}
}

// Daily godoc
// @Summary Daily operations snapshot
// @Tags Dashboard
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /dashboard/daily [get]
func (h *DashboardHandler) Daily(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	snapshot, hit, err := h.dashboard.DailySnapshot(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCacheOperation(hit)
	response.JSON(c, http.StatusOK, snapshot, nil, map[string]interface{}{"cache_hit": hit})
}

// Refresh godoc
// @Summary Rebuild the daily snapshot, bypassing the cache
// @Tags Dashboard
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /dashboard/daily/refresh [post]
func (h *DashboardHandler) Refresh(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	snapshot, err := h.dashboard.Refresh(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

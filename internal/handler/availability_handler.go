package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cordova-labs/booking-portal-api/internal/service"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
	"github.com/cordova-labs/booking-portal-api/pkg/response"
)

// AvailabilityHandler exposes the pre-flight slot availability table.
type AvailabilityHandler struct {
	engine *service.AllocationService
}

// NewAvailabilityHandler constructs AvailabilityHandler.
func NewAvailabilityHandler(engine *service.AllocationService) *AvailabilityHandler {
	return &AvailabilityHandler{engine: engine}
}

// Summary godoc
// @Summary Per-slot remaining capacity and possible RP counts
// @Tags Availability
// @Produce json
// @Param subject_id query string true "Subject"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param session_type_id query string true "Session type"
// @Success 200 {object} response.Envelope
// @Router /availability/summary [get]
func (h *AvailabilityHandler) Summary(c *gin.Context) {
	subjectID := c.Query("subject_id")
	sessionTypeID := c.Query("session_type_id")
	rawDate := c.Query("date")
	if subjectID == "" || sessionTypeID == "" || rawDate == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subject_id, date and session_type_id are required"))
		return
	}

	date, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD"))
		return
	}

	summary, err := h.engine.AvailableSlotsSummary(c.Request.Context(), subjectID, date, sessionTypeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

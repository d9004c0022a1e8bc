package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	"github.com/cordova-labs/booking-portal-api/internal/service"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
	"github.com/cordova-labs/booking-portal-api/pkg/response"
)

// UnavailabilityHandler exposes the RP absence registry.
type UnavailabilityHandler struct {
	unavailability *service.UnavailabilityService
}

// NewUnavailabilityHandler constructs UnavailabilityHandler.
func NewUnavailabilityHandler(unavailability *service.UnavailabilityService) *UnavailabilityHandler {
	return &UnavailabilityHandler{unavailability: unavailability}
}

// Mark godoc
// @Summary Mark an RP unavailable
// @Tags Unavailability
// @Accept json
// @Produce json
// @Param payload body models.MarkUnavailabilityRequest true "Absence"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Identical record exists"
// @Router /unavailability [post]
func (h *UnavailabilityHandler) Mark(c *gin.Context) {
	var req models.MarkUnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.unavailability.Mark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// ListByDate godoc
// @Summary List absences on a date
// @Tags Unavailability
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /unavailability [get]
func (h *UnavailabilityHandler) ListByDate(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD"))
		return
	}
	records, err := h.unavailability.ListByDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Remove godoc
// @Summary Delete an absence record
// @Tags Unavailability
// @Param id path string true "Record ID"
// @Success 204 "No Content"
// @Router /unavailability/{id} [delete]
func (h *UnavailabilityHandler) Remove(c *gin.Context) {
	if err := h.unavailability.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

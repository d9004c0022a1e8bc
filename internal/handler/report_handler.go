package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	"github.com/cordova-labs/booking-portal-api/internal/service"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
	"github.com/cordova-labs/booking-portal-api/pkg/response"
)

// ReportHandler exposes admin export downloads.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// SchedulePDF godoc
// @Summary Download the booking schedule for a date as PDF
// @Tags Reports
// @Produce application/pdf
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /reports/schedule.pdf [get]
func (h *ReportHandler) SchedulePDF(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD"))
		return
	}

	out, err := h.reports.BookingSchedulePDF(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("schedule-%s.pdf", date.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", out)
}

// FeedbackCSV godoc
// @Summary Download the feedback log as CSV
// @Tags Reports
// @Produce text/csv
// @Param school_id query string false "Filter by school"
// @Param rp_id query string false "Filter by RP"
// @Param subject_id query string false "Filter by subject"
// @Success 200 {file} binary
// @Router /reports/feedback.csv [get]
func (h *ReportHandler) FeedbackCSV(c *gin.Context) {
	filter := models.FeedbackFilter{
		SchoolID:  c.Query("school_id"),
		RPID:      c.Query("rp_id"),
		SubjectID: c.Query("subject_id"),
	}

	out, err := h.reports.FeedbackCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="feedback.csv"`)
	c.Data(http.StatusOK, "text/csv", out)
}

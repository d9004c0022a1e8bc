package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	"github.com/cordova-labs/booking-portal-api/pkg/export"
)

type reportFeedbackSource interface {
	List(ctx context.Context, filter models.FeedbackFilter) ([]models.FeedbackRecord, int, error)
}

// ReportService produces downloadable exports for admins: the day's booking
// schedule as a PDF and the feedback log as CSV. Exports are rendered
// synchronously from live table contents.
type ReportService struct {
	bookings dashboardBookingSource
	feedback reportFeedbackSource
	pdf      *export.PDFExporter
	csv      *export.CSVExporter
	logger   *zap.Logger
}

func NewReportService(bookings dashboardBookingSource, feedback reportFeedbackSource, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		bookings: bookings,
		feedback: feedback,
		pdf:      export.NewPDFExporter(),
		csv:      export.NewCSVExporter(),
		logger:   logger,
	}
}

var bookingReportHeaders = []string{"Date", "Slot", "School", "Subject", "Session Type", "RP", "Status", "Topic"}

// BookingSchedulePDF renders the booking schedule for a date.
func (s *ReportService) BookingSchedulePDF(ctx context.Context, date time.Time) ([]byte, error) {
	day := date
	bookings, _, err := s.bookings.List(ctx, models.BookingFilter{Date: &day, Page: 1, PageSize: 500})
	if err != nil {
		return nil, fmt.Errorf("load bookings for report: %w", err)
	}

	rows := make([]map[string]string, 0, len(bookings))
	for _, b := range bookings {
		rpID := ""
		if b.RPID != nil {
			rpID = *b.RPID
		}
		rows = append(rows, map[string]string{
			"Date":         b.Date.Format("2006-01-02"),
			"Slot":         b.SlotID,
			"School":       b.SchoolID,
			"Subject":      b.SubjectID,
			"Session Type": b.SessionTypeID,
			"RP":           rpID,
			"Status":       string(b.Status),
			"Topic":        b.Topic,
		})
	}

	title := "Session Schedule " + date.Format("2006-01-02")
	out, err := s.pdf.Render(export.Dataset{Headers: bookingReportHeaders, Rows: rows}, title)
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking schedule exported",
		zap.String("date", date.Format("2006-01-02")),
		zap.Int("rows", len(rows)))
	return out, nil
}

var feedbackReportHeaders = []string{"Booking ID", "Date", "School", "Subject", "RP", "Conducted", "Teacher Rating", "Engagement", "School Feedback", "Notes"}

// FeedbackCSV renders the feedback log matching the filter.
func (s *ReportService) FeedbackCSV(ctx context.Context, filter models.FeedbackFilter) ([]byte, error) {
	filter.Page = 1
	filter.PageSize = 1000
	records, _, err := s.feedback.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load feedback for report: %w", err)
	}

	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		rpID := ""
		if r.RPID != nil {
			rpID = *r.RPID
		}
		rows = append(rows, map[string]string{
			"Booking ID":      r.BookingID,
			"Date":            r.Date.Format("2006-01-02"),
			"School":          r.SchoolID,
			"Subject":         r.SubjectID,
			"RP":              rpID,
			"Conducted":       strconv.FormatBool(r.WasConducted),
			"Teacher Rating":  strconv.Itoa(r.TeacherResponseRating),
			"Engagement":      strconv.Itoa(r.EngagementRating),
			"School Feedback": r.SchoolFeedback,
			"Notes":           r.Notes,
		})
	}

	out, err := s.csv.Render(export.Dataset{Headers: feedbackReportHeaders, Rows: rows})
	if err != nil {
		return nil, err
	}

	s.logger.Info("feedback log exported", zap.Int("rows", len(rows)))
	return out, nil
}

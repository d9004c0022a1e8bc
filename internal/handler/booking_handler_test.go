package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/cordova-labs/booking-portal-api/internal/middleware"
	"github.com/cordova-labs/booking-portal-api/internal/models"
	"github.com/cordova-labs/booking-portal-api/internal/service"
)

type stubBookingStore struct {
	created    []*models.Booking
	listFilter models.BookingFilter
	listResult []models.Booking
}

func (s *stubBookingStore) List(_ context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	s.listFilter = filter
	return s.listResult, len(s.listResult), nil
}

func (s *stubBookingStore) FindByID(context.Context, string) (*models.Booking, error) {
	return nil, sql.ErrNoRows
}

func (s *stubBookingStore) Create(_ context.Context, booking *models.Booking) error {
	s.created = append(s.created, booking)
	return nil
}

func (s *stubBookingStore) UpdateStatus(context.Context, string, models.BookingStatus, string) error {
	return nil
}

func (s *stubBookingStore) Reassign(context.Context, string, time.Time, string, string) error {
	return nil
}

func (s *stubBookingStore) MarkAttendance(context.Context, string, models.AttendanceStatus, string, models.BookingStatus, time.Time) error {
	return nil
}

type stubSchoolStore struct{}

func (stubSchoolStore) FindByID(_ context.Context, id string) (*models.School, error) {
	return &models.School{ID: id, Name: "SMA 1", Active: true}, nil
}

func (stubSchoolStore) FindByName(context.Context, string) (*models.School, error) {
	return nil, sql.ErrNoRows
}

func (stubSchoolStore) Create(context.Context, *models.School) error { return nil }

type stubRPResolver struct{}

func (stubRPResolver) FindByUserID(context.Context, string) (*models.ResourcePerson, error) {
	return nil, sql.ErrNoRows
}

type stubAllocator struct {
	rpID string
	got  service.AssignRequest
}

func (s *stubAllocator) AssignRP(_ context.Context, req service.AssignRequest) (string, error) {
	s.got = req
	return s.rpID, nil
}

func newBookingHandlerUnderTest(store *stubBookingStore, engine *stubAllocator) *BookingHandler {
	bookings := service.NewBookingService(store, stubSchoolStore{}, stubRPResolver{}, engine, nil, nil, nil)
	return NewBookingHandler(bookings, nil)
}

func postJSON(c *gin.Context, target, body string) {
	c.Request = httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
}

func TestBookingHandlerCreateAssignsRP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &stubBookingStore{}
	engine := &stubAllocator{rpID: "rp-1"}
	handler := newBookingHandlerUnderTest(store, engine)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "sales-1", Role: models.RoleSalesperson})
	postJSON(c, "/bookings", `{
		"date": "2025-03-05",
		"slot_id": "slot-1",
		"subject_id": "subj-1",
		"session_type_id": "type-1",
		"school_id": "school-1"
	}`)

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, store.created, 1)
	assert.Equal(t, "sales-1", store.created[0].SalespersonID)
	if assert.NotNil(t, store.created[0].RPID) {
		assert.Equal(t, "rp-1", *store.created[0].RPID)
	}
	assert.Equal(t, "school-1", engine.got.SchoolID)
	assert.Equal(t, "slot-1", engine.got.SlotID)
}

func TestBookingHandlerCreateNoRPAvailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &stubBookingStore{}
	handler := newBookingHandlerUnderTest(store, &stubAllocator{rpID: ""})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "sales-1", Role: models.RoleSalesperson})
	postJSON(c, "/bookings", `{
		"date": "2025-03-05",
		"slot_id": "slot-1",
		"subject_id": "subj-1",
		"session_type_id": "type-1",
		"school_id": "school-1"
	}`)

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope errorEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "NO_RP_AVAILABLE", envelope.Error.Code)
	assert.Empty(t, store.created)
}

func TestBookingHandlerCreateRejectsBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBookingHandlerUnderTest(&stubBookingStore{}, &stubAllocator{rpID: "rp-1"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "sales-1", Role: models.RoleSalesperson})
	postJSON(c, "/bookings", `{"date": "2025-03-05"}`)

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandlerCreateRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBookingHandlerUnderTest(&stubBookingStore{}, &stubAllocator{rpID: "rp-1"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	postJSON(c, "/bookings", `{}`)

	handler.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookingHandlerListScopesSalesperson(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &stubBookingStore{listResult: []models.Booking{{ID: "bk-1"}}}
	handler := newBookingHandlerUnderTest(store, &stubAllocator{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "sales-1", Role: models.RoleSalesperson})
	c.Request = httptest.NewRequest(http.MethodGet, "/bookings?date=2025-03-05", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sales-1", store.listFilter.SalespersonID)
	if assert.NotNil(t, store.listFilter.Date) {
		assert.Equal(t, "2025-03-05", store.listFilter.Date.Format("2006-01-02"))
	}
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

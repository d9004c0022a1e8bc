package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cordova-labs/booking-portal-api/internal/models"
	"github.com/cordova-labs/booking-portal-api/internal/service"
	appErrors "github.com/cordova-labs/booking-portal-api/pkg/errors"
	"github.com/cordova-labs/booking-portal-api/pkg/response"
)

// CatalogHandler exposes the scheduling reference data endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListSlots godoc
// @Summary List time slots
// @Tags Catalog
// @Produce json
// @Param include_inactive query bool false "Include retired slots"
// @Success 200 {object} response.Envelope
// @Router /catalog/slots [get]
func (h *CatalogHandler) ListSlots(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	slots, err := h.catalog.ListSlots(c.Request.Context(), includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// CreateSlot godoc
// @Summary Create a time slot
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.CreateSlotRequest true "Slot"
// @Success 201 {object} response.Envelope
// @Router /catalog/slots [post]
func (h *CatalogHandler) CreateSlot(c *gin.Context) {
	var req models.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.catalog.CreateSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// SetSlotActive godoc
// @Summary Retire or reactivate a slot
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Success 204 "No Content"
// @Router /catalog/slots/{id}/active [put]
func (h *CatalogHandler) SetSlotActive(c *gin.Context) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.catalog.SetSlotActive(c.Request.Context(), c.Param("id"), req.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.catalog.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// CreateSubject godoc
// @Summary Create a subject
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.CreateSubjectRequest true "Subject"
// @Success 201 {object} response.Envelope
// @Router /catalog/subjects [post]
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var req models.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.catalog.CreateSubject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// ListSessionTypes godoc
// @Summary List session types
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/session-types [get]
func (h *CatalogHandler) ListSessionTypes(c *gin.Context) {
	types, err := h.catalog.ListSessionTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// CreateSessionType godoc
// @Summary Create a session type
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.CreateSessionTypeRequest true "Session type"
// @Success 201 {object} response.Envelope
// @Router /catalog/session-types [post]
func (h *CatalogHandler) CreateSessionType(c *gin.Context) {
	var req models.CreateSessionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sessionType, err := h.catalog.CreateSessionType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sessionType)
}

// ListResourcePersons godoc
// @Summary List resource persons
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/resource-persons [get]
func (h *CatalogHandler) ListResourcePersons(c *gin.Context) {
	rps, err := h.catalog.ListResourcePersons(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rps, nil)
}

// CreateResourcePerson godoc
// @Summary Create a resource person
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.CreateResourcePersonRequest true "Resource person"
// @Success 201 {object} response.Envelope
// @Router /catalog/resource-persons [post]
func (h *CatalogHandler) CreateResourcePerson(c *gin.Context) {
	var req models.CreateResourcePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rp, err := h.catalog.CreateResourcePerson(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rp)
}

// ListRules godoc
// @Summary List eligibility rules for a subject
// @Tags Catalog
// @Produce json
// @Param subject_id query string true "Subject"
// @Success 200 {object} response.Envelope
// @Router /catalog/rules [get]
func (h *CatalogHandler) ListRules(c *gin.Context) {
	rules, err := h.catalog.ListRules(c.Request.Context(), c.Query("subject_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// CreateRule godoc
// @Summary Create an eligibility rule
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.CreateRuleRequest true "Rule"
// @Success 201 {object} response.Envelope
// @Router /catalog/rules [post]
func (h *CatalogHandler) CreateRule(c *gin.Context) {
	var req models.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.catalog.CreateRule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// DeleteRule godoc
// @Summary Delete an eligibility rule
// @Tags Catalog
// @Param id path string true "Rule ID"
// @Success 204 "No Content"
// @Router /catalog/rules/{id} [delete]
func (h *CatalogHandler) DeleteRule(c *gin.Context) {
	if err := h.catalog.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

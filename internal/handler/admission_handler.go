package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/models"
	"github.com/noah-isme/institute-portal-api/pkg/response"
)

type admissionService interface {
	Submit(ctx context.Context, req dto.SubmitAdmissionRequest) (*models.Admission, error)
	SaveDraft(ctx context.Context, req dto.SaveDraftRequest) (*models.Admission, error)
	Track(ctx context.Context, cnic string) ([]models.AdmissionTrack, error)
	List(ctx context.Context, query dto.AdmissionQuery) ([]models.Admission, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Admission, error)
	Approve(ctx context.Context, id, reviewerID string) (*models.AdmissionDecision, error)
	Reject(ctx context.Context, id string, req dto.RejectAdmissionRequest, reviewerID string) (*models.Admission, error)
}

// AdmissionHandler exposes the public admission form and the admin review queue.
type AdmissionHandler struct {
	service admissionService
}

// NewAdmissionHandler builds a new handler.
func NewAdmissionHandler(svc admissionService) *AdmissionHandler {
	return &AdmissionHandler{service: svc}
}

// Submit godoc
// @Summary Submit admission form
// @Description Validates and stores a new admission with status Pending
// @Tags Admissions
// @Accept json
// @Produce json
// @Param payload body dto.SubmitAdmissionRequest true "Admission form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admissions [post]
func (h *AdmissionHandler) Submit(c *gin.Context) {
	var req dto.SubmitAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	admission, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, admission)
}

// SaveDraft godoc
// @Summary Save admission draft
// @Tags Admissions
// @Accept json
// @Produce json
// @Param payload body dto.SaveDraftRequest true "Partial admission form"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admissions/drafts [post]
func (h *AdmissionHandler) SaveDraft(c *gin.Context) {
	var req dto.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	draft, err := h.service.SaveDraft(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, draft, nil)
}

// Track godoc
// @Summary Track admission status
// @Tags Admissions
// @Produce json
// @Param cnic query string true "National ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admissions/track [get]
func (h *AdmissionHandler) Track(c *gin.Context) {
	var query dto.TrackAdmissionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}

	items, err := h.service.Track(c.Request.Context(), query.CNIC)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// List godoc
// @Summary List admissions
// @Tags Admissions
// @Produce json
// @Param status query string false "Pending, Approved or Rejected"
// @Param course_id query string false "Course"
// @Param is_draft query bool false "Draft flag"
// @Param search query string false "Name or national ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "created_at or first_name"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /admin/admissions [get]
func (h *AdmissionHandler) List(c *gin.Context) {
	var query dto.AdmissionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}

	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get admission
// @Tags Admissions
// @Produce json
// @Param id path string true "Admission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/admissions/{id} [get]
func (h *AdmissionHandler) Get(c *gin.Context) {
	admission, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, admission, nil)
}

// Approve godoc
// @Summary Approve admission
// @Description Approves a pending admission and creates its register entry
// @Tags Admissions
// @Produce json
// @Param id path string true "Admission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/admissions/{id}/approve [post]
func (h *AdmissionHandler) Approve(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	decision, err := h.service.Approve(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, decision, nil)
}

// Reject godoc
// @Summary Reject admission
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Admission ID"
// @Param payload body dto.RejectAdmissionRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/admissions/{id}/reject [post]
func (h *AdmissionHandler) Reject(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req dto.RejectAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	admission, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, admission, nil)
}

package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/models"
	"github.com/noah-isme/institute-portal-api/internal/service"
	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
	"github.com/noah-isme/institute-portal-api/pkg/response"
)

type registerService interface {
	List(ctx context.Context, query dto.RegisterQuery) ([]models.RegisterEntry, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.RegisterEntry, error)
	GetByRegistrationNo(ctx context.Context, registrationNo string) (*models.RegisterEntry, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateRegisterStatusRequest, actorID string) (*models.RegisterEntry, error)
	Export(ctx context.Context, req dto.ExportRegisterRequest, actorID string) (*models.RegisterExport, error)
	OpenExport(ctx context.Context, token string) (*service.ExportDownload, error)
	ProvisionAccount(ctx context.Context, id string, req dto.ProvisionAccountRequest, actorID string) (*models.User, error)
	MyEnrollment(ctx context.Context, claims *models.JWTClaims) (*models.Enrollment, error)
}

// RegisterHandler exposes the student register.
type RegisterHandler struct {
	service registerService
}

// NewRegisterHandler builds a new handler.
func NewRegisterHandler(svc registerService) *RegisterHandler {
	return &RegisterHandler{service: svc}
}

// List godoc
// @Summary List register entries
// @Tags Register
// @Produce json
// @Param status query string false "Register status"
// @Param course_id query string false "Course"
// @Param search query string false "Name, national ID or registration number"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/register [get]
func (h *RegisterHandler) List(c *gin.Context) {
	var query dto.RegisterQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}

	entries, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, pagination)
}

// Get godoc
// @Summary Get register entry
// @Tags Register
// @Produce json
// @Param id path string true "Register entry ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/register/{id} [get]
func (h *RegisterHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// GetByRegistrationNo godoc
// @Summary Get register entry by registration number
// @Tags Register
// @Produce json
// @Param registration_no path string true "Registration number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/register/by-number/{registration_no} [get]
func (h *RegisterHandler) GetByRegistrationNo(c *gin.Context) {
	entry, err := h.service.GetByRegistrationNo(c.Request.Context(), c.Param("registration_no"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// UpdateStatus godoc
// @Summary Change register status
// @Description Moves a register entry along the Active, Suspended, Rusticated, Certified lifecycle
// @Tags Register
// @Accept json
// @Produce json
// @Param id path string true "Register entry ID"
// @Param payload body dto.UpdateRegisterStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/register/{id}/status [patch]
func (h *RegisterHandler) UpdateStatus(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req dto.UpdateRegisterStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	entry, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Export godoc
// @Summary Export register
// @Description Renders the filtered register to CSV or PDF and returns a signed download link
// @Tags Register
// @Accept json
// @Produce json
// @Param payload body dto.ExportRegisterRequest true "Export filters"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/register/export [post]
func (h *RegisterHandler) Export(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req dto.ExportRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	result, err := h.service.Export(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}

// Download godoc
// @Summary Download register export
// @Tags Register
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /register/exports/download [get]
func (h *RegisterHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	download, err := h.service.OpenExport(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export"))
		return
	}

	c.DataFromReader(http.StatusOK, info.Size(), download.ContentType, download.File, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.FileName),
		"Cache-Control":       "no-store",
	})
}

// ProvisionAccount godoc
// @Summary Provision student account
// @Description Creates the student login for a register entry; the username is the registration number
// @Tags Register
// @Accept json
// @Produce json
// @Param id path string true "Register entry ID"
// @Param payload body dto.ProvisionAccountRequest true "Initial credentials"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/register/{id}/account [post]
func (h *RegisterHandler) ProvisionAccount(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req dto.ProvisionAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	user, err := h.service.ProvisionAccount(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// MyEnrollment godoc
// @Summary Current student's enrollment
// @Tags Register
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /me/enrollment [get]
func (h *RegisterHandler) MyEnrollment(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	enrollment, err := h.service.MyEnrollment(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

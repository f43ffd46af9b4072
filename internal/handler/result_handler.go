package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/models"
	"github.com/noah-isme/institute-portal-api/internal/service"
	"github.com/noah-isme/institute-portal-api/pkg/response"
)

type resultService interface {
	Lookup(ctx context.Context, query dto.ResultLookupQuery) (*service.ResultLookup, error)
	Publish(ctx context.Context, req dto.PublishResultRequest, actorID string) (*models.ExamResult, error)
}

// ResultHandler exposes exam results.
type ResultHandler struct {
	service resultService
}

// NewResultHandler builds a new handler.
func NewResultHandler(svc resultService) *ResultHandler {
	return &ResultHandler{service: svc}
}

// Lookup godoc
// @Summary Look up exam results
// @Description Returns results only when the registration number and national ID belong to the same student
// @Tags Results
// @Produce json
// @Param registration_no query string true "Registration number"
// @Param cnic query string true "National ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /results [get]
func (h *ResultHandler) Lookup(c *gin.Context) {
	var query dto.ResultLookupQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}

	card, err := h.service.Lookup(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// Publish godoc
// @Summary Publish exam result
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body dto.PublishResultRequest true "Result"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/results [post]
func (h *ResultHandler) Publish(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req dto.PublishResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	result, err := h.service.Publish(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/models"
	"github.com/noah-isme/institute-portal-api/pkg/response"
)

type catalogService interface {
	Products(ctx context.Context) ([]models.Product, bool, error)
	Product(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, req dto.ProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, req dto.ProductRequest) (*models.Product, error)
	Alerts(ctx context.Context) ([]models.NewsAlert, bool, error)
	CreateAlert(ctx context.Context, req dto.AlertRequest) (*models.NewsAlert, error)
	DeleteAlert(ctx context.Context, id string) error
}

// CatalogHandler serves shop products and news alerts.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler builds a new handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Products godoc
// @Summary List products
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /products [get]
func (h *CatalogHandler) Products(c *gin.Context) {
	items, hit, err := h.service.Products(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, items, nil, hit)
}

// Product godoc
// @Summary Get product
// @Tags Catalog
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /products/{id} [get]
func (h *CatalogHandler) Product(c *gin.Context) {
	item, err := h.service.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Public(c, item, nil, nil)
}

// CreateProduct godoc
// @Summary Create product
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.ProductRequest true "Product"
// @Success 201 {object} response.Envelope
// @Router /admin/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateProduct godoc
// @Summary Update product
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param payload body dto.ProductRequest true "Product"
// @Success 200 {object} response.Envelope
// @Router /admin/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Alerts godoc
// @Summary List news alerts
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /alerts [get]
func (h *CatalogHandler) Alerts(c *gin.Context) {
	items, hit, err := h.service.Alerts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, items, nil, hit)
}

// CreateAlert godoc
// @Summary Publish news alert
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.AlertRequest true "Alert"
// @Success 201 {object} response.Envelope
// @Router /admin/alerts [post]
func (h *CatalogHandler) CreateAlert(c *gin.Context) {
	var req dto.AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	alert, err := h.service.CreateAlert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, alert)
}

// DeleteAlert godoc
// @Summary Delete news alert
// @Tags Catalog
// @Param id path string true "Alert ID"
// @Success 204
// @Router /admin/alerts/{id} [delete]
func (h *CatalogHandler) DeleteAlert(c *gin.Context) {
	if err := h.service.DeleteAlert(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

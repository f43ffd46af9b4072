package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/models"
	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
	"github.com/noah-isme/institute-portal-api/pkg/sanitize"
	"github.com/noah-isme/institute-portal-api/pkg/validation"
)

type productRepository interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
}

type alertRepository interface {
	ListActive(ctx context.Context, now time.Time) ([]models.NewsAlert, error)
	Create(ctx context.Context, alert *models.NewsAlert) error
	Delete(ctx context.Context, id string) error
}

// CatalogTTLs sets cache lifetimes for public content.
type CatalogTTLs struct {
	Products time.Duration
	Alerts   time.Duration
}

// CatalogService serves the shop and news alerts shown on public pages.
type CatalogService struct {
	products  productRepository
	alerts    alertRepository
	cache     *CacheService
	ttls      CatalogTTLs
	validator structValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(products productRepository, alerts alertRepository, cache *CacheService, ttls CatalogTTLs, validate structValidator, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &CatalogService{products: products, alerts: alerts, cache: cache, ttls: ttls, validator: validate, logger: logger, now: time.Now}
}

// Products lists active products. The boolean reports a cache hit.
func (s *CatalogService) Products(ctx context.Context) ([]models.Product, bool, error) {
	var items []models.Product
	hit, err := s.cache.Remember(ctx, cacheKeyProducts+"active", s.ttls.Products, &items, func() error {
		var err error
		items, err = s.products.ListActive(ctx)
		return err
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list products")
	}
	if items == nil {
		items = []models.Product{}
	}
	return items, hit, nil
}

// Product fetches one product; inactive products are not found.
func (s *CatalogService) Product(ctx context.Context, id string) (*models.Product, error) {
	if err := requireID(id, "product"); err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	if !product.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
	}
	return product, nil
}

// CreateProduct adds a product to the shop.
func (s *CatalogService) CreateProduct(ctx context.Context, req dto.ProductRequest) (*models.Product, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	product := productFromRequest(req)
	if req.Active == nil {
		product.Active = true
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create product")
	}
	_ = s.cache.Invalidate(ctx, cacheKeyProducts+"*")
	return product, nil
}

// UpdateProduct replaces a product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, req dto.ProductRequest) (*models.Product, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if err := requireID(id, "product"); err != nil {
		return nil, err
	}
	current, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	product := productFromRequest(req)
	product.ID = id
	product.CreatedAt = current.CreatedAt
	if req.Active == nil {
		product.Active = current.Active
	}
	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update product")
	}
	_ = s.cache.Invalidate(ctx, cacheKeyProducts+"*")
	return product, nil
}

// Alerts lists active, unexpired news alerts. The boolean reports a cache hit.
func (s *CatalogService) Alerts(ctx context.Context) ([]models.NewsAlert, bool, error) {
	var items []models.NewsAlert
	hit, err := s.cache.Remember(ctx, cacheKeyAlerts+"active", s.ttls.Alerts, &items, func() error {
		var err error
		items, err = s.alerts.ListActive(ctx, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}
	if items == nil {
		items = []models.NewsAlert{}
	}
	return items, hit, nil
}

// CreateAlert publishes a news alert.
func (s *CatalogService) CreateAlert(ctx context.Context, req dto.AlertRequest) (*models.NewsAlert, error) {
	req.Title = sanitize.Text(req.Title)
	req.Body = sanitize.RichText(req.Body)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, appErrors.Validation("validation failed", []appErrors.FieldError{{
			Field: "expires_at", Tag: "future", Message: "expires_at must be in the future",
		}})
	}
	alert := &models.NewsAlert{Title: req.Title, Body: req.Body, Active: true, ExpiresAt: req.ExpiresAt}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create alert")
	}
	_ = s.cache.Invalidate(ctx, cacheKeyAlerts+"*")
	return alert, nil
}

// DeleteAlert removes a news alert.
func (s *CatalogService) DeleteAlert(ctx context.Context, id string) error {
	if err := requireID(id, "alert"); err != nil {
		return err
	}
	if err := s.alerts.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete alert")
	}
	_ = s.cache.Invalidate(ctx, cacheKeyAlerts+"*")
	return nil
}

func productFromRequest(req dto.ProductRequest) *models.Product {
	tags := make([]string, 0, len(req.Tags))
	for _, t := range req.Tags {
		tags = append(tags, strings.ToLower(strings.TrimSpace(t)))
	}
	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: sanitize.Text(req.Description),
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Tags:        tags,
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	return product
}

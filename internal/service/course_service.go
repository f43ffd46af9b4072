package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/models"
	"github.com/noah-isme/institute-portal-api/internal/repository"
	"github.com/noah-isme/institute-portal-api/pkg/database"
	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
	"github.com/noah-isme/institute-portal-api/pkg/validation"
)

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Deactivate(ctx context.Context, id string) error
}

type coursePage struct {
	Items []models.Course `json:"items"`
	Total int             `json:"total"`
}

// CourseService manages the course catalogue. Public listings are cached.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	ttl       time.Duration
	validator structValidator
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, cache *CacheService, ttl time.Duration, validate structValidator, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &CourseService{repo: repo, cache: cache, ttl: ttl, validator: validate, logger: logger}
}

// ListPublic returns active courses, served from cache when possible. The boolean reports a cache hit.
func (s *CourseService) ListPublic(ctx context.Context, query dto.CourseQuery) ([]models.Course, *models.Pagination, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, false, err
	}
	filter := models.CourseFilter{ActiveOnly: true, Search: strings.TrimSpace(query.Search), Page: query.Page, PageSize: query.PageSize}
	key := fmt.Sprintf("%spublic:%s:%d:%d", cacheKeyCourses, strings.ToLower(filter.Search), filter.Page, filter.PageSize)

	var page coursePage
	hit, err := s.cache.Remember(ctx, key, s.ttl, &page, func() error {
		items, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return err
		}
		page = coursePage{Items: items, Total: total}
		return nil
	})
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if page.Items == nil {
		page.Items = []models.Course{}
	}
	return page.Items, newPagination(query.Page, query.PageSize, page.Total), hit, nil
}

// ListAll returns every course including inactive ones.
func (s *CourseService) ListAll(ctx context.Context, query dto.CourseQuery) ([]models.Course, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.List(ctx, models.CourseFilter{Search: strings.TrimSpace(query.Search), Page: query.Page, PageSize: query.PageSize})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return items, newPagination(query.Page, query.PageSize, total), nil
}

// Get returns a course. Inactive courses are hidden unless includeInactive is set.
func (s *CourseService) Get(ctx context.Context, id string, includeInactive bool) (*models.Course, error) {
	if err := requireID(id, "course"); err != nil {
		return nil, err
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active && !includeInactive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

// Create adds a course to the catalogue.
func (s *CourseService) Create(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	course := courseFromRequest(req)
	if req.Active == nil {
		course.Active = true
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if database.IsUniqueViolation(err, repository.CourseCodeConstraint) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx)
	return course, nil
}

// Update replaces a course's editable fields.
func (s *CourseService) Update(ctx context.Context, id string, req dto.CourseRequest) (*models.Course, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	course := courseFromRequest(req)
	course.ID = id
	course.CreatedAt = current.CreatedAt
	if req.Active == nil {
		course.Active = current.Active
	}
	if err := s.repo.Update(ctx, course); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		case database.IsUniqueViolation(err, repository.CourseCodeConstraint):
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidate(ctx)
	return course, nil
}

// Deactivate closes a course for admissions and hides it from the catalogue.
func (s *CourseService) Deactivate(ctx context.Context, id string) error {
	if err := requireID(id, "course"); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate course")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CourseService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, cacheKeyCourses+"*")
}

func courseFromRequest(req dto.CourseRequest) *models.Course {
	modules := make([]string, 0, len(req.Modules))
	for _, m := range req.Modules {
		modules = append(modules, strings.TrimSpace(m))
	}
	course := &models.Course{
		Code:          req.Code,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		DurationWeeks: req.DurationWeeks,
		Fee:           req.Fee,
		Modules:       modules,
	}
	if req.Active != nil {
		course.Active = *req.Active
	}
	return course
}

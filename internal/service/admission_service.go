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
	"github.com/noah-isme/institute-portal-api/pkg/sanitize"
	"github.com/noah-isme/institute-portal-api/pkg/validation"
)

const dateLayout = "2006-01-02"

type admissionStore interface {
	Create(ctx context.Context, admission *models.Admission) error
	UpdateDraft(ctx context.Context, admission *models.Admission) error
	FindByID(ctx context.Context, id string) (*models.Admission, error)
	FindOpenByCNIC(ctx context.Context, cnic string) (*models.Admission, error)
	Track(ctx context.Context, cnic string) ([]models.AdmissionTrack, error)
	List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error)
	Reject(ctx context.Context, id, reviewerID, remarks string, at time.Time) (*models.Admission, error)
	ApproveAndRegister(ctx context.Context, p repository.ApprovalParams) (*models.Admission, *models.RegisterEntry, error)
}

type courseLookup interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type photoResolver interface {
	ResolvePhoto(ctx context.Context, value string) (string, error)
}

type admissionNotifier interface {
	AdmissionApproved(ctx context.Context, admission *models.Admission, entry *models.RegisterEntry)
	AdmissionRejected(ctx context.Context, admission *models.Admission)
}

type structValidator interface {
	Struct(s interface{}) error
}

// AdmissionConfig holds workflow knobs.
type AdmissionConfig struct {
	DefaultCourseCode string
}

// AdmissionService implements the admission workflow: submission, drafts, tracking and review.
type AdmissionService struct {
	repo      admissionStore
	courses   courseLookup
	photos    photoResolver
	notifier  admissionNotifier
	audit     auditLogger
	cache     *CacheService
	metrics   *MetricsService
	validator structValidator
	cfg       AdmissionConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewAdmissionService constructs the admission workflow service.
func NewAdmissionService(repo admissionStore, courses courseLookup, photos photoResolver, notifier admissionNotifier, audit auditLogger, cache *CacheService, metrics *MetricsService, validator structValidator, cfg AdmissionConfig, logger *zap.Logger) *AdmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New()
	}
	if strings.TrimSpace(cfg.DefaultCourseCode) == "" {
		cfg.DefaultCourseCode = "GEN"
	}
	return &AdmissionService{
		repo:      repo,
		courses:   courses,
		photos:    photos,
		notifier:  notifier,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		validator: validator,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// FormatRegistrationNo renders <CODE>-<YY>-<SERIAL>, e.g. CIT-26-00042.
func FormatRegistrationNo(courseCode string, serial int64, at time.Time) string {
	code := strings.ToUpper(strings.TrimSpace(courseCode))
	if code == "" {
		code = "GEN"
	}
	return fmt.Sprintf("%s-%02d-%05d", code, at.Year()%100, serial)
}

// Submit validates, normalises and persists a completed admission form as Pending.
func (s *AdmissionService) Submit(ctx context.Context, req dto.SubmitAdmissionRequest) (*models.Admission, error) {
	normalizeSubmit(&req)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if err := s.ensureCourseOpen(ctx, req.CourseID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindOpenByCNIC(ctx, req.CNIC)
	switch {
	case err == nil && existing != nil && existing.ID != req.DraftID:
		return nil, appErrors.Clone(appErrors.ErrConflict, "an admission for this national ID is already pending review")
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing admissions")
	}

	photoURL, err := s.photos.ResolvePhoto(ctx, req.Photo)
	if err != nil {
		return nil, err
	}

	admission := &models.Admission{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		FatherName:      req.FatherName,
		CNIC:            req.CNIC,
		DateOfBirth:     parseDate(req.DateOfBirth),
		Gender:          models.Gender(req.Gender),
		Email:           req.Email,
		ContactNumber:   req.ContactNumber,
		GuardianContact: req.GuardianContact,
		Address:         req.Address,
		Qualification:   req.Qualification,
		CourseID:        req.CourseID,
		PhotoURL:        photoURL,
	}
	admission.Status = models.AdmissionStatusPending
	admission.IsDraft = false

	if req.DraftID != "" {
		admission.ID = req.DraftID
		err = s.repo.UpdateDraft(ctx, admission)
	} else {
		err = s.repo.Create(ctx, admission)
	}
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "draft not found or already submitted")
		case database.IsUniqueViolation(err, repository.OpenAdmissionConstraint):
			return nil, appErrors.Clone(appErrors.ErrConflict, "an admission for this national ID is already pending review")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit admission")
	}

	s.metrics.AdmissionSubmitted()
	emitAudit(ctx, s.audit, s.logger, "admission-service",
		newAuditLog("", models.AuditActionAdmissionSubmit, models.AuditResourceAdmission, admission.ID, nil, admission))
	s.logger.Info("admission submitted", zap.String("admission_id", admission.ID), zap.String("course_id", admission.CourseID))
	return admission, nil
}

// SaveDraft stores a partial form so the applicant can resume it later.
func (s *AdmissionService) SaveDraft(ctx context.Context, req dto.SaveDraftRequest) (*models.Admission, error) {
	normalizeDraft(&req)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if req.CourseID != "" {
		if err := s.ensureCourseOpen(ctx, req.CourseID); err != nil {
			return nil, err
		}
	}
	photoURL, err := s.photos.ResolvePhoto(ctx, req.Photo)
	if err != nil {
		return nil, err
	}

	admission := &models.Admission{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		FatherName:      req.FatherName,
		CNIC:            req.CNIC,
		DateOfBirth:     parseDate(req.DateOfBirth),
		Gender:          models.Gender(req.Gender),
		Email:           req.Email,
		ContactNumber:   req.ContactNumber,
		GuardianContact: req.GuardianContact,
		Address:         req.Address,
		Qualification:   req.Qualification,
		CourseID:        req.CourseID,
		PhotoURL:        photoURL,
	}
	admission.Status = models.AdmissionStatusPending
	admission.IsDraft = true

	if req.DraftID != "" {
		admission.ID = req.DraftID
		if err := s.repo.UpdateDraft(ctx, admission); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "draft not found or already submitted")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
		}
		return admission, nil
	}
	if err := s.repo.Create(ctx, admission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save draft")
	}
	return admission, nil
}

// Track lists an applicant's admissions by national ID.
func (s *AdmissionService) Track(ctx context.Context, cnic string) ([]models.AdmissionTrack, error) {
	query := dto.TrackAdmissionQuery{CNIC: validation.FormatCNIC(cnic)}
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}
	rows, err := s.repo.Track(ctx, query.CNIC)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to track admissions")
	}
	if rows == nil {
		rows = []models.AdmissionTrack{}
	}
	return rows, nil
}

// List returns admissions for review.
func (s *AdmissionService) List(ctx context.Context, query dto.AdmissionQuery) ([]models.Admission, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, err
	}
	filter := models.AdmissionFilter{
		Status:    models.AdmissionStatus(query.Status),
		CourseID:  query.CourseID,
		IsDraft:   query.IsDraft,
		Search:    strings.TrimSpace(query.Search),
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admissions")
	}
	return items, newPagination(query.Page, query.PageSize, total), nil
}

// Get fetches one admission.
func (s *AdmissionService) Get(ctx context.Context, id string) (*models.Admission, error) {
	if err := requireID(id, "admission"); err != nil {
		return nil, err
	}
	admission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admission")
	}
	return admission, nil
}

// Approve accepts a pending admission and creates its register entry atomically.
func (s *AdmissionService) Approve(ctx context.Context, id, reviewerID string) (*models.AdmissionDecision, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := reviewable(current); err != nil {
		return nil, err
	}

	admission, entry, err := s.repo.ApproveAndRegister(ctx, repository.ApprovalParams{
		AdmissionID:       id,
		ReviewerID:        reviewerID,
		At:                s.now().UTC(),
		DefaultCourseCode: s.cfg.DefaultCourseCode,
		RegistrationNo:    FormatRegistrationNo,
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrConflict, "admission already processed")
		case database.IsUniqueViolation(err, repository.RegisterEntryUniqueConstraint):
			return nil, appErrors.Clone(appErrors.ErrConflict, "admission already has a register entry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve admission")
	}

	if s.notifier != nil {
		s.notifier.AdmissionApproved(ctx, admission, entry)
	}
	s.metrics.AdmissionDecided(DecisionApproved)
	_ = s.cache.Invalidate(ctx, cacheKeyRegister+"*")
	emitAudit(ctx, s.audit, s.logger, "admission-service",
		newAuditLog(reviewerID, models.AuditActionAdmissionApprove, models.AuditResourceAdmission, id, current, entry))
	s.logger.Info("admission approved",
		zap.String("admission_id", id),
		zap.String("registration_no", entry.RegistrationNo),
		zap.String("reviewer_id", reviewerID))

	return &models.AdmissionDecision{Admission: admission, Entry: entry}, nil
}

// Reject declines a pending admission with sanitised remarks. No register entry is created.
func (s *AdmissionService) Reject(ctx context.Context, id string, req dto.RejectAdmissionRequest, reviewerID string) (*models.Admission, error) {
	req.Remarks = sanitize.Text(req.Remarks)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := reviewable(current); err != nil {
		return nil, err
	}

	admission, err := s.repo.Reject(ctx, id, reviewerID, req.Remarks, s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "admission already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject admission")
	}

	if s.notifier != nil {
		s.notifier.AdmissionRejected(ctx, admission)
	}
	s.metrics.AdmissionDecided(DecisionRejected)
	emitAudit(ctx, s.audit, s.logger, "admission-service",
		newAuditLog(reviewerID, models.AuditActionAdmissionReject, models.AuditResourceAdmission, id, current, admission))
	s.logger.Info("admission rejected", zap.String("admission_id", id), zap.String("reviewer_id", reviewerID))
	return admission, nil
}

func (s *AdmissionService) ensureCourseOpen(ctx context.Context, courseID string) error {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return courseFieldError("course_id does not match an offered course")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return courseFieldError("course_id refers to a course that is not open for admission")
	}
	return nil
}

func reviewable(admission *models.Admission) error {
	if admission.IsDraft {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "draft admissions cannot be reviewed")
	}
	if admission.Status != models.AdmissionStatusPending {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("admission already %s", strings.ToLower(string(admission.Status))))
	}
	return nil
}

func courseFieldError(message string) error {
	return appErrors.Validation("validation failed", []appErrors.FieldError{{Field: "course_id", Tag: "course", Message: message}})
}

func parseDate(value string) *time.Time {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil
	}
	return &t
}

func normalizeSubmit(req *dto.SubmitAdmissionRequest) {
	req.DraftID = strings.TrimSpace(req.DraftID)
	req.FirstName = sanitize.Text(req.FirstName)
	req.LastName = sanitize.Text(req.LastName)
	req.FatherName = sanitize.Text(req.FatherName)
	req.CNIC = validation.FormatCNIC(req.CNIC)
	req.DateOfBirth = strings.TrimSpace(req.DateOfBirth)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.ContactNumber = validation.NormalizePhone(req.ContactNumber)
	req.GuardianContact = validation.NormalizePhone(req.GuardianContact)
	req.Address = sanitize.Text(req.Address)
	req.Qualification = sanitize.Text(req.Qualification)
	req.CourseID = strings.TrimSpace(req.CourseID)
	req.Photo = strings.TrimSpace(req.Photo)
}

func normalizeDraft(req *dto.SaveDraftRequest) {
	req.DraftID = strings.TrimSpace(req.DraftID)
	req.FirstName = sanitize.Text(req.FirstName)
	req.LastName = sanitize.Text(req.LastName)
	req.FatherName = sanitize.Text(req.FatherName)
	req.CNIC = validation.FormatCNIC(req.CNIC)
	req.DateOfBirth = strings.TrimSpace(req.DateOfBirth)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.ContactNumber = validation.NormalizePhone(req.ContactNumber)
	req.GuardianContact = validation.NormalizePhone(req.GuardianContact)
	req.Address = sanitize.Text(req.Address)
	req.Qualification = sanitize.Text(req.Qualification)
	req.CourseID = strings.TrimSpace(req.CourseID)
	req.Photo = strings.TrimSpace(req.Photo)
}

func newPagination(page, pageSize, total int) *models.Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/models"
	"github.com/noah-isme/institute-portal-api/internal/repository"
	"github.com/noah-isme/institute-portal-api/pkg/database"
	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
	"github.com/noah-isme/institute-portal-api/pkg/export"
	"github.com/noah-isme/institute-portal-api/pkg/sanitize"
	"github.com/noah-isme/institute-portal-api/pkg/storage"
	"github.com/noah-isme/institute-portal-api/pkg/validation"
)

const (
	registerListTTL  = time.Minute
	registerExportNS = "register"
)

type registerStore interface {
	FindByID(ctx context.Context, id string) (*models.RegisterEntry, error)
	FindByRegistrationNo(ctx context.Context, registrationNo string) (*models.RegisterEntry, error)
	List(ctx context.Context, filter models.RegisterFilter) ([]models.RegisterEntry, int, error)
	UpdateStatus(ctx context.Context, change repository.StatusChange) (*models.RegisterEntry, error)
}

type accountStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type exportFileStore interface {
	Save(key string, data []byte) (string, error)
	Open(key string) (*os.File, error)
}

type exportSigner interface {
	Sign(subject, key string) (string, time.Time, error)
	Verify(token string) (storage.SignedObject, error)
}

// RegisterConfig configures register exports.
type RegisterConfig struct {
	// DownloadURL is the absolute or root-relative path of the export download endpoint.
	DownloadURL string
}

// ExportDownload is an opened export file ready to stream.
type ExportDownload struct {
	File        *os.File
	FileName    string
	ContentType string
}

// RegisterService manages the student register: queries, lifecycle transitions, exports and account provisioning.
type RegisterService struct {
	repo      registerStore
	users     accountStore
	courses   courseLookup
	files     exportFileStore
	signer    exportSigner
	audit     auditLogger
	cache     *CacheService
	metrics   *MetricsService
	validator structValidator
	cfg       RegisterConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegisterService constructs the register service.
func NewRegisterService(repo registerStore, users accountStore, courses courseLookup, files exportFileStore, signer exportSigner, audit auditLogger, cache *CacheService, metrics *MetricsService, validator structValidator, cfg RegisterConfig, logger *zap.Logger) *RegisterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New()
	}
	return &RegisterService{
		repo:      repo,
		users:     users,
		courses:   courses,
		files:     files,
		signer:    signer,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		validator: validator,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

type registerPage struct {
	Items []models.RegisterEntry `json:"items"`
	Total int                    `json:"total"`
}

// List returns register entries matching the query.
func (s *RegisterService) List(ctx context.Context, query dto.RegisterQuery) ([]models.RegisterEntry, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, err
	}
	filter, err := registerFilter(query.Status, query.CourseID, query.Search)
	if err != nil {
		return nil, nil, err
	}
	filter.Page, filter.PageSize = query.Page, query.PageSize
	filter.SortBy, filter.SortOrder = query.SortBy, query.SortOrder

	key := fmt.Sprintf("%slist:%s:%s:%s:%d:%d:%s:%s", cacheKeyRegister, filter.Status, filter.CourseID,
		strings.ToLower(filter.Search), filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
	var page registerPage
	if _, err := s.cache.Remember(ctx, key, registerListTTL, &page, func() error {
		items, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return err
		}
		page = registerPage{Items: items, Total: total}
		return nil
	}); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list register")
	}
	if page.Items == nil {
		page.Items = []models.RegisterEntry{}
	}
	return page.Items, newPagination(query.Page, query.PageSize, page.Total), nil
}

// Get fetches a register entry by id.
func (s *RegisterService) Get(ctx context.Context, id string) (*models.RegisterEntry, error) {
	if err := requireID(id, "register entry"); err != nil {
		return nil, err
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "register entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load register entry")
	}
	return entry, nil
}

// GetByRegistrationNo fetches a register entry by its registration number.
func (s *RegisterService) GetByRegistrationNo(ctx context.Context, registrationNo string) (*models.RegisterEntry, error) {
	entry, err := s.repo.FindByRegistrationNo(ctx, strings.ToUpper(strings.TrimSpace(registrationNo)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "register entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load register entry")
	}
	return entry, nil
}

// UpdateStatus moves an entry along the register lifecycle. Requesting the current status is a no-op.
func (s *RegisterService) UpdateStatus(ctx context.Context, id string, req dto.UpdateRegisterStatusRequest, actorID string) (*models.RegisterEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	next, ok := models.ParseRegisterStatus(req.Status)
	if !ok || next == models.RegisterStatusApproved {
		return nil, appErrors.Validation("validation failed", []appErrors.FieldError{{
			Field:   "status",
			Tag:     "oneof",
			Message: "status must be one of Active, Suspended, Rusticated, Certified",
		}})
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == next {
		return current, nil
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move register entry from %s to %s", current.Status, next))
	}

	at := s.now().UTC()
	change := repository.StatusChange{ID: id, From: current.Status, To: next, At: at}
	if remarks := sanitize.Text(req.Remarks); remarks != "" {
		change.Remarks = &remarks
	}
	if next.StampsWithdrawal() {
		change.WithdrawalDate = &at
	}

	updated, err := s.repo.UpdateStatus(ctx, change)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "register entry was modified concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update register status")
	}

	s.metrics.RegisterTransition(string(current.Status), string(next))
	_ = s.cache.Invalidate(ctx, cacheKeyRegister+"*")
	emitAudit(ctx, s.audit, s.logger, "register-service",
		newAuditLog(actorID, models.AuditActionRegisterStatus, models.AuditResourceRegister, id,
			map[string]string{"status": string(current.Status)}, map[string]string{"status": string(next)}))
	s.logger.Info("register status changed",
		zap.String("register_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)))
	return updated, nil
}

// Export renders the filtered register and returns a signed download link.
func (s *RegisterService) Export(ctx context.Context, req dto.ExportRegisterRequest, actorID string) (*models.RegisterExport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	renderer, err := export.ForFormat(req.Format)
	if err != nil {
		return nil, appErrors.Validation("validation failed", []appErrors.FieldError{{Field: "format", Tag: "oneof", Message: err.Error()}})
	}
	filter, err := registerFilter(req.Status, req.CourseID, req.Search)
	if err != nil {
		return nil, err
	}
	filter.SortBy = "serial_no"
	filter.All = true

	entries, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load register")
	}

	generatedAt := s.now().UTC()
	content, err := renderer.Render(registerDataset(entries, generatedAt))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render register export")
	}

	name := fmt.Sprintf("register-%s-%s.%s", generatedAt.Format("20060102-150405"), uuid.NewString()[:8], renderer.Extension())
	key, err := s.files.Save(path.Join(registerExportNS, name), content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store register export")
	}
	token, expiresAt, err := s.signer.Sign(actorID, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}

	emitAudit(ctx, s.audit, s.logger, "register-service",
		newAuditLog(actorID, models.AuditActionRegisterExport, models.AuditResourceRegister, "", nil,
			map[string]interface{}{"format": renderer.Extension(), "rows": len(entries), "key": key}))

	return &models.RegisterExport{
		Format:    renderer.Extension(),
		Rows:      len(entries),
		URL:       s.cfg.DownloadURL + "?token=" + url.QueryEscape(token),
		ExpiresAt: expiresAt,
	}, nil
}

// OpenExport validates a download token and opens the export it points to.
func (s *RegisterService) OpenExport(ctx context.Context, token string) (*ExportDownload, error) {
	obj, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link has expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link is invalid")
	}
	file, err := s.files.Open(obj.Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	contentType := "application/octet-stream"
	if renderer, err := export.ForFormat(strings.TrimPrefix(path.Ext(obj.Key), ".")); err == nil {
		contentType = renderer.ContentType()
	}
	return &ExportDownload{File: file, FileName: path.Base(obj.Key), ContentType: contentType}, nil
}

// ProvisionAccount creates the student login for a register entry. The username is the registration number.
func (s *RegisterService) ProvisionAccount(ctx context.Context, id string, req dto.ProvisionAccountRequest, actorID string) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("register entry is %s", entry.Status))
	}

	if _, err := s.users.FindByUsername(ctx, entry.RegistrationNo); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account already exists for this registration number")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		Username:       entry.RegistrationNo,
		Email:          req.Email,
		PasswordHash:   string(hash),
		FullName:       entry.StudentName,
		Role:           models.RoleStudent,
		RegistrationNo: entry.RegistrationNo,
		Active:         true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err, repository.UserUsernameConstraint) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an account already exists for this registration number")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision account")
	}

	emitAudit(ctx, s.audit, s.logger, "register-service",
		newAuditLog(actorID, models.AuditActionAccountProvision, models.AuditResourceUser, user.ID, nil,
			map[string]string{"username": user.Username, "register_id": entry.ID}))
	return user, nil
}

// MyEnrollment resolves the caller's register entry through the registration number on their account.
func (s *RegisterService) MyEnrollment(ctx context.Context, claims *models.JWTClaims) (*models.Enrollment, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if strings.TrimSpace(claims.RegistrationNo) == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no register entry is linked to this account")
	}
	entry, err := s.GetByRegistrationNo(ctx, claims.RegistrationNo)
	if err != nil {
		return nil, err
	}
	enrollment := &models.Enrollment{Entry: *entry}
	course, err := s.courses.FindByID(ctx, entry.CourseID)
	switch {
	case err == nil:
		enrollment.Course = course
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return enrollment, nil
}

func registerFilter(status, courseID, search string) (models.RegisterFilter, error) {
	filter := models.RegisterFilter{CourseID: strings.TrimSpace(courseID), Search: strings.TrimSpace(search)}
	if strings.TrimSpace(status) != "" {
		parsed, ok := models.ParseRegisterStatus(status)
		if !ok {
			return filter, appErrors.Validation("validation failed", []appErrors.FieldError{{
				Field:   "status",
				Tag:     "oneof",
				Message: "status must be one of Active, Suspended, Rusticated, Certified, Approved",
			}})
		}
		filter.Status = parsed
	}
	return filter, nil
}

func registerDataset(entries []models.RegisterEntry, generatedAt time.Time) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		withdrawal := ""
		if e.WithdrawalDate != nil {
			withdrawal = e.WithdrawalDate.Format(dateLayout)
		}
		rows = append(rows, map[string]string{
			"serial_no":       strconv.FormatInt(e.SerialNo, 10),
			"registration_no": e.RegistrationNo,
			"student_name":    e.StudentName,
			"cnic":            e.CNIC,
			"course_name":     e.CourseName,
			"enrollment_date": e.EnrollmentDate.Format(dateLayout),
			"withdrawal_date": withdrawal,
			"status":          string(e.Status),
			"remarks":         e.Remarks,
		})
	}
	return export.Dataset{
		Title: "Student Register",
		Columns: []export.Column{
			{Key: "serial_no", Label: "S.No", Width: 0.6},
			{Key: "registration_no", Label: "Registration No", Width: 1.4},
			{Key: "student_name", Label: "Student Name", Width: 1.8},
			{Key: "cnic", Label: "CNIC", Width: 1.4},
			{Key: "course_name", Label: "Course", Width: 1.8},
			{Key: "enrollment_date", Label: "Enrolled", Width: 1},
			{Key: "withdrawal_date", Label: "Withdrawn", Width: 1},
			{Key: "status", Label: "Status", Width: 1},
			{Key: "remarks", Label: "Remarks", Width: 1.6},
		},
		Rows:        rows,
		GeneratedAt: generatedAt,
	}
}

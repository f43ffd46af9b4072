package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/models"
	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
	"github.com/noah-isme/institute-portal-api/pkg/validation"
)

type resultRepository interface {
	ListByRegistrationNo(ctx context.Context, registrationNo string) ([]models.ExamResult, error)
	Create(ctx context.Context, result *models.ExamResult) error
}

type registerLookup interface {
	FindByRegistrationNo(ctx context.Context, registrationNo string) (*models.RegisterEntry, error)
}

// ResultLookup is the public result card.
type ResultLookup struct {
	RegistrationNo string                `json:"registration_no"`
	StudentName    string                `json:"student_name"`
	CourseName     string                `json:"course_name"`
	Status         models.RegisterStatus `json:"status"`
	Results        []models.ExamResult   `json:"results"`
}

// ResultService publishes exam results and serves the public lookup.
type ResultService struct {
	repo      resultRepository
	register  registerLookup
	audit     auditLogger
	validator structValidator
	logger    *zap.Logger
}

// NewResultService constructs the result service.
func NewResultService(repo resultRepository, register registerLookup, audit auditLogger, validate structValidator, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &ResultService{repo: repo, register: register, audit: audit, validator: validate, logger: logger}
}

// Lookup returns results only when the registration number and national ID belong to the same register entry.
func (s *ResultService) Lookup(ctx context.Context, query dto.ResultLookupQuery) (*ResultLookup, error) {
	query.RegistrationNo = strings.ToUpper(strings.TrimSpace(query.RegistrationNo))
	query.CNIC = validation.FormatCNIC(query.CNIC)
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	notFound := appErrors.Clone(appErrors.ErrNotFound, "no results match these details")
	entry, err := s.register.FindByRegistrationNo(ctx, query.RegistrationNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load register entry")
	}
	if entry.CNIC != query.CNIC {
		return nil, notFound
	}

	results, err := s.repo.ListByRegistrationNo(ctx, entry.RegistrationNo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	if results == nil {
		results = []models.ExamResult{}
	}
	return &ResultLookup{
		RegistrationNo: entry.RegistrationNo,
		StudentName:    entry.StudentName,
		CourseName:     entry.CourseName,
		Status:         entry.Status,
		Results:        results,
	}, nil
}

// Publish records a result against an existing register entry.
func (s *ResultService) Publish(ctx context.Context, req dto.PublishResultRequest, actorID string) (*models.ExamResult, error) {
	req.RegistrationNo = strings.ToUpper(strings.TrimSpace(req.RegistrationNo))
	req.Grade = strings.ToUpper(strings.TrimSpace(req.Grade))
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	entry, err := s.register.FindByRegistrationNo(ctx, req.RegistrationNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Validation("validation failed", []appErrors.FieldError{{
				Field: "registration_no", Tag: "exists", Message: "registration_no does not match a register entry",
			}})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load register entry")
	}
	if req.CourseID != "" && req.CourseID != entry.CourseID {
		return nil, appErrors.Validation("validation failed", []appErrors.FieldError{{
			Field: "course_id", Tag: "enrolled", Message: "course_id does not match the course of this registration",
		}})
	}

	result := &models.ExamResult{
		RegistrationNo: entry.RegistrationNo,
		CourseID:       entry.CourseID,
		ExamTitle:      strings.TrimSpace(req.ExamTitle),
		ObtainedMarks:  req.ObtainedMarks,
		TotalMarks:     req.TotalMarks,
		Grade:          req.Grade,
	}
	if err := s.repo.Create(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish result")
	}
	emitAudit(ctx, s.audit, s.logger, "result-service",
		newAuditLog(actorID, models.AuditActionResultPublish, models.AuditResourceResult, result.ID, nil, result))
	return result, nil
}

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

type scheduleRepository interface {
	ListByCourse(ctx context.Context, courseID string, from time.Time) ([]models.SessionSchedule, error)
	FindByID(ctx context.Context, id string) (*models.SessionSchedule, error)
	Create(ctx context.Context, session *models.SessionSchedule) error
}

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.AttendanceRecord, error)
}

type discussionRepository interface {
	Create(ctx context.Context, post *models.DiscussionPost) error
	ListByCourse(ctx context.Context, courseID string, page, pageSize int) ([]models.DiscussionPost, int, error)
}

type registerReader interface {
	FindByID(ctx context.Context, id string) (*models.RegisterEntry, error)
	FindByRegistrationNo(ctx context.Context, registrationNo string) (*models.RegisterEntry, error)
}

// LMSService backs the learning portal: live session schedules, attendance and course discussion boards.
type LMSService struct {
	schedules   scheduleRepository
	attendance  attendanceRepository
	discussions discussionRepository
	courses     courseLookup
	register    registerReader
	validator   structValidator
	logger      *zap.Logger
	now         func() time.Time
}

// NewLMSService constructs the LMS service.
func NewLMSService(schedules scheduleRepository, attendance attendanceRepository, discussions discussionRepository, courses courseLookup, register registerReader, validate structValidator, logger *zap.Logger) *LMSService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &LMSService{
		schedules:   schedules,
		attendance:  attendance,
		discussions: discussions,
		courses:     courses,
		register:    register,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Schedules lists upcoming sessions of a course. Students only see their own course.
func (s *LMSService) Schedules(ctx context.Context, courseID string, from time.Time, actor *models.JWTClaims) ([]models.SessionSchedule, error) {
	if err := s.ensureCourseMember(ctx, courseID, actor); err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = s.now().UTC().Add(-24 * time.Hour)
	}
	sessions, err := s.schedules.ListByCourse(ctx, courseID, from)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	if sessions == nil {
		sessions = []models.SessionSchedule{}
	}
	return sessions, nil
}

// CreateSchedule schedules a live session. Instructors default to hosting their own sessions.
func (s *LMSService) CreateSchedule(ctx context.Context, req dto.ScheduleRequest, actor *models.JWTClaims) (*models.SessionSchedule, error) {
	req.Title = sanitize.Text(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, courseFieldError("course_id does not match an offered course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	instructorID := strings.TrimSpace(req.InstructorID)
	if instructorID == "" && actor != nil {
		instructorID = actor.UserID
	}
	session := &models.SessionSchedule{
		CourseID:     req.CourseID,
		Title:        req.Title,
		StartsAt:     req.StartsAt.UTC(),
		EndsAt:       req.EndsAt.UTC(),
		MeetingURL:   strings.TrimSpace(req.MeetingURL),
		InstructorID: instructorID,
	}
	if err := s.schedules.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return session, nil
}

// MarkAttendance records or overwrites a register entry's attendance in a session.
func (s *LMSService) MarkAttendance(ctx context.Context, scheduleID string, req dto.MarkAttendanceRequest, actorID string) (*models.AttendanceRecord, error) {
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if err := requireID(scheduleID, "session"); err != nil {
		return nil, err
	}
	session, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	entry, err := s.register.FindByID(ctx, req.RegisterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Validation("validation failed", []appErrors.FieldError{{
				Field: "register_id", Tag: "exists", Message: "register_id does not match a register entry",
			}})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load register entry")
	}
	if entry.CourseID != session.CourseID {
		return nil, appErrors.Validation("validation failed", []appErrors.FieldError{{
			Field: "register_id", Tag: "course", Message: "register entry is not enrolled in this session's course",
		}})
	}
	if entry.Status != models.RegisterStatusActive && entry.Status != models.RegisterStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "attendance can only be marked for active students")
	}

	record := &models.AttendanceRecord{
		RegisterID: entry.ID,
		ScheduleID: session.ID,
		Status:     models.AttendanceStatus(req.Status),
		MarkedBy:   actorID,
		MarkedAt:   s.now().UTC(),
	}
	if err := s.attendance.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}
	return record, nil
}

// Attendance lists the attendance sheet of a session.
func (s *LMSService) Attendance(ctx context.Context, scheduleID string) ([]models.AttendanceRecord, error) {
	if err := requireID(scheduleID, "session"); err != nil {
		return nil, err
	}
	if _, err := s.schedules.FindByID(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	records, err := s.attendance.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	return records, nil
}

// PostDiscussion adds a sanitised message to a course board.
func (s *LMSService) PostDiscussion(ctx context.Context, courseID string, req dto.DiscussionRequest, actor *models.JWTClaims) (*models.DiscussionPost, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.Body = sanitize.RichText(req.Body)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if err := s.ensureCourseMember(ctx, courseID, actor); err != nil {
		return nil, err
	}
	post := &models.DiscussionPost{
		CourseID:   courseID,
		AuthorID:   actor.UserID,
		AuthorName: actor.FullName,
		Body:       req.Body,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.discussions.Create(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to post message")
	}
	return post, nil
}

// Discussions lists a page of a course board.
func (s *LMSService) Discussions(ctx context.Context, courseID string, query dto.PageQuery, actor *models.JWTClaims) ([]models.DiscussionPost, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, err
	}
	if err := s.ensureCourseMember(ctx, courseID, actor); err != nil {
		return nil, nil, err
	}
	posts, total, err := s.discussions.ListByCourse(ctx, courseID, query.Page, query.PageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	if posts == nil {
		posts = []models.DiscussionPost{}
	}
	return posts, newPagination(query.Page, query.PageSize, total), nil
}

// ensureCourseMember restricts students to the course of their register entry.
func (s *LMSService) ensureCourseMember(ctx context.Context, courseID string, actor *models.JWTClaims) error {
	if err := requireID(courseID, "course"); err != nil {
		return err
	}
	if actor == nil || actor.Role != models.RoleStudent {
		return nil
	}
	if actor.RegistrationNo == "" {
		return appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a register entry")
	}
	entry, err := s.register.FindByRegistrationNo(ctx, actor.RegistrationNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a register entry")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load register entry")
	}
	if entry.CourseID != courseID {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not enrolled in this course")
	}
	return nil
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/models"
	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
	"github.com/noah-isme/institute-portal-api/pkg/response"
)

type lmsService interface {
	Schedules(ctx context.Context, courseID string, from time.Time, actor *models.JWTClaims) ([]models.SessionSchedule, error)
	CreateSchedule(ctx context.Context, req dto.ScheduleRequest, actor *models.JWTClaims) (*models.SessionSchedule, error)
	MarkAttendance(ctx context.Context, scheduleID string, req dto.MarkAttendanceRequest, actorID string) (*models.AttendanceRecord, error)
	Attendance(ctx context.Context, scheduleID string) ([]models.AttendanceRecord, error)
	PostDiscussion(ctx context.Context, courseID string, req dto.DiscussionRequest, actor *models.JWTClaims) (*models.DiscussionPost, error)
	Discussions(ctx context.Context, courseID string, query dto.PageQuery, actor *models.JWTClaims) ([]models.DiscussionPost, *models.Pagination, error)
}

// LMSHandler exposes live sessions, attendance and course discussions.
type LMSHandler struct {
	service lmsService
}

// NewLMSHandler builds a new handler.
func NewLMSHandler(svc lmsService) *LMSHandler {
	return &LMSHandler{service: svc}
}

// Schedules godoc
// @Summary List course sessions
// @Tags LMS
// @Produce json
// @Param id path string true "Course ID"
// @Param from query string false "RFC3339 lower bound on start time"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /lms/courses/{id}/sessions [get]
func (h *LMSHandler) Schedules(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var from time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be an RFC3339 timestamp"))
			return
		}
		from = parsed
	}

	sessions, err := h.service.Schedules(c.Request.Context(), c.Param("id"), from, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// CreateSchedule godoc
// @Summary Schedule a session
// @Tags LMS
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleRequest true "Session"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lms/sessions [post]
func (h *LMSHandler) CreateSchedule(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	session, err := h.service.CreateSchedule(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// MarkAttendance godoc
// @Summary Mark attendance
// @Tags LMS
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.MarkAttendanceRequest true "Attendance"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /lms/sessions/{id}/attendance [put]
func (h *LMSHandler) MarkAttendance(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	record, err := h.service.MarkAttendance(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Attendance godoc
// @Summary Session attendance sheet
// @Tags LMS
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /lms/sessions/{id}/attendance [get]
func (h *LMSHandler) Attendance(c *gin.Context) {
	records, err := h.service.Attendance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// PostDiscussion godoc
// @Summary Post to a course board
// @Tags LMS
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.DiscussionRequest true "Post"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /lms/courses/{id}/discussions [post]
func (h *LMSHandler) PostDiscussion(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req dto.DiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}

	post, err := h.service.PostDiscussion(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// Discussions godoc
// @Summary List course board posts
// @Tags LMS
// @Produce json
// @Param id path string true "Course ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lms/courses/{id}/discussions [get]
func (h *LMSHandler) Discussions(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var query dto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidQuery(err))
		return
	}

	posts, pagination, err := h.service.Discussions(c.Request.Context(), c.Param("id"), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, pagination)
}

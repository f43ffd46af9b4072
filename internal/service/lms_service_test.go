package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/models"
	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
)

type scheduleRepoStub struct {
	sessions map[string]*models.SessionSchedule
}

func (s *scheduleRepoStub) ListByCourse(ctx context.Context, courseID string, from time.Time) ([]models.SessionSchedule, error) {
	var out []models.SessionSchedule
	for _, session := range s.sessions {
		if session.CourseID == courseID && !session.StartsAt.Before(from) {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (s *scheduleRepoStub) FindByID(ctx context.Context, id string) (*models.SessionSchedule, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return session, nil
}

func (s *scheduleRepoStub) Create(ctx context.Context, session *models.SessionSchedule) error {
	session.ID = "s-new"
	s.sessions[session.ID] = session
	return nil
}

type attendanceRepoStub struct {
	records map[string]models.AttendanceRecord
}

func (a *attendanceRepoStub) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	a.records[record.ScheduleID+"/"+record.RegisterID] = *record
	return nil
}

func (a *attendanceRepoStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, r := range a.records {
		if r.ScheduleID == scheduleID {
			out = append(out, r)
		}
	}
	return out, nil
}

type discussionRepoStub struct {
	posts []models.DiscussionPost
}

func (d *discussionRepoStub) Create(ctx context.Context, post *models.DiscussionPost) error {
	d.posts = append(d.posts, *post)
	return nil
}

func (d *discussionRepoStub) ListByCourse(ctx context.Context, courseID string, page, pageSize int) ([]models.DiscussionPost, int, error) {
	var out []models.DiscussionPost
	for _, p := range d.posts {
		if p.CourseID == courseID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

const (
	sessionS1 = "5e551000-0000-4000-8000-000000000001"
	sessionS2 = "5e551000-0000-4000-8000-000000000002"
)

type lmsFixture struct {
	svc         *LMSService
	attendance  *attendanceRepoStub
	discussions *discussionRepoStub
}

func newLMSFixture() *lmsFixture {
	start := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	schedules := &scheduleRepoStub{sessions: map[string]*models.SessionSchedule{
		sessionS1: {ID: sessionS1, CourseID: courseC1, Title: "Networking basics", StartsAt: start, EndsAt: start.Add(time.Hour)},
		sessionS2: {ID: sessionS2, CourseID: courseClosed, Title: "Legacy", StartsAt: start, EndsAt: start.Add(time.Hour)},
	}}
	suspended := sampleEntry("2", models.RegisterStatusSuspended)
	register := newRegisterStoreStub(sampleEntry("1", models.RegisterStatusActive), suspended)
	attendance := &attendanceRepoStub{records: map[string]models.AttendanceRecord{}}
	discussions := &discussionRepoStub{}
	svc := NewLMSService(schedules, attendance, discussions, newCourseLookupStub(), register, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	return &lmsFixture{svc: svc, attendance: attendance, discussions: discussions}
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent, FullName: "Ayesha Khan", RegistrationNo: "CIT-26-00001"}
}

func TestLMSServiceStudentsOnlySeeTheirCourse(t *testing.T) {
	fx := newLMSFixture()
	ctx := context.Background()

	sessions, err := fx.svc.Schedules(ctx, courseC1, time.Time{}, studentClaims())
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	_, err = fx.svc.Schedules(ctx, courseClosed, time.Time{}, studentClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	sessions, err = fx.svc.Schedules(ctx, courseClosed, time.Time{}, &models.JWTClaims{UserID: "ins-1", Role: models.RoleInstructor})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestLMSServiceCreateScheduleDefaultsInstructor(t *testing.T) {
	fx := newLMSFixture()
	start := time.Date(2026, 6, 3, 9, 0, 0, 0, time.UTC)

	session, err := fx.svc.CreateSchedule(context.Background(), dto.ScheduleRequest{CourseID: courseC1, Title: "Routing", StartsAt: start, EndsAt: start.Add(time.Hour)},
		&models.JWTClaims{UserID: "ins-1", Role: models.RoleInstructor})
	require.NoError(t, err)
	assert.Equal(t, "ins-1", session.InstructorID)

	_, err = fx.svc.CreateSchedule(context.Background(), dto.ScheduleRequest{CourseID: courseC1, Title: "Backwards", StartsAt: start, EndsAt: start.Add(-time.Hour)}, nil)
	require.Error(t, err)
	assert.Equal(t, []string{"ends_at"}, fieldNames(err))
}

func TestLMSServiceMarkAttendance(t *testing.T) {
	fx := newLMSFixture()
	ctx := context.Background()

	record, err := fx.svc.MarkAttendance(ctx, sessionS1, dto.MarkAttendanceRequest{RegisterID: entryID("1"), Status: "present"}, "ins-1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, record.Status)

	_, err = fx.svc.MarkAttendance(ctx, sessionS1, dto.MarkAttendanceRequest{RegisterID: entryID("1"), Status: "LATE"}, "ins-1")
	require.NoError(t, err)
	sheet, err := fx.svc.Attendance(ctx, sessionS1)
	require.NoError(t, err)
	require.Len(t, sheet, 1)
	assert.Equal(t, models.AttendanceLate, sheet[0].Status)

	_, err = fx.svc.MarkAttendance(ctx, sessionS1, dto.MarkAttendanceRequest{RegisterID: entryID("2"), Status: "PRESENT"}, "ins-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = fx.svc.MarkAttendance(ctx, sessionS2, dto.MarkAttendanceRequest{RegisterID: entryID("1"), Status: "PRESENT"}, "ins-1")
	require.Error(t, err)
	assert.Equal(t, []string{"register_id"}, fieldNames(err))

	_, err = fx.svc.MarkAttendance(ctx, unknownID, dto.MarkAttendanceRequest{RegisterID: entryID("1"), Status: "PRESENT"}, "ins-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLMSServiceDiscussions(t *testing.T) {
	fx := newLMSFixture()
	ctx := context.Background()

	post, err := fx.svc.PostDiscussion(ctx, courseC1, dto.DiscussionRequest{Body: "When is the quiz? <script>alert(1)</script>"}, studentClaims())
	require.NoError(t, err)
	assert.NotContains(t, post.Body, "<script>")
	assert.Equal(t, "Ayesha Khan", post.AuthorName)

	_, err = fx.svc.PostDiscussion(ctx, courseClosed, dto.DiscussionRequest{Body: "hello"}, studentClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	posts, pagination, err := fx.svc.Discussions(ctx, courseC1, dto.PageQuery{}, studentClaims())
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestLMSServiceMalformedIDsAreNotFound(t *testing.T) {
	fx := newLMSFixture()
	ctx := context.Background()
	staff := &models.JWTClaims{UserID: "ins-1", Role: models.RoleInstructor}

	_, err := fx.svc.Schedules(ctx, "networking", time.Time{}, staff)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = fx.svc.Attendance(ctx, "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = fx.svc.MarkAttendance(ctx, sessionS1, dto.MarkAttendanceRequest{RegisterID: "1", Status: "PRESENT"}, "ins-1")
	require.Error(t, err)
	assert.Equal(t, []string{"register_id"}, fieldNames(err))

	_, err = fx.svc.CreateSchedule(ctx, dto.ScheduleRequest{CourseID: "C1", Title: "Routing", StartsAt: time.Now(), EndsAt: time.Now().Add(time.Hour)}, staff)
	require.Error(t, err)
	assert.Equal(t, []string{"course_id"}, fieldNames(err))
}

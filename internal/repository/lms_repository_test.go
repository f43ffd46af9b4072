package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

func TestAttendanceUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (register_id, schedule_id)")).WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.AttendanceRecord{RegisterID: "r1", ScheduleID: "s1", Status: models.AttendanceLate, MarkedBy: "i1"}
	require.NoError(t, repo.Upsert(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.MarkedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiscussionListByCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDiscussionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.course_id = $1 ORDER BY p.created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("C1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "author_id", "author_name", "body", "created_at"}).
			AddRow("p1", "C1", "u1", "Ali", "<p>hello</p>", now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM discussion_posts WHERE course_id = $1")).
		WithArgs("C1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	posts, total, err := repo.ListByCourse(context.Background(), "C1", 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Ali", posts[0].AuthorName)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertListActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAlertRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE active = TRUE AND (expires_at IS NULL OR expires_at > $1)")).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "body", "active", "expires_at", "created_at"}).
			AddRow("n1", "Admissions open", "Apply now", true, nil, now))

	alerts, err := repo.ListActive(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Nil(t, alerts[0].ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseListActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE active = $1 ORDER BY title ASC LIMIT 20 OFFSET 0")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "title", "description", "duration_weeks", "fee", "modules", "active", "created_at", "updated_at"}).
			AddRow("C1", "CIT", "Certificate in IT", nil, 24, 15000.0, "{HTML,CSS}", true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE active = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, []string{"HTML", "CSS"}, courses[0].Modules)
	assert.Equal(t, 24, courses[0].DurationWeeks)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

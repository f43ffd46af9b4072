package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

const scheduleColumns = `id, course_id, title, starts_at, ends_at, meeting_url, instructor_id, created_at`

// ScheduleRepository persists live session schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByCourse returns sessions of a course starting at or after from.
func (r *ScheduleRepository) ListByCourse(ctx context.Context, courseID string, from time.Time) ([]models.SessionSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM session_schedules WHERE course_id = $1 AND starts_at >= $2 ORDER BY starts_at ASC`
	var sessions []models.SessionSchedule
	if err := r.db.SelectContext(ctx, &sessions, query, courseID, from); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return sessions, nil
}

// FindByID returns a session.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.SessionSchedule, error) {
	var session models.SessionSchedule
	if err := r.db.GetContext(ctx, &session, `SELECT `+scheduleColumns+` FROM session_schedules WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule: %w", err)
	}
	return &session, nil
}

// Create inserts a session.
func (r *ScheduleRepository) Create(ctx context.Context, session *models.SessionSchedule) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO session_schedules (` + scheduleColumns + `)
	VALUES (:id, :course_id, :title, :starts_at, :ends_at, :meeting_url, :instructor_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

// AttendanceRepository records session attendance.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert marks attendance; re-marking the same entry and session overwrites the status.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.MarkedAt.IsZero() {
		record.MarkedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_records (id, register_id, schedule_id, status, marked_by, marked_at)
	VALUES (:id, :register_id, :schedule_id, :status, :marked_by, :marked_at)
	ON CONFLICT (register_id, schedule_id)
	DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, marked_at = EXCLUDED.marked_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// ListBySchedule returns attendance for a session.
func (r *AttendanceRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, register_id, schedule_id, status, marked_by, marked_at
	FROM attendance_records WHERE schedule_id = $1 ORDER BY marked_at ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

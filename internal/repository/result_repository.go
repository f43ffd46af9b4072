package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

// ResultRepository stores published exam results.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs the repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// ListByRegistrationNo returns results for a student, newest first.
func (r *ResultRepository) ListByRegistrationNo(ctx context.Context, registrationNo string) ([]models.ExamResult, error) {
	const query = `SELECT id, registration_no, course_id, exam_title, obtained_marks, total_marks, grade, published_at
	FROM exam_results WHERE registration_no = $1 ORDER BY published_at DESC`
	var results []models.ExamResult
	if err := r.db.SelectContext(ctx, &results, query, registrationNo); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// Create publishes a result.
func (r *ResultRepository) Create(ctx context.Context, result *models.ExamResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.PublishedAt.IsZero() {
		result.PublishedAt = time.Now().UTC()
	}
	const query = `INSERT INTO exam_results (id, registration_no, course_id, exam_title, obtained_marks, total_marks, grade, published_at)
	VALUES (:id, :registration_no, :course_id, :exam_title, :obtained_marks, :total_marks, :grade, :published_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

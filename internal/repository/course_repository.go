package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-portal-api/internal/mapping"
	"github.com/noah-isme/institute-portal-api/internal/models"
)

const courseColumns = `id, code, title, description, duration_weeks, fee, modules, active, created_at, updated_at`

// CourseCodeConstraint is the unique index on course codes.
const CourseCodeConstraint = "courses_code_key"

// CourseRepository manages the course catalogue.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	var rec mapping.CourseRecord
	if err := r.db.GetContext(ctx, &rec, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	course := mapping.ToCourse(rec)
	return &course, nil
}

// List returns courses matching the filter with the total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var conds conditions
	if filter.ActiveOnly {
		conds.add("active = $%[1]d", true)
	}
	if filter.Search != "" {
		conds.add("(LOWER(title) LIKE $%[1]d OR LOWER(COALESCE(code, '')) LIKE $%[1]d)", likePattern(filter.Search))
	}
	_, size, offset := paginate(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s FROM courses%s ORDER BY title ASC LIMIT %d OFFSET %d", courseColumns, conds.where(), size, offset)
	var records []mapping.CourseRecord
	if err := r.db.SelectContext(ctx, &records, listQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses"+conds.where(), conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return mapping.ToCourses(records), total, nil
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (` + courseColumns + `)
	VALUES (:id, :code, :title, :description, :duration_weeks, :fee, :modules, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mapping.FromCourse(*course)); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update overwrites a course's editable fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET code = :code, title = :title, description = :description,
	duration_weeks = :duration_weeks, fee = :fee, modules = :modules, active = :active, updated_at = :updated_at
	WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, mapping.FromCourse(*course))
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return affectedOrNoRows(res)
}

// Deactivate hides a course from the public catalogue.
func (r *CourseRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE courses SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate course: %w", err)
	}
	return affectedOrNoRows(res)
}

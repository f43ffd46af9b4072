package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-portal-api/internal/mapping"
	"github.com/noah-isme/institute-portal-api/internal/models"
)

const registerColumns = `id, admission_id, registration_no, serial_no, student_name, cnic, course_id, course_name,
	enrollment_date, withdrawal_date, status, remarks, created_at, updated_at`

// RegisterRepository reads and updates the student register.
type RegisterRepository struct {
	db *sqlx.DB
}

// NewRegisterRepository constructs the repository.
func NewRegisterRepository(db *sqlx.DB) *RegisterRepository {
	return &RegisterRepository{db: db}
}

// FindByID fetches a register entry.
func (r *RegisterRepository) FindByID(ctx context.Context, id string) (*models.RegisterEntry, error) {
	return r.findOne(ctx, "id", id)
}

// FindByRegistrationNo fetches a register entry by its registration number.
func (r *RegisterRepository) FindByRegistrationNo(ctx context.Context, registrationNo string) (*models.RegisterEntry, error) {
	return r.findOne(ctx, "registration_no", registrationNo)
}

// FindByAdmissionID fetches the register entry created for an admission.
func (r *RegisterRepository) FindByAdmissionID(ctx context.Context, admissionID string) (*models.RegisterEntry, error) {
	return r.findOne(ctx, "admission_id", admissionID)
}

func (r *RegisterRepository) findOne(ctx context.Context, column, value string) (*models.RegisterEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM admission_withdrawal WHERE %s = $1 LIMIT 1", registerColumns, column)
	var rec mapping.RegisterRecord
	if err := r.db.GetContext(ctx, &rec, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find register entry by %s: %w", column, err)
	}
	entry := mapping.ToRegisterEntry(rec)
	return &entry, nil
}

// List returns register entries matching the filter with the total count.
// A non-positive page size together with page 0 returns every matching row, which exports rely on.
func (r *RegisterRepository) List(ctx context.Context, filter models.RegisterFilter) ([]models.RegisterEntry, int, error) {
	var conds conditions
	if filter.Status != "" {
		conds.add("status = $%[1]d", filter.Status)
	}
	if filter.CourseID != "" {
		conds.add("course_id = $%[1]d", filter.CourseID)
	}
	if filter.Search != "" {
		conds.add("(LOWER(student_name) LIKE $%[1]d OR cnic LIKE $%[1]d OR LOWER(registration_no) LIKE $%[1]d)", likePattern(filter.Search))
	}

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"serial_no":       "serial_no",
		"enrollment_date": "enrollment_date",
		"student_name":    "student_name",
		"status":          "status",
	}, "serial_no")

	listQuery := fmt.Sprintf("SELECT %s FROM admission_withdrawal%s ORDER BY %s", registerColumns, conds.where(), order)
	if !filter.All {
		_, size, offset := paginate(filter.Page, filter.PageSize)
		listQuery += fmt.Sprintf(" LIMIT %d OFFSET %d", size, offset)
	}

	var records []mapping.RegisterRecord
	if err := r.db.SelectContext(ctx, &records, listQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list register: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM admission_withdrawal"+conds.where(), conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count register: %w", err)
	}
	return mapping.ToRegisterEntries(records), total, nil
}

// StatusChange describes a compare-and-swap status update.
type StatusChange struct {
	ID             string
	From           models.RegisterStatus
	To             models.RegisterStatus
	Remarks        *string
	WithdrawalDate *time.Time
	At             time.Time
}

// UpdateStatus applies the change only while the entry still holds change.From.
// sql.ErrNoRows signals that the status moved underneath the caller.
func (r *RegisterRepository) UpdateStatus(ctx context.Context, change StatusChange) (*models.RegisterEntry, error) {
	query := `UPDATE admission_withdrawal SET status = $3,
	remarks = COALESCE($4, remarks),
	withdrawal_date = COALESCE($5, withdrawal_date),
	updated_at = $6
	WHERE id = $1 AND status = $2
	RETURNING ` + registerColumns

	var remarks sql.NullString
	if change.Remarks != nil {
		remarks = sql.NullString{String: *change.Remarks, Valid: true}
	}
	var withdrawal sql.NullTime
	if change.WithdrawalDate != nil {
		withdrawal = sql.NullTime{Time: *change.WithdrawalDate, Valid: true}
	}

	var rec mapping.RegisterRecord
	if err := r.db.GetContext(ctx, &rec, query, change.ID, change.From, change.To, remarks, withdrawal, change.At); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update register status: %w", err)
	}
	entry := mapping.ToRegisterEntry(rec)
	return &entry, nil
}

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

const admissionColumns = `id, first_name, last_name, father_name, cnic, date_of_birth, gender, email, contact_number,
	guardian_contact, address, qualification, course_id, photo_url, status, is_draft, remarks, reviewed_by, reviewed_at,
	created_at, updated_at`

// RegisterEntryUniqueConstraint guards against a second register entry for one admission.
const RegisterEntryUniqueConstraint = "admission_withdrawal_admission_id_key"

// OpenAdmissionConstraint allows one pending, submitted form per national ID.
const OpenAdmissionConstraint = "admission_forms_open_cnic_key"

// AdmissionRepository persists admission forms and performs the approval transaction.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository constructs the repository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

// Create inserts a new admission form.
func (r *AdmissionRepository) Create(ctx context.Context, admission *models.Admission) error {
	if admission.ID == "" {
		admission.ID = uuid.NewString()
	}
	if admission.Status == "" {
		admission.Status = models.AdmissionStatusPending
	}
	now := time.Now().UTC()
	if admission.CreatedAt.IsZero() {
		admission.CreatedAt = now
	}
	admission.UpdatedAt = now

	const query = `INSERT INTO admission_forms (` + admissionColumns + `)
	VALUES (:id, :first_name, :last_name, :father_name, :cnic, :date_of_birth, :gender, :email, :contact_number,
	:guardian_contact, :address, :qualification, :course_id, :photo_url, :status, :is_draft, :remarks, :reviewed_by,
	:reviewed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mapping.FromAdmission(*admission)); err != nil {
		return fmt.Errorf("create admission: %w", err)
	}
	return nil
}

// UpdateDraft overwrites the applicant fields of a draft. Setting IsDraft to false finalises it.
// sql.ErrNoRows is returned when the row is missing or no longer a draft.
func (r *AdmissionRepository) UpdateDraft(ctx context.Context, admission *models.Admission) error {
	admission.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admission_forms SET first_name = :first_name, last_name = :last_name, father_name = :father_name,
	cnic = :cnic, date_of_birth = :date_of_birth, gender = :gender, email = :email, contact_number = :contact_number,
	guardian_contact = :guardian_contact, address = :address, qualification = :qualification, course_id = :course_id,
	photo_url = :photo_url, is_draft = :is_draft, updated_at = :updated_at
	WHERE id = :id AND is_draft = TRUE`
	res, err := r.db.NamedExecContext(ctx, query, mapping.FromAdmission(*admission))
	if err != nil {
		return fmt.Errorf("update admission draft: %w", err)
	}
	if err := affectedOrNoRows(res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("update admission draft: %w", err)
	}
	return nil
}

// FindByID fetches an admission form.
func (r *AdmissionRepository) FindByID(ctx context.Context, id string) (*models.Admission, error) {
	query := `SELECT ` + admissionColumns + ` FROM admission_forms WHERE id = $1`
	var rec mapping.AdmissionRecord
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admission: %w", err)
	}
	admission := mapping.ToAdmission(rec)
	return &admission, nil
}

// FindOpenByCNIC returns the pending, submitted admission for a national ID if any.
func (r *AdmissionRepository) FindOpenByCNIC(ctx context.Context, cnic string) (*models.Admission, error) {
	query := `SELECT ` + admissionColumns + ` FROM admission_forms
	WHERE cnic = $1 AND status = 'Pending' AND is_draft = FALSE ORDER BY created_at DESC LIMIT 1`
	var rec mapping.AdmissionRecord
	if err := r.db.GetContext(ctx, &rec, query, cnic); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find open admission: %w", err)
	}
	admission := mapping.ToAdmission(rec)
	return &admission, nil
}

// Track lists an applicant's admissions with course titles and any registration number.
func (r *AdmissionRepository) Track(ctx context.Context, cnic string) ([]models.AdmissionTrack, error) {
	const query = `SELECT a.id, a.status, a.is_draft, COALESCE(a.remarks, '') AS remarks,
	COALESCE(a.course_id, '') AS course_id, COALESCE(c.title, '') AS course_title, a.created_at,
	COALESCE(w.registration_no, '') AS registration_no
	FROM admission_forms a
	LEFT JOIN courses c ON c.id = a.course_id
	LEFT JOIN admission_withdrawal w ON w.admission_id = a.id
	WHERE a.cnic = $1
	ORDER BY a.created_at DESC`
	var rows []models.AdmissionTrack
	if err := r.db.SelectContext(ctx, &rows, query, cnic); err != nil {
		return nil, fmt.Errorf("track admissions: %w", err)
	}
	return rows, nil
}

// List returns admissions matching the filter and the total count.
func (r *AdmissionRepository) List(ctx context.Context, filter models.AdmissionFilter) ([]models.Admission, int, error) {
	var conds conditions
	if filter.Status != "" {
		conds.add("status = $%[1]d", filter.Status)
	}
	if filter.CourseID != "" {
		conds.add("course_id = $%[1]d", filter.CourseID)
	}
	if filter.IsDraft != nil {
		conds.add("is_draft = $%[1]d", *filter.IsDraft)
	}
	if filter.Search != "" {
		conds.add("(LOWER(first_name || ' ' || COALESCE(last_name, '')) LIKE $%[1]d OR cnic LIKE $%[1]d)", likePattern(filter.Search))
	}

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"created_at": "created_at",
		"first_name": "first_name",
		"status":     "status",
	}, "created_at")
	_, size, offset := paginate(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s FROM admission_forms%s ORDER BY %s LIMIT %d OFFSET %d", admissionColumns, conds.where(), order, size, offset)
	var records []mapping.AdmissionRecord
	if err := r.db.SelectContext(ctx, &records, listQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list admissions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM admission_forms"+conds.where(), conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count admissions: %w", err)
	}
	return mapping.ToAdmissions(records), total, nil
}

// Reject moves a pending, submitted form to Rejected. sql.ErrNoRows signals the form was not pending.
func (r *AdmissionRepository) Reject(ctx context.Context, id, reviewerID, remarks string, at time.Time) (*models.Admission, error) {
	query := `UPDATE admission_forms SET status = 'Rejected', remarks = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $4
	WHERE id = $1 AND status = 'Pending' AND is_draft = FALSE
	RETURNING ` + admissionColumns
	var rec mapping.AdmissionRecord
	if err := r.db.GetContext(ctx, &rec, query, id, remarks, reviewerID, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("reject admission: %w", err)
	}
	admission := mapping.ToAdmission(rec)
	return &admission, nil
}

// ApprovalParams drives ApproveAndRegister.
type ApprovalParams struct {
	AdmissionID       string
	ReviewerID        string
	At                time.Time
	DefaultCourseCode string
	// RegistrationNo formats the registration number from the course code and serial.
	RegistrationNo func(courseCode string, serial int64, at time.Time) string
}

// ApproveAndRegister flips a pending form to Approved and creates its register entry in one transaction.
// sql.ErrNoRows is returned when the compare-and-swap finds the form no longer pending.
func (r *AdmissionRepository) ApproveAndRegister(ctx context.Context, p ApprovalParams) (_ *models.Admission, _ *models.RegisterEntry, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin approval: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	casQuery := `UPDATE admission_forms SET status = 'Approved', reviewed_by = $2, reviewed_at = $3, updated_at = $3
	WHERE id = $1 AND status = 'Pending' AND is_draft = FALSE
	RETURNING ` + admissionColumns
	var rec mapping.AdmissionRecord
	if err = tx.GetContext(ctx, &rec, casQuery, p.AdmissionID, p.ReviewerID, p.At); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("approve admission: %w", err)
	}
	admission := mapping.ToAdmission(rec)

	var course struct {
		Code  sql.NullString `db:"code"`
		Title string         `db:"title"`
	}
	if err = tx.GetContext(ctx, &course, `SELECT code, title FROM courses WHERE id = $1`, admission.CourseID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("load course snapshot: %w", err)
		}
		err = nil
	}
	code := course.Code.String
	if code == "" {
		code = p.DefaultCourseCode
	}

	var serial int64
	if err = tx.GetContext(ctx, &serial, `SELECT nextval('register_serial_seq')`); err != nil {
		return nil, nil, fmt.Errorf("next register serial: %w", err)
	}

	entry := models.RegisterEntry{
		ID:             uuid.NewString(),
		AdmissionID:    admission.ID,
		RegistrationNo: p.RegistrationNo(code, serial, p.At),
		SerialNo:       serial,
		StudentName:    admission.FullName(),
		CNIC:           admission.CNIC,
		CourseID:       admission.CourseID,
		CourseName:     course.Title,
		EnrollmentDate: p.At,
		Status:         models.RegisterStatusActive,
		CreatedAt:      p.At,
		UpdatedAt:      p.At,
	}
	const insert = `INSERT INTO admission_withdrawal (` + registerColumns + `)
	VALUES (:id, :admission_id, :registration_no, :serial_no, :student_name, :cnic, :course_id, :course_name,
	:enrollment_date, :withdrawal_date, :status, :remarks, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insert, mapping.FromRegisterEntry(entry)); err != nil {
		return nil, nil, fmt.Errorf("create register entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit approval: %w", err)
	}
	return &admission, &entry, nil
}

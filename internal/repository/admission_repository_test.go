package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-portal-api/internal/models"
	"github.com/noah-isme/institute-portal-api/pkg/database"
)

var admissionRowColumns = []string{"id", "first_name", "last_name", "father_name", "cnic", "date_of_birth", "gender", "email",
	"contact_number", "guardian_contact", "address", "qualification", "course_id", "photo_url", "status", "is_draft", "remarks",
	"reviewed_by", "reviewed_at", "created_at", "updated_at"}

func admissionRow(rows *sqlmock.Rows, id, status string, draft bool, now time.Time) *sqlmock.Rows {
	return rows.AddRow(id, "Ali", "Khan", "Akbar Khan", "12345-1234567-1", now, "Male", nil, "+923001234567", nil,
		"Lahore", nil, "C1", "https://cdn/p.png", status, draft, nil, nil, nil, now, now)
}

func registrationNo(code string, serial int64, at time.Time) string {
	return fmt.Sprintf("%s-%02d-%05d", code, at.Year()%100, serial)
}

func TestAdmissionCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectExec("INSERT INTO admission_forms").WillReturnResult(sqlmock.NewResult(1, 1))

	admission := &models.Admission{FirstName: "Ali", CNIC: "12345-1234567-1"}
	require.NoError(t, repo.Create(context.Background(), admission))
	assert.NotEmpty(t, admission.ID)
	assert.Equal(t, models.AdmissionStatusPending, admission.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionUpdateDraftRequiresDraft(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND is_draft = TRUE")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDraft(context.Background(), &models.Admission{ID: "a1", CNIC: "12345-1234567-1"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	now := time.Now()
	draft := false
	mock.ExpectQuery(regexp.QuoteMeta("FROM admission_forms WHERE status = $1 AND is_draft = $2 ORDER BY created_at DESC LIMIT 10 OFFSET 10")).
		WithArgs(string(models.AdmissionStatusPending), false).
		WillReturnRows(admissionRow(sqlmock.NewRows(admissionRowColumns), "a1", "Pending", false, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM admission_forms WHERE status = $1 AND is_draft = $2")).
		WithArgs(string(models.AdmissionStatusPending), false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	items, total, err := repo.List(context.Background(), models.AdmissionFilter{Status: models.AdmissionStatusPending, IsDraft: &draft, Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 11, total)
	assert.Equal(t, "Ali Khan", items[0].FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveAndRegisterCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	at := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE admission_forms SET status = 'Approved'")).
		WithArgs("a1", "admin-1", at).
		WillReturnRows(admissionRow(sqlmock.NewRows(admissionRowColumns), "a1", "Approved", false, at))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, title FROM courses WHERE id = $1")).
		WithArgs("C1").
		WillReturnRows(sqlmock.NewRows([]string{"code", "title"}).AddRow("CIT", "Certificate in IT"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT nextval('register_serial_seq')")).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(42))
	mock.ExpectExec("INSERT INTO admission_withdrawal").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	admission, entry, err := repo.ApproveAndRegister(context.Background(), ApprovalParams{
		AdmissionID: "a1", ReviewerID: "admin-1", At: at, DefaultCourseCode: "GEN", RegistrationNo: registrationNo,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusApproved, admission.Status)
	assert.Equal(t, "CIT-26-00042", entry.RegistrationNo)
	assert.Equal(t, models.RegisterStatusActive, entry.Status)
	assert.Equal(t, "C1", entry.CourseID)
	assert.Equal(t, "Certificate in IT", entry.CourseName)
	assert.Equal(t, "Ali Khan", entry.StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveAndRegisterFallsBackToDefaultCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE admission_forms").WillReturnRows(admissionRow(sqlmock.NewRows(admissionRowColumns), "a1", "Approved", false, at))
	mock.ExpectQuery("SELECT code, title FROM courses").WillReturnRows(sqlmock.NewRows([]string{"code", "title"}).AddRow(nil, "Graphic Design"))
	mock.ExpectQuery("nextval").WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(7))
	mock.ExpectExec("INSERT INTO admission_withdrawal").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	_, entry, err := repo.ApproveAndRegister(context.Background(), ApprovalParams{AdmissionID: "a1", At: at, DefaultCourseCode: "GEN", RegistrationNo: registrationNo})
	require.NoError(t, err)
	assert.Equal(t, "GEN-25-00007", entry.RegistrationNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveAndRegisterCASMissRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE admission_forms").WillReturnRows(sqlmock.NewRows(admissionRowColumns))
	mock.ExpectRollback()

	_, _, err := repo.ApproveAndRegister(context.Background(), ApprovalParams{AdmissionID: "a1", At: time.Now(), RegistrationNo: registrationNo})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveAndRegisterUniqueViolationRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE admission_forms").WillReturnRows(admissionRow(sqlmock.NewRows(admissionRowColumns), "a1", "Approved", false, at))
	mock.ExpectQuery("SELECT code, title FROM courses").WillReturnRows(sqlmock.NewRows([]string{"code", "title"}).AddRow("CIT", "IT"))
	mock.ExpectQuery("nextval").WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(8))
	mock.ExpectExec("INSERT INTO admission_withdrawal").
		WillReturnError(&pq.Error{Code: "23505", Constraint: RegisterEntryUniqueConstraint})
	mock.ExpectRollback()

	_, _, err := repo.ApproveAndRegister(context.Background(), ApprovalParams{AdmissionID: "a1", At: at, RegistrationNo: registrationNo})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err, RegisterEntryUniqueConstraint))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmissionRejectCAS(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	at := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE admission_forms SET status = 'Rejected'")).
		WithArgs("a1", "Incomplete documents", "admin-1", at).
		WillReturnRows(admissionRow(sqlmock.NewRows(admissionRowColumns), "a1", "Rejected", false, at))

	admission, err := repo.Reject(context.Background(), "a1", "admin-1", "Incomplete documents", at)
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusRejected, admission.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

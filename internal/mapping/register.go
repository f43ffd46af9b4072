package mapping

import (
	"database/sql"
	"time"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

// RegisterRecord mirrors a row of admission_withdrawal.
type RegisterRecord struct {
	ID             string         `db:"id"`
	AdmissionID    string         `db:"admission_id"`
	RegistrationNo string         `db:"registration_no"`
	SerialNo       int64          `db:"serial_no"`
	StudentName    string         `db:"student_name"`
	CNIC           string         `db:"cnic"`
	CourseID       sql.NullString `db:"course_id"`
	CourseName     sql.NullString `db:"course_name"`
	EnrollmentDate time.Time      `db:"enrollment_date"`
	WithdrawalDate sql.NullTime   `db:"withdrawal_date"`
	Status         sql.NullString `db:"status"`
	Remarks        sql.NullString `db:"remarks"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// ToRegisterEntry builds an entity from a record. A missing status reads as Active.
func ToRegisterEntry(r RegisterRecord) models.RegisterEntry {
	status, ok := models.ParseRegisterStatus(r.Status.String)
	if !ok {
		status = models.RegisterStatusActive
	}
	return models.RegisterEntry{
		ID:             r.ID,
		AdmissionID:    r.AdmissionID,
		RegistrationNo: r.RegistrationNo,
		SerialNo:       r.SerialNo,
		StudentName:    r.StudentName,
		CNIC:           r.CNIC,
		CourseID:       r.CourseID.String,
		CourseName:     r.CourseName.String,
		EnrollmentDate: r.EnrollmentDate,
		WithdrawalDate: timePtr(r.WithdrawalDate),
		Status:         status,
		Remarks:        r.Remarks.String,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// FromRegisterEntry builds the record to persist.
func FromRegisterEntry(e models.RegisterEntry) RegisterRecord {
	status := e.Status
	if status == "" {
		status = models.RegisterStatusActive
	}
	return RegisterRecord{
		ID:             e.ID,
		AdmissionID:    e.AdmissionID,
		RegistrationNo: e.RegistrationNo,
		SerialNo:       e.SerialNo,
		StudentName:    e.StudentName,
		CNIC:           e.CNIC,
		CourseID:       nullString(e.CourseID),
		CourseName:     nullString(e.CourseName),
		EnrollmentDate: e.EnrollmentDate,
		WithdrawalDate: nullTime(e.WithdrawalDate),
		Status:         nullString(string(status)),
		Remarks:        nullString(e.Remarks),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// ToRegisterEntries maps a slice of records.
func ToRegisterEntries(records []RegisterRecord) []models.RegisterEntry {
	out := make([]models.RegisterEntry, 0, len(records))
	for _, r := range records {
		out = append(out, ToRegisterEntry(r))
	}
	return out
}

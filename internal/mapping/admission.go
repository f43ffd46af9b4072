package mapping

import (
	"database/sql"
	"time"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

// AdmissionRecord mirrors a row of admission_forms.
type AdmissionRecord struct {
	ID              string         `db:"id"`
	FirstName       sql.NullString `db:"first_name"`
	LastName        sql.NullString `db:"last_name"`
	FatherName      sql.NullString `db:"father_name"`
	CNIC            string         `db:"cnic"`
	DateOfBirth     sql.NullTime   `db:"date_of_birth"`
	Gender          sql.NullString `db:"gender"`
	Email           sql.NullString `db:"email"`
	ContactNumber   sql.NullString `db:"contact_number"`
	GuardianContact sql.NullString `db:"guardian_contact"`
	Address         sql.NullString `db:"address"`
	Qualification   sql.NullString `db:"qualification"`
	CourseID        sql.NullString `db:"course_id"`
	PhotoURL        sql.NullString `db:"photo_url"`
	Status          sql.NullString `db:"status"`
	IsDraft         bool           `db:"is_draft"`
	Remarks         sql.NullString `db:"remarks"`
	ReviewedBy      sql.NullString `db:"reviewed_by"`
	ReviewedAt      sql.NullTime   `db:"reviewed_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

// ToAdmission builds an entity from a record. A missing status reads as Pending.
func ToAdmission(r AdmissionRecord) models.Admission {
	status := models.AdmissionStatus(r.Status.String)
	if !status.Valid() {
		status = models.AdmissionStatusPending
	}
	return models.Admission{
		ID:              r.ID,
		FirstName:       r.FirstName.String,
		LastName:        r.LastName.String,
		FatherName:      r.FatherName.String,
		CNIC:            r.CNIC,
		DateOfBirth:     timePtr(r.DateOfBirth),
		Gender:          models.Gender(r.Gender.String),
		Email:           r.Email.String,
		ContactNumber:   r.ContactNumber.String,
		GuardianContact: r.GuardianContact.String,
		Address:         r.Address.String,
		Qualification:   r.Qualification.String,
		CourseID:        r.CourseID.String,
		PhotoURL:        r.PhotoURL.String,
		Status:          status,
		IsDraft:         r.IsDraft,
		Remarks:         r.Remarks.String,
		ReviewedBy:      stringPtr(r.ReviewedBy),
		ReviewedAt:      timePtr(r.ReviewedAt),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// FromAdmission builds the record to persist. Empty strings become NULL.
func FromAdmission(a models.Admission) AdmissionRecord {
	status := a.Status
	if !status.Valid() {
		status = models.AdmissionStatusPending
	}
	return AdmissionRecord{
		ID:              a.ID,
		FirstName:       nullString(a.FirstName),
		LastName:        nullString(a.LastName),
		FatherName:      nullString(a.FatherName),
		CNIC:            a.CNIC,
		DateOfBirth:     nullTime(a.DateOfBirth),
		Gender:          nullString(string(a.Gender)),
		Email:           nullString(a.Email),
		ContactNumber:   nullString(a.ContactNumber),
		GuardianContact: nullString(a.GuardianContact),
		Address:         nullString(a.Address),
		Qualification:   nullString(a.Qualification),
		CourseID:        nullString(a.CourseID),
		PhotoURL:        nullString(a.PhotoURL),
		Status:          nullString(string(status)),
		IsDraft:         a.IsDraft,
		Remarks:         nullString(a.Remarks),
		ReviewedBy:      nullStringPtr(a.ReviewedBy),
		ReviewedAt:      nullTime(a.ReviewedAt),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// ToAdmissions maps a slice of records.
func ToAdmissions(records []AdmissionRecord) []models.Admission {
	out := make([]models.Admission, 0, len(records))
	for _, r := range records {
		out = append(out, ToAdmission(r))
	}
	return out
}

package models

import "time"

// AdmissionStatus captures the review state of an admission form.
type AdmissionStatus string

const (
	AdmissionStatusPending  AdmissionStatus = "Pending"
	AdmissionStatusApproved AdmissionStatus = "Approved"
	AdmissionStatusRejected AdmissionStatus = "Rejected"
)

// Valid reports whether s is one of the three review states.
func (s AdmissionStatus) Valid() bool {
	switch s {
	case AdmissionStatusPending, AdmissionStatusApproved, AdmissionStatusRejected:
		return true
	}
	return false
}

// Gender values accepted on the admission form.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Admission is an applicant's enrollment request.
type Admission struct {
	ID              string          `json:"id"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	FatherName      string          `json:"father_name"`
	CNIC            string          `json:"cnic"`
	DateOfBirth     *time.Time      `json:"date_of_birth,omitempty"`
	Gender          Gender          `json:"gender,omitempty"`
	Email           string          `json:"email,omitempty"`
	ContactNumber   string          `json:"contact_number"`
	GuardianContact string          `json:"guardian_contact,omitempty"`
	Address         string          `json:"address"`
	Qualification   string          `json:"qualification,omitempty"`
	CourseID        string          `json:"course_id"`
	PhotoURL        string          `json:"photo_url"`
	Status          AdmissionStatus `json:"status"`
	IsDraft         bool            `json:"is_draft"`
	Remarks         string          `json:"remarks,omitempty"`
	ReviewedBy      *string         `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// FullName joins first and last name.
func (a Admission) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// AdmissionFilter narrows admin review listings.
type AdmissionFilter struct {
	Status    AdmissionStatus
	CourseID  string
	IsDraft   *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AdmissionDecision is the outcome of an approval.
type AdmissionDecision struct {
	Admission *Admission     `json:"admission"`
	Entry     *RegisterEntry `json:"register_entry,omitempty"`
}

// AdmissionTrack is the public view returned by the admission tracker.
type AdmissionTrack struct {
	ID             string          `db:"id" json:"id"`
	Status         AdmissionStatus `db:"status" json:"status"`
	IsDraft        bool            `db:"is_draft" json:"is_draft"`
	Remarks        string          `db:"remarks" json:"remarks,omitempty"`
	CourseID       string          `db:"course_id" json:"course_id,omitempty"`
	CourseTitle    string          `db:"course_title" json:"course_title,omitempty"`
	SubmittedAt    time.Time       `db:"created_at" json:"submitted_at"`
	RegistrationNo string          `db:"registration_no" json:"registration_no,omitempty"`
}

package dto

// SubmitAdmissionRequest is the public admission form. DraftID finalises a saved draft in place.
type SubmitAdmissionRequest struct {
	DraftID         string `json:"draft_id" validate:"omitempty,uuid"`
	FirstName       string `json:"first_name" validate:"required,notblank,max=80"`
	LastName        string `json:"last_name" validate:"required,notblank,max=80"`
	FatherName      string `json:"father_name" validate:"required,notblank,max=120"`
	CNIC            string `json:"cnic" validate:"required,cnic"`
	DateOfBirth     string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender          string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Email           string `json:"email" validate:"omitempty,email"`
	ContactNumber   string `json:"contact_number" validate:"required,pkphone"`
	GuardianContact string `json:"guardian_contact" validate:"omitempty,pkphone"`
	Address         string `json:"address" validate:"required,notblank,max=255"`
	Qualification   string `json:"qualification" validate:"omitempty,max=120"`
	CourseID        string `json:"course_id" validate:"required,uuid"`
	Photo           string `json:"photo" validate:"required,dataurl_or_url"`
}

// SaveDraftRequest stores a partially completed form. Only the national ID is mandatory.
type SaveDraftRequest struct {
	DraftID         string `json:"draft_id" validate:"omitempty,uuid"`
	FirstName       string `json:"first_name" validate:"omitempty,max=80"`
	LastName        string `json:"last_name" validate:"omitempty,max=80"`
	FatherName      string `json:"father_name" validate:"omitempty,max=120"`
	CNIC            string `json:"cnic" validate:"required,cnic"`
	DateOfBirth     string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender          string `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Email           string `json:"email" validate:"omitempty,email"`
	ContactNumber   string `json:"contact_number" validate:"omitempty,pkphone"`
	GuardianContact string `json:"guardian_contact" validate:"omitempty,pkphone"`
	Address         string `json:"address" validate:"omitempty,max=255"`
	Qualification   string `json:"qualification" validate:"omitempty,max=120"`
	CourseID        string `json:"course_id" validate:"omitempty,uuid"`
	Photo           string `json:"photo" validate:"omitempty,dataurl_or_url"`
}

// RejectAdmissionRequest carries the reviewer's reason.
type RejectAdmissionRequest struct {
	Remarks string `json:"remarks" validate:"required,notblank,max=500"`
}

// AdmissionQuery mirrors supported review listing filters.
type AdmissionQuery struct {
	Status    string `form:"status" validate:"omitempty,oneof=Pending Approved Rejected"`
	CourseID  string `form:"course_id" validate:"omitempty,uuid"`
	IsDraft   *bool  `form:"is_draft"`
	Search    string `form:"search"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"page_size" validate:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" validate:"omitempty,oneof=asc desc ASC DESC"`
}

// TrackAdmissionQuery looks up an applicant's forms by national ID.
type TrackAdmissionQuery struct {
	CNIC string `form:"cnic" json:"cnic" validate:"required,cnic"`
}

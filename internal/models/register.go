package models

import (
	"strings"
	"time"
)

// RegisterStatus is the lifecycle state of an enrolled student.
type RegisterStatus string

const (
	RegisterStatusActive     RegisterStatus = "Active"
	RegisterStatusSuspended  RegisterStatus = "Suspended"
	RegisterStatusRusticated RegisterStatus = "Rusticated"
	RegisterStatusCertified  RegisterStatus = "Certified"
	// RegisterStatusApproved only appears on rows created before Active existed.
	RegisterStatusApproved RegisterStatus = "Approved"
)

var registerTransitions = map[RegisterStatus][]RegisterStatus{
	RegisterStatusApproved:   {RegisterStatusActive, RegisterStatusSuspended, RegisterStatusRusticated},
	RegisterStatusActive:     {RegisterStatusSuspended, RegisterStatusRusticated, RegisterStatusCertified},
	RegisterStatusSuspended:  {RegisterStatusActive, RegisterStatusRusticated},
	RegisterStatusRusticated: nil,
	RegisterStatusCertified:  nil,
}

// ParseRegisterStatus resolves s case-insensitively.
func ParseRegisterStatus(s string) (RegisterStatus, bool) {
	for status := range registerTransitions {
		if strings.EqualFold(string(status), strings.TrimSpace(s)) {
			return status, true
		}
	}
	return "", false
}

// CanTransitionTo reports whether the register table allows moving from s to next.
func (s RegisterStatus) CanTransitionTo(next RegisterStatus) bool {
	for _, allowed := range registerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s RegisterStatus) Terminal() bool {
	allowed, known := registerTransitions[s]
	return known && len(allowed) == 0
}

// StampsWithdrawal reports whether entering s records a withdrawal date.
func (s RegisterStatus) StampsWithdrawal() bool {
	return s == RegisterStatusRusticated || s == RegisterStatusCertified
}

// RegisterEntry is a row of the student register created on approval.
type RegisterEntry struct {
	ID             string         `json:"id"`
	AdmissionID    string         `json:"admission_id"`
	RegistrationNo string         `json:"registration_no"`
	SerialNo       int64          `json:"serial_no"`
	StudentName    string         `json:"student_name"`
	CNIC           string         `json:"cnic"`
	CourseID       string         `json:"course_id"`
	CourseName     string         `json:"course_name"`
	EnrollmentDate time.Time      `json:"enrollment_date"`
	WithdrawalDate *time.Time     `json:"withdrawal_date,omitempty"`
	Status         RegisterStatus `json:"status"`
	Remarks        string         `json:"remarks,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// RegisterFilter narrows register listings and exports.
type RegisterFilter struct {
	Status    RegisterStatus
	CourseID  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
	// All skips pagination; exports read every matching row.
	All bool
}

// RegisterExport describes a generated register file.
type RegisterExport struct {
	Format    string    `json:"format"`
	Rows      int       `json:"rows"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Enrollment is a student's own register entry with its course.
type Enrollment struct {
	Entry  RegisterEntry `json:"register_entry"`
	Course *Course       `json:"course,omitempty"`
}

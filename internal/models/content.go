package models

import (
	"time"

	"github.com/lib/pq"
)

// Product is merchandise shown on the public shop page.
type Product struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description,omitempty"`
	Price       float64        `db:"price" json:"price"`
	Stock       int            `db:"stock" json:"stock"`
	ImageURL    string         `db:"image_url" json:"image_url,omitempty"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	Active      bool           `db:"active" json:"active"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// ExamResult is a published mark sheet line for a registered student.
type ExamResult struct {
	ID             string    `db:"id" json:"id"`
	RegistrationNo string    `db:"registration_no" json:"registration_no"`
	CourseID       string    `db:"course_id" json:"course_id"`
	ExamTitle      string    `db:"exam_title" json:"exam_title"`
	ObtainedMarks  float64   `db:"obtained_marks" json:"obtained_marks"`
	TotalMarks     float64   `db:"total_marks" json:"total_marks"`
	Grade          string    `db:"grade" json:"grade"`
	PublishedAt    time.Time `db:"published_at" json:"published_at"`
}

// NewsAlert is a headline shown on the public site.
type NewsAlert struct {
	ID        string     `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	Body      string     `db:"body" json:"body"`
	Active    bool       `db:"active" json:"active"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// SessionSchedule is a scheduled live class.
type SessionSchedule struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	Title        string    `db:"title" json:"title"`
	StartsAt     time.Time `db:"starts_at" json:"starts_at"`
	EndsAt       time.Time `db:"ends_at" json:"ends_at"`
	MeetingURL   string    `db:"meeting_url" json:"meeting_url,omitempty"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AttendanceStatus values for a session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
)

// AttendanceRecord marks a register entry's presence in a session.
type AttendanceRecord struct {
	ID         string           `db:"id" json:"id"`
	RegisterID string           `db:"register_id" json:"register_id"`
	ScheduleID string           `db:"schedule_id" json:"schedule_id"`
	Status     AttendanceStatus `db:"status" json:"status"`
	MarkedBy   string           `db:"marked_by" json:"marked_by"`
	MarkedAt   time.Time        `db:"marked_at" json:"marked_at"`
}

// DiscussionPost is a message on a course board.
type DiscussionPost struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name,omitempty"`
	Body       string    `db:"body" json:"body"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

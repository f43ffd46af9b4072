package dto

import "time"

// CourseRequest creates or replaces a course.
type CourseRequest struct {
	Code          string   `json:"code" validate:"required,alphanum,max=10"`
	Title         string   `json:"title" validate:"required,notblank,max=160"`
	Description   string   `json:"description" validate:"omitempty,max=2000"`
	DurationWeeks int      `json:"duration_weeks" validate:"omitempty,min=1,max=520"`
	Fee           float64  `json:"fee" validate:"gte=0"`
	Modules       []string `json:"modules" validate:"omitempty,dive,notblank"`
	Active        *bool    `json:"active"`
}

// ProductRequest creates or replaces a shop product.
type ProductRequest struct {
	Name        string   `json:"name" validate:"required,notblank,max=160"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	Price       float64  `json:"price" validate:"gte=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	ImageURL    string   `json:"image_url" validate:"omitempty,url"`
	Tags        []string `json:"tags" validate:"omitempty,dive,notblank"`
	Active      *bool    `json:"active"`
}

// ResultLookupQuery is the public result search.
type ResultLookupQuery struct {
	RegistrationNo string `form:"registration_no" validate:"required"`
	CNIC           string `form:"cnic" validate:"required,cnic"`
}

// PublishResultRequest records an exam result for a registered student.
type PublishResultRequest struct {
	RegistrationNo string  `json:"registration_no" validate:"required"`
	CourseID       string  `json:"course_id" validate:"omitempty,uuid"`
	ExamTitle      string  `json:"exam_title" validate:"required,notblank,max=160"`
	ObtainedMarks  float64 `json:"obtained_marks" validate:"gte=0,ltefield=TotalMarks"`
	TotalMarks     float64 `json:"total_marks" validate:"gt=0"`
	Grade          string  `json:"grade" validate:"omitempty,max=4"`
}

// AlertRequest publishes a news alert.
type AlertRequest struct {
	Title     string     `json:"title" validate:"required,notblank,max=160"`
	Body      string     `json:"body" validate:"required,notblank"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// ScheduleRequest schedules a live session.
type ScheduleRequest struct {
	CourseID     string    `json:"course_id" validate:"required,uuid"`
	Title        string    `json:"title" validate:"required,notblank,max=160"`
	StartsAt     time.Time `json:"starts_at" validate:"required"`
	EndsAt       time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	MeetingURL   string    `json:"meeting_url" validate:"omitempty,url"`
	InstructorID string    `json:"instructor_id" validate:"omitempty,uuid"`
}

// MarkAttendanceRequest records presence for one register entry.
type MarkAttendanceRequest struct {
	RegisterID string `json:"register_id" validate:"required,uuid"`
	Status     string `json:"status" validate:"required,oneof=PRESENT ABSENT LATE"`
}

// DiscussionRequest posts to a course board.
type DiscussionRequest struct {
	Body string `json:"body" validate:"required,notblank,max=5000"`
}

// CourseQuery mirrors supported course listing filters.
type CourseQuery struct {
	Search   string `form:"search"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// PageQuery is a plain pagination query.
type PageQuery struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"page_size" validate:"omitempty,min=1,max=100"`
}

package models

import "time"

// Course is an offered programme.
type Course struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	DurationWeeks int       `json:"duration_weeks"`
	Fee           float64   `json:"fee"`
	Modules       []string  `json:"modules"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	ActiveOnly bool
	Search     string
	Page       int
	PageSize   int
}

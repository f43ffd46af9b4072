package mapping

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

// CourseRecord mirrors a row of courses.
type CourseRecord struct {
	ID            string          `db:"id"`
	Code          sql.NullString  `db:"code"`
	Title         string          `db:"title"`
	Description   sql.NullString  `db:"description"`
	DurationWeeks sql.NullInt64   `db:"duration_weeks"`
	Fee           sql.NullFloat64 `db:"fee"`
	Modules       pq.StringArray  `db:"modules"`
	Active        bool            `db:"active"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// ToCourse builds an entity from a record. Missing module lists read as empty.
func ToCourse(r CourseRecord) models.Course {
	return models.Course{
		ID:            r.ID,
		Code:          r.Code.String,
		Title:         r.Title,
		Description:   r.Description.String,
		DurationWeeks: int(r.DurationWeeks.Int64),
		Fee:           r.Fee.Float64,
		Modules:       stringsOrEmpty(r.Modules),
		Active:        r.Active,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// FromCourse builds the record to persist.
func FromCourse(c models.Course) CourseRecord {
	return CourseRecord{
		ID:            c.ID,
		Code:          nullString(c.Code),
		Title:         c.Title,
		Description:   nullString(c.Description),
		DurationWeeks: sql.NullInt64{Int64: int64(c.DurationWeeks), Valid: c.DurationWeeks > 0},
		Fee:           sql.NullFloat64{Float64: c.Fee, Valid: true},
		Modules:       pq.StringArray(stringsOrEmpty(c.Modules)),
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// ToCourses maps a slice of records.
func ToCourses(records []CourseRecord) []models.Course {
	out := make([]models.Course, 0, len(records))
	for _, r := range records {
		out = append(out, ToCourse(r))
	}
	return out
}

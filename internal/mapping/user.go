package mapping

import (
	"database/sql"
	"time"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

// UserRecord mirrors a row of users_table.
type UserRecord struct {
	ID             string         `db:"id"`
	Username       string         `db:"username"`
	Email          sql.NullString `db:"email"`
	PasswordHash   string         `db:"password_hash"`
	FullName       sql.NullString `db:"full_name"`
	Phone          sql.NullString `db:"phone"`
	Role           sql.NullString `db:"role"`
	RegistrationNo sql.NullString `db:"registration_no"`
	Active         bool           `db:"active"`
	LastLogin      sql.NullTime   `db:"last_login"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// ToUser builds an entity from a record. Unknown or missing roles read as student.
func ToUser(r UserRecord) models.User {
	role := models.UserRole(r.Role.String)
	if !role.Valid() {
		role = models.RoleStudent
	}
	return models.User{
		ID:             r.ID,
		Username:       r.Username,
		Email:          r.Email.String,
		PasswordHash:   r.PasswordHash,
		FullName:       r.FullName.String,
		Phone:          r.Phone.String,
		Role:           role,
		RegistrationNo: r.RegistrationNo.String,
		Active:         r.Active,
		LastLogin:      timePtr(r.LastLogin),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// FromUser builds the record to persist.
func FromUser(u models.User) UserRecord {
	role := u.Role
	if !role.Valid() {
		role = models.RoleStudent
	}
	return UserRecord{
		ID:             u.ID,
		Username:       u.Username,
		Email:          nullString(u.Email),
		PasswordHash:   u.PasswordHash,
		FullName:       nullString(u.FullName),
		Phone:          nullString(u.Phone),
		Role:           nullString(string(role)),
		RegistrationNo: nullString(u.RegistrationNo),
		Active:         u.Active,
		LastLogin:      nullTime(u.LastLogin),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// ToUsers maps a slice of records.
func ToUsers(records []UserRecord) []models.User {
	out := make([]models.User, 0, len(records))
	for _, r := range records {
		out = append(out, ToUser(r))
	}
	return out
}

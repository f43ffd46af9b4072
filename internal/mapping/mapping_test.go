package mapping

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-portal-api/internal/models"
)

func TestToAdmissionDefaultsAndDeterminism(t *testing.T) {
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	rec := AdmissionRecord{
		ID:            "adm-1",
		FirstName:     sql.NullString{String: "Ali", Valid: true},
		CNIC:          "12345-1234567-1",
		ContactNumber: sql.NullString{String: "+923001234567", Valid: true},
		CourseID:      sql.NullString{String: "C1", Valid: true},
		CreatedAt:     created,
		UpdatedAt:     created,
	}

	first := ToAdmission(rec)
	second := ToAdmission(rec)
	assert.Equal(t, first, second)
	assert.Equal(t, models.AdmissionStatusPending, first.Status)
	assert.Equal(t, "", first.LastName)
	assert.Nil(t, first.DateOfBirth)
	assert.Nil(t, first.ReviewedBy)
	assert.Equal(t, "Ali", first.FullName())
}

func TestFromAdmissionNullsEmptyFields(t *testing.T) {
	reviewer := "admin-1"
	rec := FromAdmission(models.Admission{
		ID:         "adm-1",
		FirstName:  "Ali",
		CNIC:       "12345-1234567-1",
		Status:     models.AdmissionStatusApproved,
		ReviewedBy: &reviewer,
	})
	assert.True(t, rec.FirstName.Valid)
	assert.False(t, rec.Email.Valid)
	assert.False(t, rec.CourseID.Valid)
	assert.Equal(t, "Approved", rec.Status.String)
	assert.Equal(t, "admin-1", rec.ReviewedBy.String)

	back := ToAdmission(rec)
	require.NotNil(t, back.ReviewedBy)
	assert.Equal(t, reviewer, *back.ReviewedBy)
}

func TestRegisterEntryMapping(t *testing.T) {
	withdrawn := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	entry := ToRegisterEntry(RegisterRecord{ID: "r1", RegistrationNo: "CIT-24-00001"})
	assert.Equal(t, models.RegisterStatusActive, entry.Status)
	assert.Nil(t, entry.WithdrawalDate)

	legacy := ToRegisterEntry(RegisterRecord{ID: "r2", Status: sql.NullString{String: "approved", Valid: true}})
	assert.Equal(t, models.RegisterStatusApproved, legacy.Status)

	rec := FromRegisterEntry(models.RegisterEntry{ID: "r3", Status: models.RegisterStatusCertified, WithdrawalDate: &withdrawn})
	assert.True(t, rec.WithdrawalDate.Valid)
	assert.Equal(t, "Certified", rec.Status.String)
	assert.Len(t, ToRegisterEntries([]RegisterRecord{rec, rec}), 2)
}

func TestUserMappingDefaultsRole(t *testing.T) {
	user := ToUser(UserRecord{ID: "u1", Username: "ali"})
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "", user.RegistrationNo)

	instr := ToUser(UserRecord{ID: "u2", Role: sql.NullString{String: "instructor", Valid: true}})
	assert.Equal(t, models.RoleInstructor, instr.Role)

	rec := FromUser(models.User{ID: "u3", Username: "x"})
	assert.Equal(t, "student", rec.Role.String)
	assert.False(t, rec.RegistrationNo.Valid)
}

func TestCourseMappingDefaultsModules(t *testing.T) {
	course := ToCourse(CourseRecord{ID: "c1", Title: "Web Development"})
	require.NotNil(t, course.Modules)
	assert.Empty(t, course.Modules)
	assert.Equal(t, "", course.Code)

	rec := FromCourse(models.Course{ID: "c1", Title: "Web", Modules: []string{"HTML", "CSS"}, DurationWeeks: 12})
	assert.Equal(t, []string{"HTML", "CSS"}, []string(rec.Modules))
	assert.Equal(t, int64(12), rec.DurationWeeks.Int64)
	assert.Len(t, ToCourses([]CourseRecord{rec}), 1)
}

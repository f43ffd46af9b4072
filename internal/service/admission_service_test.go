package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-portal-api/internal/dto"
	"github.com/noah-isme/institute-portal-api/internal/models"
	"github.com/noah-isme/institute-portal-api/internal/repository"
	appErrors "github.com/noah-isme/institute-portal-api/pkg/errors"
	"github.com/noah-isme/institute-portal-api/pkg/validation"
)

type admissionFixture struct {
	svc      *AdmissionService
	store    *admissionStoreStub
	notifier *notifierStub
	audit    *auditLoggerStub
	metrics  *MetricsService
}

func newAdmissionFixture() *admissionFixture {
	store := newAdmissionStoreStub()
	notifier := &notifierStub{}
	audit := &auditLoggerStub{}
	metrics := NewMetricsService()
	svc := NewAdmissionService(store, newCourseLookupStub(), &photoResolverStub{}, notifier, audit, nil, metrics, validation.New(), AdmissionConfig{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return &admissionFixture{svc: svc, store: store, notifier: notifier, audit: audit, metrics: metrics}
}

func validSubmission() dto.SubmitAdmissionRequest {
	return dto.SubmitAdmissionRequest{
		FirstName:     "Ayesha",
		LastName:      "Khan",
		FatherName:    "Imran Khan",
		CNIC:          "1234512345671",
		DateOfBirth:   "2004-05-01",
		Gender:        "Female",
		Email:         "Ayesha@Example.com",
		ContactNumber: "03001234567",
		Address:       "House 1, Street 2, Lahore",
		CourseID:      courseC1,
		Photo:         "data:image/png;base64,iVBORw0KGgo=",
	}
}

func fieldNames(err error) []string {
	var names []string
	for _, f := range appErrors.Fields(err) {
		names = append(names, f.Field)
	}
	return names
}

func TestAdmissionServiceSubmitReportsEveryMissingField(t *testing.T) {
	fx := newAdmissionFixture()

	_, err := fx.svc.Submit(context.Background(), dto.SubmitAdmissionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.ElementsMatch(t, []string{
		"first_name", "last_name", "father_name", "cnic", "date_of_birth",
		"contact_number", "address", "course_id", "photo",
	}, fieldNames(err))
	assert.Zero(t, fx.store.writes)
}

func TestAdmissionServiceSubmitRejectsMalformedCNIC(t *testing.T) {
	fx := newAdmissionFixture()
	req := validSubmission()
	req.CNIC = "12345"

	_, err := fx.svc.Submit(context.Background(), req)
	require.Error(t, err)
	fields := appErrors.Fields(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "cnic", fields[0].Field)
	assert.Equal(t, "cnic", fields[0].Tag)
	assert.Contains(t, fields[0].Message, "national ID")
	assert.Zero(t, fx.store.writes)
}

func TestAdmissionServiceSubmitRejectsInvalidPhone(t *testing.T) {
	fx := newAdmissionFixture()
	req := validSubmission()
	req.ContactNumber = "+92300123"

	_, err := fx.svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, []string{"contact_number"}, fieldNames(err))
}

func TestAdmissionServiceSubmitRequiresOpenCourse(t *testing.T) {
	fx := newAdmissionFixture()
	for _, courseID := range []string{courseClosed, unknownID} {
		req := validSubmission()
		req.CourseID = courseID
		_, err := fx.svc.Submit(context.Background(), req)
		require.Error(t, err, courseID)
		assert.Equal(t, []string{"course_id"}, fieldNames(err))
	}
	assert.Zero(t, fx.store.writes)
}

func TestAdmissionServiceSubmitNormalisesAndPersists(t *testing.T) {
	fx := newAdmissionFixture()

	admission, err := fx.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusPending, admission.Status)
	assert.False(t, admission.IsDraft)
	assert.Equal(t, "12345-1234567-1", admission.CNIC)
	assert.Equal(t, "+923001234567", admission.ContactNumber)
	assert.Equal(t, "ayesha@example.com", admission.Email)
	assert.Equal(t, "https://media.example.com/photos/applicant.png", admission.PhotoURL)
	require.NotNil(t, admission.DateOfBirth)
	assert.Equal(t, "2004-05-01", admission.DateOfBirth.Format("2006-01-02"))
	assert.Contains(t, fx.audit.actions(), models.AuditActionAdmissionSubmit)
}

func TestAdmissionServiceSubmitRejectsSecondOpenApplication(t *testing.T) {
	fx := newAdmissionFixture()
	_, err := fx.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	_, err = fx.svc.Submit(context.Background(), validSubmission())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestAdmissionServiceConcurrentSubmitLosesToUniqueIndex(t *testing.T) {
	fx := newAdmissionFixture()
	fx.store.writeErr = &pq.Error{Code: "23505", Constraint: repository.OpenAdmissionConstraint}

	_, err := fx.svc.Submit(context.Background(), validSubmission())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	fx.store.writeErr = &pq.Error{Code: "23505", Constraint: "some_other_key"}
	_, err = fx.svc.Submit(context.Background(), validSubmission())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAdmissionServiceDraftIsFinalisedInPlace(t *testing.T) {
	fx := newAdmissionFixture()
	draft, err := fx.svc.SaveDraft(context.Background(), dto.SaveDraftRequest{CNIC: "12345 1234567 1", FirstName: "Ayesha"})
	require.NoError(t, err)
	assert.True(t, draft.IsDraft)
	assert.Equal(t, "12345-1234567-1", draft.CNIC)

	_, err = fx.svc.Approve(context.Background(), draft.ID, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	req := validSubmission()
	req.DraftID = draft.ID
	submitted, err := fx.svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, submitted.ID)
	assert.False(t, submitted.IsDraft)
	assert.Len(t, fx.store.forms, 1)
}

func TestAdmissionServiceApproveCreatesOneActiveEntry(t *testing.T) {
	fx := newAdmissionFixture()
	admission, err := fx.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	decision, err := fx.svc.Approve(context.Background(), admission.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusApproved, decision.Admission.Status)
	require.NotNil(t, decision.Entry)
	assert.Equal(t, models.RegisterStatusActive, decision.Entry.Status)
	assert.Equal(t, courseC1, decision.Entry.CourseID)
	assert.Equal(t, "CIT-26-00001", decision.Entry.RegistrationNo)
	assert.Equal(t, "Ayesha Khan", decision.Entry.StudentName)
	assert.Len(t, fx.store.entries, 1)
	assert.Equal(t, []string{"CIT-26-00001"}, fx.notifier.approved)
	assert.Contains(t, fx.audit.actions(), models.AuditActionAdmissionApprove)

	tracked, err := fx.svc.Track(context.Background(), "1234512345671")
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	assert.Equal(t, "CIT-26-00001", tracked[0].RegistrationNo)
}

func TestAdmissionServiceSecondApproveConflicts(t *testing.T) {
	fx := newAdmissionFixture()
	admission, err := fx.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	_, err = fx.svc.Approve(context.Background(), admission.ID, "admin-1")
	require.NoError(t, err)

	_, err = fx.svc.Approve(context.Background(), admission.ID, "admin-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Len(t, fx.store.entries, 1)
	assert.Len(t, fx.notifier.approved, 1)
}

func TestAdmissionServiceConcurrentApprovalsCreateOneEntry(t *testing.T) {
	fx := newAdmissionFixture()
	admission, err := fx.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.Approve(context.Background(), admission.ID, "admin")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, appErrors.ErrConflict))
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, fx.store.entries, 1)
}

func TestAdmissionServiceApproveMapsUniqueViolationToConflict(t *testing.T) {
	fx := newAdmissionFixture()
	admission, err := fx.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	fx.store.entries[admission.ID] = &models.RegisterEntry{ID: "existing", AdmissionID: admission.ID}

	_, err = fx.svc.Approve(context.Background(), admission.ID, "admin-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestAdmissionServiceApproveMissingForm(t *testing.T) {
	fx := newAdmissionFixture()
	_, err := fx.svc.Approve(context.Background(), unknownID, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, fx.store.entries)
}

func TestAdmissionServiceMalformedIDsNeverReachTheStore(t *testing.T) {
	fx := newAdmissionFixture()

	for _, call := range []func() error{
		func() error { _, err := fx.svc.Get(context.Background(), "abc"); return err },
		func() error { _, err := fx.svc.Approve(context.Background(), "abc", "admin-1"); return err },
		func() error {
			_, err := fx.svc.Reject(context.Background(), "42", dto.RejectAdmissionRequest{Remarks: "Incomplete documents"}, "admin-1")
			return err
		},
	} {
		err := call()
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	}

	req := validSubmission()
	req.CourseID = "C1"
	_, err := fx.svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, []string{"course_id"}, fieldNames(err))
	assert.Zero(t, fx.store.writes)
}

func TestAdmissionServiceApproveStoreFailureIsInternal(t *testing.T) {
	fx := newAdmissionFixture()
	admission, err := fx.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	fx.store.approveErr = errors.New("connection reset")

	_, err = fx.svc.Approve(context.Background(), admission.ID, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.AdmissionStatusPending, fx.store.forms[admission.ID].Status)
	assert.Empty(t, fx.notifier.approved)
}

func TestAdmissionServiceRejectStoresRemarksWithoutEntry(t *testing.T) {
	fx := newAdmissionFixture()
	admission, err := fx.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	rejected, err := fx.svc.Reject(context.Background(), admission.ID, dto.RejectAdmissionRequest{Remarks: "  Incomplete documents "}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusRejected, rejected.Status)
	assert.Equal(t, "Incomplete documents", rejected.Remarks)
	assert.Empty(t, fx.store.entries)
	assert.Equal(t, []string{"Incomplete documents"}, fx.notifier.rejected)

	_, err = fx.svc.Approve(context.Background(), admission.ID, "admin-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Empty(t, fx.store.entries)
}

func TestAdmissionServiceRejectRequiresRemarks(t *testing.T) {
	fx := newAdmissionFixture()
	admission, err := fx.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	_, err = fx.svc.Reject(context.Background(), admission.ID, dto.RejectAdmissionRequest{Remarks: "<b> </b>"}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, []string{"remarks"}, fieldNames(err))
	assert.Equal(t, models.AdmissionStatusPending, fx.store.forms[admission.ID].Status)
}

func TestAdmissionServiceStatusAlwaysOneOfThree(t *testing.T) {
	fx := newAdmissionFixture()
	ctx := context.Background()
	first, err := fx.svc.Submit(ctx, validSubmission())
	require.NoError(t, err)
	second := validSubmission()
	second.CNIC = "54321-7654321-9"
	other, err := fx.svc.Submit(ctx, second)
	require.NoError(t, err)

	_, err = fx.svc.Approve(ctx, first.ID, "admin")
	require.NoError(t, err)
	_, err = fx.svc.Reject(ctx, other.ID, dto.RejectAdmissionRequest{Remarks: "Incomplete documents"}, "admin")
	require.NoError(t, err)

	items, _, err := fx.svc.List(ctx, dto.AdmissionQuery{})
	require.NoError(t, err)
	for _, item := range items {
		assert.True(t, item.Status.Valid())
		_, hasEntry := fx.store.entries[item.ID]
		assert.Equal(t, item.Status == models.AdmissionStatusApproved, hasEntry)
	}
}

func TestFormatRegistrationNo(t *testing.T) {
	at := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "CIT-26-00042", FormatRegistrationNo("cit", 42, at))
	assert.Equal(t, "GEN-26-00007", FormatRegistrationNo("", 7, at))
	assert.Equal(t, "DAE-26-123456", FormatRegistrationNo("DAE", 123456, at))
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-portal-api/internal/models"
	"github.com/noah-isme/institute-portal-api/pkg/jobs"
	"github.com/noah-isme/institute-portal-api/pkg/mailer"
)

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type enqueuerStub struct {
	jobs []jobs.Job
}

func (e *enqueuerStub) Enqueue(job jobs.Job) error {
	e.jobs = append(e.jobs, job)
	return nil
}

func approvedPair() (*models.Admission, *models.RegisterEntry) {
	admission := &models.Admission{ID: "adm-1", FirstName: "Ayesha", LastName: "Khan", Email: "ayesha@example.com"}
	entry := &models.RegisterEntry{ID: "reg-1", RegistrationNo: "CIT-26-00001", CourseName: "Certificate in IT"}
	return admission, entry
}

func TestNotificationServiceEnqueuesApproval(t *testing.T) {
	queue := &enqueuerStub{}
	svc := NewNotificationService(&recordingMailer{}, nil, "Institute Portal", nil)
	svc.Bind(queue)

	admission, entry := approvedPair()
	svc.AdmissionApproved(context.Background(), admission, entry)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, NotificationAdmissionApproved, queue.jobs[0].Kind)
	notice, ok := queue.jobs[0].Payload.(ApplicantNotice)
	require.True(t, ok)
	assert.Equal(t, "CIT-26-00001", notice.RegistrationNo)
	assert.Equal(t, "Ayesha Khan", notice.Name)
}

func TestNotificationServiceSkipsApplicantsWithoutEmail(t *testing.T) {
	queue := &enqueuerStub{}
	svc := NewNotificationService(&recordingMailer{}, nil, "Institute Portal", nil)
	svc.Bind(queue)

	admission, entry := approvedPair()
	admission.Email = ""
	svc.AdmissionApproved(context.Background(), admission, entry)
	svc.AdmissionRejected(context.Background(), admission)

	assert.Empty(t, queue.jobs)
}

func TestNotificationServiceUnboundQueueDoesNotPanic(t *testing.T) {
	svc := NewNotificationService(&recordingMailer{}, nil, "Institute Portal", nil)
	admission, entry := approvedPair()
	assert.NotPanics(t, func() { svc.AdmissionApproved(context.Background(), admission, entry) })
}

func TestNotificationServiceHandleSendsEscapedMail(t *testing.T) {
	m := &recordingMailer{}
	metrics := NewMetricsService()
	svc := NewNotificationService(m, metrics, "Institute Portal", nil)

	notice := ApplicantNotice{
		Kind:        NotificationAdmissionRejected,
		AdmissionID: "adm-1",
		Name:        "Ayesha Khan",
		Email:       "ayesha@example.com",
		Remarks:     "Missing <b>matric</b> certificate",
	}
	require.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: "j1", Kind: notice.Kind, Payload: notice}))

	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, "ayesha@example.com", msg.To.Address)
	assert.Equal(t, "Ayesha Khan", msg.To.Name)
	assert.Contains(t, msg.Text, "Missing <b>matric</b> certificate")
	assert.Contains(t, msg.HTML, "Missing &lt;b&gt;matric&lt;/b&gt; certificate")
	assert.Equal(t, NotificationAdmissionRejected, msg.Category)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifications.WithLabelValues(NotificationAdmissionRejected, "sent")))
}

func TestNotificationServiceHandleReturnsSendErrorsForRetry(t *testing.T) {
	m := &recordingMailer{err: errors.New("smtp unavailable")}
	metrics := NewMetricsService()
	svc := NewNotificationService(m, metrics, "Institute Portal", nil)

	admission, entry := approvedPair()
	notice := ApplicantNotice{Kind: NotificationAdmissionApproved, AdmissionID: admission.ID, Name: admission.FullName(), Email: admission.Email, RegistrationNo: entry.RegistrationNo}
	err := svc.Handle(context.Background(), jobs.Job{ID: "j1", Kind: notice.Kind, Payload: notice})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifications.WithLabelValues(NotificationAdmissionApproved, "failed")))
}

func TestNotificationServiceHandleDropsUndeliverableNotices(t *testing.T) {
	m := &recordingMailer{}
	svc := NewNotificationService(m, nil, "Institute Portal", nil)

	assert.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: "j1", Payload: "garbage"}))
	assert.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: "j2", Payload: ApplicantNotice{Kind: NotificationAdmissionApproved, Email: "not an address"}}))
	assert.Empty(t, m.sent)
}

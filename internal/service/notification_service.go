package service

import (
	"context"
	"fmt"
	"html"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-portal-api/internal/models"
	"github.com/noah-isme/institute-portal-api/pkg/jobs"
	"github.com/noah-isme/institute-portal-api/pkg/mailer"
)

// Notification kinds carried on the queue.
const (
	NotificationAdmissionApproved = "admission.approved"
	NotificationAdmissionRejected = "admission.rejected"
)

// ApplicantNotice is the queued payload for an applicant email.
type ApplicantNotice struct {
	Kind           string
	AdmissionID    string
	Name           string
	Email          string
	CourseName     string
	RegistrationNo string
	Remarks        string
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService turns admission decisions into queued applicant emails.
type NotificationService struct {
	mailer  mailer.Mailer
	queue   jobEnqueuer
	metrics *MetricsService
	appName string
	logger  *zap.Logger
}

// NewNotificationService constructs the service. Bind must be called before decisions are enqueued.
func NewNotificationService(m mailer.Mailer, metrics *MetricsService, appName string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{mailer: m, metrics: metrics, appName: appName, logger: logger}
}

// Bind attaches the queue that Handle is registered on.
func (s *NotificationService) Bind(queue jobEnqueuer) {
	s.queue = queue
}

// AdmissionApproved schedules the approval email with the registration number.
func (s *NotificationService) AdmissionApproved(ctx context.Context, admission *models.Admission, entry *models.RegisterEntry) {
	if admission == nil || entry == nil {
		return
	}
	s.enqueue(ctx, ApplicantNotice{
		Kind:           NotificationAdmissionApproved,
		AdmissionID:    admission.ID,
		Name:           admission.FullName(),
		Email:          admission.Email,
		CourseName:     entry.CourseName,
		RegistrationNo: entry.RegistrationNo,
	})
}

// AdmissionRejected schedules the rejection email with the reviewer's remarks.
func (s *NotificationService) AdmissionRejected(ctx context.Context, admission *models.Admission) {
	if admission == nil {
		return
	}
	s.enqueue(ctx, ApplicantNotice{
		Kind:        NotificationAdmissionRejected,
		AdmissionID: admission.ID,
		Name:        admission.FullName(),
		Email:       admission.Email,
		Remarks:     admission.Remarks,
	})
}

func (s *NotificationService) enqueue(ctx context.Context, notice ApplicantNotice) {
	logger := s.logger.With(zap.String("kind", notice.Kind), zap.String("admission_id", notice.AdmissionID))
	if strings.TrimSpace(notice.Email) == "" {
		logger.Warn("applicant has no email on file, notification skipped")
		return
	}
	if s.queue == nil {
		logger.Warn("notification queue not configured, notification skipped")
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Kind: notice.Kind, Payload: notice, EnqueuedAt: time.Now().UTC()}
	if err := s.queue.Enqueue(job); err != nil {
		logger.Error("failed to enqueue notification", zap.Error(err))
	}
}

// Handle delivers one queued notice. It is the queue's job handler; errors trigger a retry.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	notice, ok := job.Payload.(ApplicantNotice)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("kind", job.Kind))
		return nil
	}
	msg, err := s.compose(notice)
	if err != nil {
		s.logger.Error("notification dropped", zap.String("admission_id", notice.AdmissionID), zap.Error(err))
		return nil
	}
	err = s.mailer.Send(ctx, msg)
	s.metrics.NotificationDelivered(notice.Kind, err)
	if err != nil {
		return fmt.Errorf("send %s notification: %w", notice.Kind, err)
	}
	s.logger.Info("applicant notified", zap.String("kind", notice.Kind), zap.String("admission_id", notice.AdmissionID))
	return nil
}

func (s *NotificationService) compose(notice ApplicantNotice) (mailer.Message, error) {
	to, err := mail.ParseAddress(notice.Email)
	if err != nil {
		return mailer.Message{}, fmt.Errorf("invalid recipient: %w", err)
	}
	to.Name = notice.Name

	var subject string
	var lines []string
	switch notice.Kind {
	case NotificationAdmissionApproved:
		subject = "Your admission has been approved"
		course := notice.CourseName
		if course == "" {
			course = "your selected course"
		}
		lines = []string{
			fmt.Sprintf("Your admission to %s has been approved.", course),
			fmt.Sprintf("Your registration number is %s. Please keep it for result lookups and portal access.", notice.RegistrationNo),
		}
	case NotificationAdmissionRejected:
		subject = "Update on your admission application"
		lines = []string{"We are unable to accept your admission application at this time."}
		if notice.Remarks != "" {
			lines = append(lines, "Reviewer remarks: "+notice.Remarks)
		}
	default:
		return mailer.Message{}, fmt.Errorf("unknown notification kind %q", notice.Kind)
	}

	greeting := fmt.Sprintf("Dear %s,", notice.Name)
	signoff := "Regards,\n" + s.appName

	text := greeting + "\n\n" + strings.Join(lines, "\n\n") + "\n\n" + signoff
	var body strings.Builder
	body.WriteString("<p>" + html.EscapeString(greeting) + "</p>")
	for _, line := range lines {
		body.WriteString("<p>" + html.EscapeString(line) + "</p>")
	}
	body.WriteString("<p>Regards,<br>" + html.EscapeString(s.appName) + "</p>")

	return mailer.Message{
		To:       *to,
		Subject:  subject,
		Text:     text,
		HTML:     body.String(),
		Category: notice.Kind,
	}, nil
}

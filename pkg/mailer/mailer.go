package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/institute-portal-api/pkg/config"
)

// Message is an outbound email.
type Message struct {
	To       mail.Address
	Subject  string
	Text     string
	HTML     string
	Category string
}

// Mailer delivers messages. Implementations return an error for anything worth retrying.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New selects a driver from configuration.
func New(cfg config.MailConfig, appName string, logger *zap.Logger) (Mailer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case "", config.MailDriverLog:
		return NewLogMailer(logger), nil
	case config.MailDriverSendgrid:
		if strings.TrimSpace(cfg.SendgridAPIKey) == "" {
			return nil, fmt.Errorf("sendgrid driver requires SENDGRID_API_KEY")
		}
		return NewSendgridMailer(cfg.SendgridAPIKey, appName, mail.Address{Name: cfg.FromName, Address: cfg.FromAddress}, logger), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To.Address) == "" {
		return fmt.Errorf("message has no recipient")
	}
	if m.Text == "" && m.HTML == "" {
		return fmt.Errorf("message has no content")
	}
	return nil
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a mailer for development environments.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the message envelope and text body.
func (l *LogMailer) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	l.logger.Info("email",
		zap.String("to", msg.To.String()),
		zap.String("subject", msg.Subject),
		zap.String("category", msg.Category),
		zap.String("body", msg.Text),
	)
	return nil
}

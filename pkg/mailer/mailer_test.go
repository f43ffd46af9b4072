package mailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/institute-portal-api/pkg/config"
)

func TestNewSelectsDriver(t *testing.T) {
	m, err := New(config.MailConfig{Driver: config.MailDriverLog}, "Portal", nil)
	require.NoError(t, err)
	require.IsType(t, &LogMailer{}, m)

	_, err = New(config.MailConfig{Driver: config.MailDriverSendgrid}, "Portal", nil)
	require.Error(t, err)

	m, err = New(config.MailConfig{Driver: config.MailDriverSendgrid, SendgridAPIKey: "key"}, "Portal", nil)
	require.NoError(t, err)
	require.IsType(t, &SendgridMailer{}, m)

	_, err = New(config.MailConfig{Driver: "smtp"}, "Portal", nil)
	require.Error(t, err)
}

func TestLogMailerSend(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core))

	err := m.Send(context.Background(), Message{To: mail.Address{Address: "a@example.com"}, Subject: "Hello", Text: "body"})
	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterMessage("email").Len())

	require.Error(t, m.Send(context.Background(), Message{Subject: "no recipient", Text: "x"}))
	require.Error(t, m.Send(context.Background(), Message{To: mail.Address{Address: "a@example.com"}}))
}

func TestSendgridMailerPrepare(t *testing.T) {
	s := NewSendgridMailer("key", "Portal", mail.Address{Name: "Office", Address: "office@example.com"}, nil)
	body := string(sgmail.GetRequestBody(s.prepare(Message{
		To:       mail.Address{Name: "Ali", Address: "ali@example.com"},
		Subject:  "Admission approved",
		Text:     "welcome",
		Category: "admission",
	})))

	require.Contains(t, body, "[Portal] Admission approved")
	require.Contains(t, body, "ali@example.com")
	require.Contains(t, body, "office@example.com")
	require.Contains(t, body, "admission")
}

func TestSendgridMailerSendReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/mail/send", r.URL.Path)
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewSendgridMailer("key", "", mail.Address{Address: "office@example.com"}, nil)
	s.host = srv.URL
	err := s.Send(context.Background(), Message{To: mail.Address{Address: "ali@example.com"}, Text: "x"})
	require.Error(t, err)
}

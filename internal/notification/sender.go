package notification

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog/log"
)

// Email is one outbound message handed to the transport.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Sender is the external email-transport collaborator.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// SMTPSender delivers email through a plain SMTP relay.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Send delivers one message. net/smtp has no context support; the enclosing
// request's deadline is bounded by the relay's own timeouts.
func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.From, email.To, email.Subject, email.Body)
	return smtp.SendMail(addr, auth, s.From, []string{email.To}, []byte(msg))
}

// LogSender records outbound email in the log instead of delivering it, for
// deployments without an SMTP relay configured.
type LogSender struct{}

// Send logs the message and reports success.
func (s *LogSender) Send(ctx context.Context, email Email) error {
	log.Info().Str("to", email.To).Str("subject", email.Subject).Msg("email delivery skipped (log-only sender)")
	return nil
}

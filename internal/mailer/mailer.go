// internal/mailer/mailer.go
package mailer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/javajoker/bookswap-backend/internal/config"
)

// Message is a single outbound HTML mail.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer delivers through an SMTP relay with gomail.
type SMTPMailer struct {
	dialer   sender
	from     string
	fromName string
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:     cfg.FromEmail,
		fromName: cfg.FromName,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.from, m.fromName)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}

// LogMailer only logs outgoing mail. Used when no SMTP credentials are configured.
type LogMailer struct {
	log logrus.FieldLogger
}

func NewLogMailer(log logrus.FieldLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email not sent, SMTP is not configured")
	return nil
}

// New picks the SMTP mailer when credentials are present.
func New(cfg config.EmailConfig, log logrus.FieldLogger) Mailer {
	if cfg.SMTPUsername == "" {
		return NewLogMailer(log)
	}
	return NewSMTPMailer(cfg)
}

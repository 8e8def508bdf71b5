package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/javajoker/bookswap-backend/internal/config"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestSMTPMailer_Send(t *testing.T) {
	fs := &fakeSender{}
	m := &SMTPMailer{dialer: fs, from: "noreply@bookswap.local", fromName: "BookSwap"}

	err := m.Send(context.Background(), Message{To: "ana@example.com", Subject: "Hola", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	require.Len(t, fs.sent, 1)
	assert.Equal(t, []string{"ana@example.com"}, fs.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Hola"}, fs.sent[0].GetHeader("Subject"))
}

func TestSMTPMailer_SendError(t *testing.T) {
	fs := &fakeSender{err: errors.New("connection refused")}
	m := &SMTPMailer{dialer: fs, from: "noreply@bookswap.local"}

	err := m.Send(context.Background(), Message{To: "ana@example.com"})
	assert.ErrorContains(t, err, "ana@example.com")
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	fs := &fakeSender{}
	m := &SMTPMailer{dialer: fs}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "ana@example.com"}), context.Canceled)
	assert.Empty(t, fs.sent)
}

func TestNew(t *testing.T) {
	log, hook := test.NewNullLogger()

	m := New(config.EmailConfig{}, log)
	require.IsType(t, &LogMailer{}, m)
	require.NoError(t, m.Send(context.Background(), Message{To: "ana@example.com", Subject: "x"}))
	assert.Len(t, hook.AllEntries(), 1)

	assert.IsType(t, &SMTPMailer{}, New(config.EmailConfig{SMTPUsername: "user", SMTPHost: "smtp", SMTPPort: 587}, log))
}

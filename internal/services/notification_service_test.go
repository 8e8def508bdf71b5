package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/bookswap-backend/internal/config"
	"github.com/javajoker/bookswap-backend/internal/models"
	"github.com/javajoker/bookswap-backend/internal/repository"
)

func newNotifier(t *testing.T, adminEmail string) (*NotificationService, *recordingMailer, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	m := &recordingMailer{failFor: map[string]bool{}}
	cfg := &config.Config{
		Domains: config.DomainsConfig{Backend: "api.bookswap.local", Frontend: "https://bookswap.local/"},
		Email:   config.EmailConfig{AdminEmail: adminEmail},
	}
	return NewNotificationService(m, cfg, log), m, hook
}

func TestNotificationService_ActivationRequested(t *testing.T) {
	n, m, _ := newNotifier(t, "admin@bookswap.local")
	book := &models.Book{ISBN: "978-1", Title: "Lengua <3º>", Price: 7}

	n.ActivationRequested(book, "abc123")
	n.Wait()

	require.Len(t, m.sent, 1)
	assert.Equal(t, "admin@bookswap.local", m.sent[0].To)
	assert.Contains(t, m.sent[0].HTML, "http://api.bookswap.local/upload/activate/abc123")
	assert.Contains(t, m.sent[0].HTML, "Lengua &lt;3º&gt;")
	assert.Contains(t, m.sent[0].HTML, "7.00")
}

func TestNotificationService_NoAdminConfigured(t *testing.T) {
	n, m, _ := newNotifier(t, "")

	n.ActivationRequested(&models.Book{}, "abc123")
	n.Wait()
	assert.Empty(t, m.sent)
}

func TestNotificationService_PetitionersAreIsolated(t *testing.T) {
	n, m, hook := newNotifier(t, "")
	m.failFor["b@example.com"] = true

	requesters := []repository.Requester{
		{UserID: uuid.New(), Name: "A", Email: "a@example.com", UserActive: true, Level: models.PetitionLevelLow},
		{UserID: uuid.New(), Name: "B", Email: "b@example.com", UserActive: true, Level: models.PetitionLevelHigh},
		{UserID: uuid.New(), Name: "C", Email: "c@example.com", UserActive: true, Level: models.PetitionLevelMedium},
		{UserID: uuid.New(), Name: "D", Email: "d@example.com", UserActive: false, Level: models.PetitionLevelHigh},
		{UserID: uuid.New(), Name: "E", Email: "e@example.com", UserActive: true, Level: models.PetitionLevelNone},
	}
	n.PetitionersActivated(&models.Book{ISBN: "978-1", Title: "Inglés"}, requesters)
	n.Wait()

	assert.ElementsMatch(t, []string{"a@example.com", "c@example.com"}, m.recipients())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Failed to send email", hook.LastEntry().Message)
}

func TestNotificationService_OwnerActivated(t *testing.T) {
	n, m, _ := newNotifier(t, "")

	n.OwnerActivated(&models.Book{Title: "Inglés"}, &models.User{Name: "Ana", Email: "ana@example.com"})
	n.OwnerActivated(&models.Book{Title: "Inglés"}, nil)
	n.Wait()

	require.Len(t, m.sent, 1)
	assert.Contains(t, m.sent[0].HTML, "https://bookswap.local/login")
}

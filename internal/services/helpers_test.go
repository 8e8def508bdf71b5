package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/bookswap-backend/internal/cache"
	"github.com/javajoker/bookswap-backend/internal/config"
	"github.com/javajoker/bookswap-backend/internal/database"
	"github.com/javajoker/bookswap-backend/internal/events"
	"github.com/javajoker/bookswap-backend/internal/mailer"
	"github.com/javajoker/bookswap-backend/internal/models"
	"github.com/javajoker/bookswap-backend/internal/repository"
)

// testEnv wires the services over an in-memory database and a temp folder.
type testEnv struct {
	db        *gorm.DB
	repos     *repository.Repositories
	store     *flakyStore
	mailer    *recordingMailer
	publisher *recordingPublisher
	views     *memoryViewCache
	notifier  *NotificationService
	books     *BookService
	viewer    *ViewService
	petitions *PetitionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log, _ := test.NewNullLogger()

	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db, log))
	t.Cleanup(func() { database.Close(db, log) })

	local, err := NewLocalStore(t.TempDir(), "http://localhost:3333/images")
	require.NoError(t, err)

	cfg := &config.Config{
		Domains: config.DomainsConfig{Backend: "localhost:3333", Frontend: "localhost:3000"},
		Email:   config.EmailConfig{AdminEmail: "admin@bookswap.local"},
	}

	env := &testEnv{
		db:        db,
		repos:     repository.NewRepositories(db),
		store:     &flakyStore{BlobStore: local, failSaveAt: -1},
		mailer:    &recordingMailer{failFor: map[string]bool{}},
		publisher: &recordingPublisher{},
		views:     newMemoryViewCache(),
	}
	env.notifier = NewNotificationService(env.mailer, cfg, log)
	env.books = NewBookService(env.repos, env.store, env.notifier, env.publisher, env.views, log)
	env.viewer = NewViewService(env.repos, env.store, env.views, log)
	env.petitions = NewPetitionService(env.repos, log)
	return env
}

func (e *testEnv) createUser(t *testing.T, name string, active bool) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Location: "Valencia", Active: active}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) imageRows(t *testing.T, bookID uuid.UUID) []models.BookImage {
	t.Helper()
	images, err := e.repos.Images.ListByBook(context.Background(), bookID)
	require.NoError(t, err)
	return images
}

func blob(name string) []byte {
	return []byte("\xff\xd8\xff\xe0" + name)
}

func validFields(isbn string) BookFields {
	return BookFields{
		ISBN:        isbn,
		Title:       "Física y Química",
		Course:      "4º ESO",
		Editorial:   "Anaya",
		EditionYear: 2021,
		Price:       12.5,
		Detail:      "Sin subrayar",
	}
}

var errInjected = errors.New("injected failure")

// flakyStore wraps a real store and can fail chosen operations.
type flakyStore struct {
	BlobStore
	mu         sync.Mutex
	saves      int
	failSaveAt int
	failRemove bool
	removed    []string
}

func (f *flakyStore) Save(ctx context.Context, data []byte) (string, error) {
	f.mu.Lock()
	n := f.saves
	f.saves++
	f.mu.Unlock()
	if n == f.failSaveAt {
		return "", errInjected
	}
	return f.BlobStore.Save(ctx, data)
}

func (f *flakyStore) Remove(ctx context.Context, locator string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRemove {
		return errInjected
	}
	f.removed = append(f.removed, locator)
	return f.BlobStore.Remove(ctx, locator)
}

type recordingMailer struct {
	mu      sync.Mutex
	sent    []mailer.Message
	failFor map[string]bool
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[msg.To] {
		return errInjected
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		out = append(out, msg.To)
	}
	return out
}

func (m *recordingMailer) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ events.BookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) Close() {}

type memoryViewCache struct {
	mu   sync.Mutex
	data map[uuid.UUID][]byte
}

func newMemoryViewCache() *memoryViewCache {
	return &memoryViewCache{data: map[uuid.UUID][]byte{}}
}

func (c *memoryViewCache) Get(_ context.Context, id uuid.UUID) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[id]
	if !ok {
		return nil, cache.ErrMiss
	}
	return data, nil
}

func (c *memoryViewCache) Set(_ context.Context, id uuid.UUID, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[id] = data
	return nil
}

func (c *memoryViewCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
	return nil
}

func (c *memoryViewCache) Close() error { return nil }

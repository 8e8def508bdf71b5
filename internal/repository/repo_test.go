package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/bookswap-backend/internal/database"
	"github.com/javajoker/bookswap-backend/internal/models"
)

// newTestDB opens a private in-memory SQLite database with the schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	log, _ := test.NewNullLogger()

	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db, log))
	t.Cleanup(func() { database.Close(db, log) })
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string, active bool) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Location: "Madrid", Active: active}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createBook(t *testing.T, repo BookRepository, owner uuid.UUID, isbn string, mutate ...func(*models.Book)) *models.Book {
	t.Helper()
	code := uuid.NewString()
	b := &models.Book{
		OwnerID:        owner,
		ISBN:           isbn,
		Title:          "Matemáticas " + isbn,
		Course:         "2º Bachillerato",
		Editorial:      "SM",
		EditionYear:    2020,
		Price:          15,
		ActivationCode: &code,
		Available:      true,
	}
	for _, m := range mutate {
		m(b)
	}
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

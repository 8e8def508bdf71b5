package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/bookswap-backend/internal/models"
)

// Requester is a petitioner joined with the account data needed to notify them.
type Requester struct {
	UserID     uuid.UUID
	Name       string
	Email      string
	UserActive bool
	Level      models.PetitionLevel
}

// Active reports whether the requester should hear about new listings.
func (r Requester) Active() bool {
	return r.UserActive && r.Level > models.PetitionLevelNone
}

type PetitionRepository interface {
	// Upsert inserts the petition or overwrites the level of (user, isbn).
	Upsert(ctx context.Context, petition *models.Petition) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Petition, error)
	ListByISBN(ctx context.Context, isbn string) ([]models.Petition, error)
	ListRequesters(ctx context.Context, isbn string) ([]Requester, error)
}

type petitionRepo struct {
	db *gorm.DB
}

func NewPetitionRepository(db *gorm.DB) PetitionRepository {
	return &petitionRepo{db: db}
}

func (r *petitionRepo) Upsert(ctx context.Context, petition *models.Petition) error {
	petition.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "isbn"}},
		DoUpdates: clause.AssignmentColumns([]string{"level", "updated_at"}),
	}).Create(petition).Error
}

func (r *petitionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Petition, error) {
	var petitions []models.Petition
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC").Find(&petitions).Error
	return petitions, err
}

func (r *petitionRepo) ListByISBN(ctx context.Context, isbn string) ([]models.Petition, error) {
	var petitions []models.Petition
	err := r.db.WithContext(ctx).Where("isbn = ?", isbn).Order("updated_at DESC").Find(&petitions).Error
	return petitions, err
}

func (r *petitionRepo) ListRequesters(ctx context.Context, isbn string) ([]Requester, error) {
	var requesters []Requester
	err := r.db.WithContext(ctx).
		Table("petitions").
		Select("petitions.user_id AS user_id, users.name AS name, users.email AS email, users.active AS user_active, petitions.level AS level").
		Joins("JOIN users ON users.id = petitions.user_id").
		Where("petitions.isbn = ?", isbn).
		Order("petitions.created_at ASC").
		Scan(&requesters).Error
	return requesters, err
}

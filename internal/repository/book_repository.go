package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/bookswap-backend/internal/database"
	"github.com/javajoker/bookswap-backend/internal/models"
	"github.com/javajoker/bookswap-backend/internal/utils"
)

// BookFilter narrows the public search. Only activated and available books are matched.
type BookFilter struct {
	utils.PaginationParams
	ISBN      string
	Title     string
	Course    string
	Editorial string
	Level     string
	PriceMin  *float64
	PriceMax  *float64
}

// BookRepository is the persistence contract for listings.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	GetByActivationCode(ctx context.Context, code string) (*models.Book, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Book, error)
	Search(ctx context.Context, filter BookFilter) ([]models.Book, int64, error)
	// MarkActivated consumes the activation code. It reports false when the
	// code was already redeemed by a concurrent caller.
	MarkActivated(ctx context.Context, id uuid.UUID, code string) (bool, error)
	// Touch bumps the revision. A missing book is not an error.
	Touch(ctx context.Context, id uuid.UUID) error
	// Delete removes the book and its image rows.
	Delete(ctx context.Context, id uuid.UUID) error
}

type bookRepo struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepo{db: db}
}

func (r *bookRepo) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *bookRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	tx := r.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *bookRepo) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Updates(map[string]any{"revision": gorm.Expr("revision + 1")}).Error
}

func (r *bookRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

func (r *bookRepo) GetByActivationCode(ctx context.Context, code string) (*models.Book, error) {
	if code == "" {
		return nil, ErrNotFound
	}
	var book models.Book
	if err := r.db.WithContext(ctx).Where("activation_code = ?", code).First(&book).Error; err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

func (r *bookRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Book, error) {
	var books []models.Book
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Preload("Images", orderImages).
		Order("created_at DESC").
		Find(&books).Error
	return books, err
}

func (r *bookRepo) Search(ctx context.Context, filter BookFilter) ([]models.Book, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("activated = ? AND available = ?", true, true)

	if filter.ISBN != "" {
		query = query.Where("isbn = ?", filter.ISBN)
	}
	if filter.Title != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Title)+"%")
	}
	if filter.Course != "" {
		query = query.Where("LOWER(course) LIKE ?", "%"+strings.ToLower(filter.Course)+"%")
	}
	if filter.Editorial != "" {
		query = query.Where("LOWER(editorial) LIKE ?", "%"+strings.ToLower(filter.Editorial)+"%")
	}
	if filter.Level != "" {
		query = query.Where("LOWER(course) LIKE ?", "%"+strings.ToLower(filter.Level)+"%")
	}
	if filter.PriceMin != nil {
		query = query.Where("price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		query = query.Where("price <= ?", *filter.PriceMax)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	allowedSortFields := []string{"created_at", "price", "title", "edition_year"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var books []models.Book
	if err := query.Preload("Images", orderImages).Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *bookRepo) MarkActivated(ctx context.Context, id uuid.UUID, code string) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND activation_code = ?", id, code).
		Updates(map[string]any{"activated": true, "activation_code": nil})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *bookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTransaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&models.BookImage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Book{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// orderImages keeps insertion order, the de facto display order.
func orderImages(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

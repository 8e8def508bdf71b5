package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/bookswap-backend/internal/database"
	"github.com/javajoker/bookswap-backend/internal/models"
)

type ImageRepository interface {
	Create(ctx context.Context, image *models.BookImage) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BookImage, error)
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]models.BookImage, error)
	CountByBook(ctx context.Context, bookID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkPrimary makes imageID the only primary image of bookID.
	MarkPrimary(ctx context.Context, bookID, imageID uuid.UUID) error
}

type imageRepo struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepo{db: db}
}

func (r *imageRepo) Create(ctx context.Context, image *models.BookImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *imageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.BookImage, error) {
	var image models.BookImage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&image).Error; err != nil {
		return nil, translate(err)
	}
	return &image, nil
}

func (r *imageRepo) ListByBook(ctx context.Context, bookID uuid.UUID) ([]models.BookImage, error) {
	var images []models.BookImage
	err := orderImages(r.db.WithContext(ctx).Where("book_id = ?", bookID)).Find(&images).Error
	return images, err
}

func (r *imageRepo) CountByBook(ctx context.Context, bookID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BookImage{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

func (r *imageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.BookImage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *imageRepo) MarkPrimary(ctx context.Context, bookID, imageID uuid.UUID) error {
	return database.WithTransaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Model(&models.BookImage{}).
			Where("book_id = ? AND id <> ?", bookID, imageID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		res := tx.Model(&models.BookImage{}).
			Where("book_id = ? AND id = ?", bookID, imageID).
			Update("is_primary", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

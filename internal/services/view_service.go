// internal/services/view_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/bookswap-backend/internal/cache"
	"github.com/javajoker/bookswap-backend/internal/models"
	"github.com/javajoker/bookswap-backend/internal/repository"
	"github.com/javajoker/bookswap-backend/internal/utils"
)

type ImageView struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Locator   string    `json:"locator"`
	IsPrimary bool      `json:"is_primary"`
}

type SellerView struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Location string    `json:"location"`
}

// ListingView is the public read model of a listing. Images keep insertion order.
type ListingView struct {
	ID          uuid.UUID   `json:"id"`
	ISBN        string      `json:"isbn"`
	Title       string      `json:"title"`
	Course      string      `json:"course"`
	Editorial   string      `json:"editorial"`
	EditionYear int         `json:"edition_year"`
	Price       float64     `json:"price"`
	Detail      string      `json:"detail"`
	Activated   bool        `json:"activated"`
	Available   bool        `json:"available"`
	Revision    int64       `json:"revision"`
	CreatedAt   time.Time   `json:"created_at"`
	Seller      *SellerView `json:"seller,omitempty"`
	Images      []ImageView `json:"images"`
}

type ViewService struct {
	books  repository.BookRepository
	images repository.ImageRepository
	users  repository.UserRepository
	store  BlobStore
	views  cache.ViewCache
	log    logrus.FieldLogger
}

func NewViewService(repos *repository.Repositories, store BlobStore, views cache.ViewCache, log logrus.FieldLogger) *ViewService {
	if views == nil {
		views = cache.NoopViewCache{}
	}
	return &ViewService{
		books:  repos.Books,
		images: repos.Images,
		users:  repos.Users,
		store:  store,
		views:  views,
		log:    log.WithField("component", "views"),
	}
}

// GetListingView assembles the listing with its seller and image links. A
// cached view is served only while its revision matches the stored book.
func (s *ViewService) GetListingView(ctx context.Context, id uuid.UUID) (*ListingView, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, dbError("load book", err)
	}
	if view, ok := s.cached(ctx, id); ok && view.Revision == book.Revision {
		return view, nil
	}
	owner, err := s.users.GetByID(ctx, book.OwnerID)
	if err != nil {
		return nil, dbError("load seller", err)
	}
	images, err := s.images.ListByBook(ctx, book.ID)
	if err != nil {
		return nil, dbError("list images", err)
	}
	book.Images = images

	view := s.project(book)
	view.Seller = &SellerView{ID: owner.ID, Name: owner.Name, Location: owner.Location}

	if data, err := json.Marshal(view); err == nil {
		if err := s.views.Set(ctx, id, data); err != nil {
			s.log.WithError(err).WithField("book_id", id).Warn("Failed to cache listing view")
		}
	}
	return view, nil
}

// Search lists activated, available books matching the filter.
func (s *ViewService) Search(ctx context.Context, filter repository.BookFilter) ([]ListingView, int64, error) {
	books, total, err := s.books.Search(ctx, filter)
	if err != nil {
		return nil, 0, dbError("search books", err)
	}
	return s.projectAll(books), total, nil
}

// SearchByLevel matches an education level label against the course text.
func (s *ViewService) SearchByLevel(ctx context.Context, level string, params utils.PaginationParams) ([]ListingView, int64, error) {
	label, ok := educationLevel(level)
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown education level %q", ErrValidation, level)
	}
	return s.Search(ctx, repository.BookFilter{PaginationParams: params, Level: label})
}

// ListOwnerListings returns every listing of the owner, activated or not.
func (s *ViewService) ListOwnerListings(ctx context.Context, ownerID uuid.UUID) ([]ListingView, error) {
	books, err := s.books.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dbError("list owner books", err)
	}
	return s.projectAll(books), nil
}

func (s *ViewService) cached(ctx context.Context, id uuid.UUID) (*ListingView, bool) {
	data, err := s.views.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.WithError(err).WithField("book_id", id).Warn("Failed to read cached listing view")
		}
		return nil, false
	}
	var view ListingView
	if err := json.Unmarshal(data, &view); err != nil {
		s.log.WithError(err).WithField("book_id", id).Warn("Discarding undecodable cached view")
		return nil, false
	}
	return &view, true
}

func (s *ViewService) projectAll(books []models.Book) []ListingView {
	views := make([]ListingView, 0, len(books))
	for i := range books {
		views = append(views, *s.project(&books[i]))
	}
	return views
}

func (s *ViewService) project(book *models.Book) *ListingView {
	view := &ListingView{
		ID:          book.ID,
		ISBN:        book.ISBN,
		Title:       book.Title,
		Course:      book.Course,
		Editorial:   book.Editorial,
		EditionYear: book.EditionYear,
		Price:       book.Price,
		Detail:      book.Detail,
		Activated:   book.Activated,
		Available:   book.Available,
		Revision:    book.Revision,
		CreatedAt:   book.CreatedAt,
		Images:      make([]ImageView, 0, len(book.Images)),
	}
	for _, image := range book.Images {
		view.Images = append(view.Images, ImageView{
			ID:        image.ID,
			URL:       s.store.URL(image.Path),
			Locator:   image.Path,
			IsPrimary: image.IsPrimary,
		})
	}
	return view
}

func educationLevel(level string) (string, bool) {
	for _, known := range models.EducationLevels {
		if strings.EqualFold(known, strings.TrimSpace(level)) {
			return known, true
		}
	}
	return "", false
}

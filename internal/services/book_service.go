// internal/services/book_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/bookswap-backend/internal/cache"
	"github.com/javajoker/bookswap-backend/internal/events"
	"github.com/javajoker/bookswap-backend/internal/models"
	"github.com/javajoker/bookswap-backend/internal/repository"
	"github.com/javajoker/bookswap-backend/internal/utils"
)

// BookService drives the listing lifecycle: upload, activation, edits and
// removal, keeping image rows and stored blobs consistent.
type BookService struct {
	books     repository.BookRepository
	images    repository.ImageRepository
	users     repository.UserRepository
	petitions repository.PetitionRepository
	store     BlobStore
	notifier  Notifier
	publisher events.Publisher
	views     cache.ViewCache
	log       logrus.FieldLogger
}

type BookFields struct {
	ISBN        string  `json:"isbn" form:"isbn" validate:"required,isbn_loose"`
	Title       string  `json:"title" form:"title" validate:"required,max=255"`
	Course      string  `json:"course" form:"course" validate:"max=100"`
	Editorial   string  `json:"editorial" form:"editorial" validate:"max=100"`
	EditionYear int     `json:"edition_year" form:"edition_year" validate:"gte=0,lte=9999"`
	Price       float64 `json:"price" form:"price" validate:"gte=0"`
	Detail      string  `json:"detail" form:"detail" validate:"max=2000"`
}

// BookUpdate carries only the fields the client sent.
type BookUpdate struct {
	ISBN        *string  `json:"isbn" form:"isbn" validate:"omitempty,isbn_loose"`
	Title       *string  `json:"title" form:"title" validate:"omitempty,min=1,max=255"`
	Course      *string  `json:"course" form:"course" validate:"omitempty,max=100"`
	Editorial   *string  `json:"editorial" form:"editorial" validate:"omitempty,max=100"`
	EditionYear *int     `json:"edition_year" form:"edition_year" validate:"omitempty,gte=0,lte=9999"`
	Price       *float64 `json:"price" form:"price" validate:"omitempty,gte=0"`
	Detail      *string  `json:"detail" form:"detail" validate:"omitempty,max=2000"`
}

// ImageSlot describes one of the display slots in an update. A changed slot
// takes the next submitted blob and optionally retires OldLocator.
type ImageSlot struct {
	Changed    bool
	OldLocator string
}

type ImageChangeSet [models.MaxBookImages]ImageSlot

func NewBookService(
	repos *repository.Repositories,
	store BlobStore,
	notifier Notifier,
	publisher events.Publisher,
	views cache.ViewCache,
	log logrus.FieldLogger,
) *BookService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if views == nil {
		views = cache.NoopViewCache{}
	}
	return &BookService{
		books:     repos.Books,
		images:    repos.Images,
		users:     repos.Users,
		petitions: repos.Petitions,
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		views:     views,
		log:       log.WithField("component", "books"),
	}
}

// Create stores a new unactivated listing with up to MaxBookImages images.
// The first image becomes primary. Extra blobs are dropped.
func (s *BookService) Create(ctx context.Context, ownerID uuid.UUID, fields BookFields, blobs [][]byte) (*models.Book, error) {
	fields.ISBN = strings.TrimSpace(fields.ISBN)
	if err := utils.ValidateStruct(&fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, dbError("load owner", err)
	}

	if len(blobs) > models.MaxBookImages {
		s.log.WithField("submitted", len(blobs)).Debug("Dropping images over the limit")
		blobs = blobs[:models.MaxBookImages]
	}

	code, err := utils.GenerateRandomString(models.ActivationCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate activation code: %w", err)
	}

	book := &models.Book{
		OwnerID:        ownerID,
		ISBN:           fields.ISBN,
		Title:          fields.Title,
		Course:         fields.Course,
		Editorial:      fields.Editorial,
		EditionYear:    fields.EditionYear,
		Price:          fields.Price,
		Detail:         fields.Detail,
		ActivationCode: &code,
		Activated:      false,
		Available:      true,
	}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, dbError("create book", err)
	}

	sg := newSaga(s.log.WithField("book_id", book.ID))
	sg.add(func(ctx context.Context) error {
		return s.books.Delete(ctx, book.ID)
	})

	for i, blob := range blobs {
		image, err := s.attachImage(ctx, sg, book.ID, blob, i == 0)
		if err != nil {
			sg.compensate(ctx)
			return nil, err
		}
		book.Images = append(book.Images, *image)
	}

	s.notifier.ActivationRequested(book, code)
	s.publish(ctx, events.SubjectBookCreated, book)

	s.log.WithFields(logrus.Fields{
		"book_id": book.ID,
		"owner":   ownerID,
		"images":  len(book.Images),
	}).Info("Book uploaded")

	return book, nil
}

// Activate redeems a one-time code. A consumed or unknown code fails with
// ErrInvalidCode, so notifications fire at most once per listing.
func (s *BookService) Activate(ctx context.Context, code string) (*models.Book, error) {
	book, err := s.books.GetByActivationCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, dbError("load book by code", err)
	}

	ok, err := s.books.MarkActivated(ctx, book.ID, code)
	if err != nil {
		return nil, dbError("activate book", err)
	}
	if !ok {
		return nil, ErrInvalidCode
	}
	book.Activated = true
	book.ActivationCode = nil
	s.invalidate(ctx, book.ID)

	log := s.log.WithField("book_id", book.ID)
	log.Info("Book activated")

	// Activation is persisted; from here on failures are only logged.
	if owner, err := s.users.GetByID(ctx, book.OwnerID); err != nil {
		log.WithError(err).Warn("Failed to load owner for activation notice")
	} else {
		s.notifier.OwnerActivated(book, owner)
	}

	if requesters, err := s.petitions.ListRequesters(ctx, book.ISBN); err != nil {
		log.WithError(err).Warn("Failed to load petitioners")
	} else {
		s.notifier.PetitionersActivated(book, requesters)
	}

	s.publish(ctx, events.SubjectBookActivated, book)
	return book, nil
}

// Update applies field changes and the image change set. All checks run
// before the first write; a failing image step undoes the writes of this call.
func (s *BookService) Update(ctx context.Context, bookID, callerID uuid.UUID, upd BookUpdate, changes ImageChangeSet, blobs [][]byte) (*models.Book, error) {
	if upd.ISBN != nil {
		isbn := strings.TrimSpace(*upd.ISBN)
		upd.ISBN = &isbn
	}
	if err := utils.ValidateStruct(&upd); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	book, err := s.loadMutable(ctx, bookID, callerID)
	if err != nil {
		return nil, err
	}

	current, err := s.images.ListByBook(ctx, book.ID)
	if err != nil {
		return nil, dbError("list images", err)
	}

	plan, err := planImageChanges(current, changes, blobs)
	if err != nil {
		return nil, err
	}
	// A failed step may leave rows the saga had to undo; readers must not
	// keep a view built in between.
	done := false
	defer func() {
		if !done {
			s.invalidate(ctx, book.ID)
		}
	}()

	sg := newSaga(s.log.WithField("book_id", book.ID))

	updates, previous := upd.diff(book)
	if len(updates) > 0 {
		if err := s.books.Update(ctx, book.ID, updates); err != nil {
			return nil, dbError("update book", err)
		}
		sg.add(func(ctx context.Context) error {
			return s.books.Update(ctx, book.ID, previous)
		})
	}

	added := make([]*models.BookImage, len(plan))
	for i, step := range plan {
		image, err := s.attachImage(ctx, sg, book.ID, step.blob, false)
		if err != nil {
			sg.compensate(ctx)
			return nil, err
		}
		added[i] = image
	}

	// New images are in place; retiring the old ones is not undone.
	for i, step := range plan {
		if step.old == nil {
			continue
		}
		if err := s.images.Delete(ctx, step.old.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, dbError("delete replaced image", err)
		}
		if step.old.IsPrimary {
			if err := s.images.MarkPrimary(ctx, book.ID, added[i].ID); err != nil {
				return nil, dbError("transfer primary image", err)
			}
		}
		if err := s.store.Remove(ctx, step.old.Path); err != nil {
			s.log.WithError(err).WithField("locator", step.old.Path).Warn("Failed to remove replaced image blob")
		}
	}

	if len(plan) > 0 {
		if err := s.ensurePrimary(ctx, book.ID); err != nil {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"book_id":        book.ID,
		"fields":         len(updates),
		"images_changed": len(plan),
	}).Info("Book updated")

	s.invalidate(ctx, book.ID)
	done = true
	return s.reload(ctx, book.ID)
}

// AddImage appends one image, respecting the per-listing cap.
func (s *BookService) AddImage(ctx context.Context, bookID, callerID uuid.UUID, blob []byte) (*models.BookImage, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: image is required", ErrValidation)
	}

	book, err := s.loadMutable(ctx, bookID, callerID)
	if err != nil {
		return nil, err
	}

	count, err := s.images.CountByBook(ctx, book.ID)
	if err != nil {
		return nil, dbError("count images", err)
	}
	if count >= models.MaxBookImages {
		return nil, ErrImageLimit
	}

	defer s.invalidate(ctx, book.ID)

	sg := newSaga(s.log.WithField("book_id", book.ID))
	image, err := s.attachImage(ctx, sg, book.ID, blob, count == 0)
	if err != nil {
		sg.compensate(ctx)
		return nil, err
	}
	return image, nil
}

// DeleteImage removes the image row, then its blob. When the removed image
// was primary the oldest remaining image takes over.
func (s *BookService) DeleteImage(ctx context.Context, imageID, callerID uuid.UUID) error {
	image, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		return dbError("load image", err)
	}

	if _, err := s.loadMutable(ctx, image.BookID, callerID); err != nil {
		return err
	}

	if err := s.images.Delete(ctx, image.ID); err != nil {
		return dbError("delete image", err)
	}
	if image.IsPrimary {
		if err := s.ensurePrimary(ctx, image.BookID); err != nil {
			return err
		}
	}
	s.invalidate(ctx, image.BookID)

	if err := s.store.Remove(ctx, image.Path); err != nil {
		return storageError("remove image blob", err)
	}
	return nil
}

// Delete removes the listing with its image rows and blobs. Only the owner
// may delete; availability does not matter.
func (s *BookService) Delete(ctx context.Context, bookID, callerID uuid.UUID) error {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return dbError("load book", err)
	}
	if !book.IsOwnedBy(callerID) {
		return ErrForbidden
	}

	images, err := s.images.ListByBook(ctx, book.ID)
	if err != nil {
		return dbError("list images", err)
	}
	if err := s.books.Delete(ctx, book.ID); err != nil {
		return dbError("delete book", err)
	}
	s.invalidate(ctx, book.ID)

	// Rows are gone; a leftover blob is only an orphan file.
	for _, image := range images {
		if err := s.store.Remove(ctx, image.Path); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"book_id": book.ID,
				"locator": image.Path,
			}).Warn("Failed to remove image blob of deleted book")
		}
	}

	s.publish(ctx, events.SubjectBookDeleted, book)
	s.log.WithField("book_id", book.ID).Info("Book deleted")
	return nil
}

// SetAvailability lets the owner hide or show an activated listing.
func (s *BookService) SetAvailability(ctx context.Context, bookID, callerID uuid.UUID, available bool) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, dbError("load book", err)
	}
	if !book.IsOwnedBy(callerID) {
		return nil, ErrForbidden
	}
	if !book.Activated {
		return nil, ErrNotActivated
	}

	if book.Available != available {
		if err := s.books.Update(ctx, book.ID, map[string]any{"available": available}); err != nil {
			return nil, dbError("update availability", err)
		}
		book.Available = available
		s.invalidate(ctx, book.ID)
	}
	return book, nil
}

// loadMutable enforces the ownership and availability rules shared by
// every edit. Ownership is checked first.
func (s *BookService) loadMutable(ctx context.Context, bookID, callerID uuid.UUID) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, dbError("load book", err)
	}
	if !book.IsOwnedBy(callerID) {
		return nil, ErrForbidden
	}
	if !book.Available {
		return nil, ErrNotAvailable
	}
	return book, nil
}

// attachImage stores the blob and records its row, registering both undo
// steps on the saga.
func (s *BookService) attachImage(ctx context.Context, sg *saga, bookID uuid.UUID, blob []byte, primary bool) (*models.BookImage, error) {
	locator, err := s.store.Save(ctx, blob)
	if err != nil {
		return nil, storageError("save image", err)
	}
	sg.add(func(ctx context.Context) error {
		return s.store.Remove(ctx, locator)
	})

	image := &models.BookImage{BookID: bookID, Path: locator, IsPrimary: primary}
	if err := s.images.Create(ctx, image); err != nil {
		return nil, dbError("create image", err)
	}
	sg.add(func(ctx context.Context) error {
		err := s.images.Delete(ctx, image.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	})

	return image, nil
}

// ensurePrimary promotes the oldest image when none is primary.
func (s *BookService) ensurePrimary(ctx context.Context, bookID uuid.UUID) error {
	images, err := s.images.ListByBook(ctx, bookID)
	if err != nil {
		return dbError("list images", err)
	}
	if len(images) == 0 {
		return nil
	}
	for _, image := range images {
		if image.IsPrimary {
			return nil
		}
	}
	if err := s.images.MarkPrimary(ctx, bookID, images[0].ID); err != nil {
		return dbError("promote primary image", err)
	}
	return nil
}

func (s *BookService) reload(ctx context.Context, bookID uuid.UUID) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, dbError("reload book", err)
	}
	images, err := s.images.ListByBook(ctx, bookID)
	if err != nil {
		return nil, dbError("list images", err)
	}
	book.Images = images
	return book, nil
}

// invalidate bumps the listing revision and drops the cached view. It must
// run after the rows change: a view built before that carries the old
// revision and is rebuilt on its next read.
func (s *BookService) invalidate(ctx context.Context, bookID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	if err := s.books.Touch(ctx, bookID); err != nil {
		s.log.WithError(err).WithField("book_id", bookID).Warn("Failed to bump book revision")
	}
	if err := s.views.Invalidate(ctx, bookID); err != nil {
		s.log.WithError(err).WithField("book_id", bookID).Warn("Failed to invalidate cached view")
	}
}

func (s *BookService) publish(ctx context.Context, subject string, book *models.Book) {
	event := events.BookEvent{
		BookID:     book.ID,
		OwnerID:    book.OwnerID,
		ISBN:       book.ISBN,
		Title:      book.Title,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.log.WithError(err).WithField("subject", subject).Warn("Failed to publish book event")
	}
}

type imageStep struct {
	blob []byte
	old  *models.BookImage
}

// planImageChanges pairs the k-th changed slot with the k-th blob, in slot
// order, and resolves the locators to retire. Extra blobs are ignored.
func planImageChanges(current []models.BookImage, changes ImageChangeSet, blobs [][]byte) ([]imageStep, error) {
	byPath := make(map[string]*models.BookImage, len(current))
	for i := range current {
		byPath[current[i].Path] = &current[i]
	}

	var plan []imageStep
	retired := make(map[string]bool)
	for slot, change := range changes {
		if !change.Changed {
			continue
		}
		if len(plan) >= len(blobs) || len(blobs[len(plan)]) == 0 {
			return nil, fmt.Errorf("%w: slot %d is marked changed but has no image", ErrValidation, slot)
		}

		step := imageStep{blob: blobs[len(plan)]}
		if change.OldLocator != "" {
			old, ok := byPath[change.OldLocator]
			if !ok {
				return nil, fmt.Errorf("%w: slot %d refers to an image of another book", ErrValidation, slot)
			}
			if retired[old.Path] {
				return nil, fmt.Errorf("%w: slot %d retires an image twice", ErrValidation, slot)
			}
			retired[old.Path] = true
			step.old = old
		}
		plan = append(plan, step)
	}

	if len(current)+len(plan)-len(retired) > models.MaxBookImages {
		return nil, ErrImageLimit
	}
	return plan, nil
}

// diff returns the column updates and the values they overwrite.
func (u BookUpdate) diff(book *models.Book) (updates, previous map[string]any) {
	updates = map[string]any{}
	previous = map[string]any{}

	set := func(column string, next, prev any) {
		updates[column] = next
		previous[column] = prev
	}
	if u.ISBN != nil && *u.ISBN != book.ISBN {
		set("isbn", *u.ISBN, book.ISBN)
	}
	if u.Title != nil && *u.Title != book.Title {
		set("title", *u.Title, book.Title)
	}
	if u.Course != nil && *u.Course != book.Course {
		set("course", *u.Course, book.Course)
	}
	if u.Editorial != nil && *u.Editorial != book.Editorial {
		set("editorial", *u.Editorial, book.Editorial)
	}
	if u.EditionYear != nil && *u.EditionYear != book.EditionYear {
		set("edition_year", *u.EditionYear, book.EditionYear)
	}
	if u.Price != nil && *u.Price != book.Price {
		set("price", *u.Price, book.Price)
	}
	if u.Detail != nil && *u.Detail != book.Detail {
		set("detail", *u.Detail, book.Detail)
	}
	return updates, previous
}

// saga collects undo steps for a multi-store write.
type saga struct {
	undo []func(context.Context) error
	log  logrus.FieldLogger
}

func newSaga(log logrus.FieldLogger) *saga {
	return &saga{log: log}
}

func (s *saga) add(fn func(context.Context) error) {
	s.undo = append(s.undo, fn)
}

// compensate runs the undo steps newest first. It keeps going after a
// failed step and survives a cancelled request context.
func (s *saga) compensate(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := len(s.undo) - 1; i >= 0; i-- {
		if err := s.undo[i](ctx); err != nil {
			s.log.WithError(err).WithField("step", i).Warn("Compensation step failed")
		}
	}
	s.undo = nil
}

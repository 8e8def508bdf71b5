// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/javajoker/bookswap-backend/internal/repository"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrForbidden    = errors.New("operation not allowed")
	ErrNotAvailable = errors.New("book is not available")
	ErrNotActivated = errors.New("book is not activated")
	ErrNotFound     = errors.New("not found")
	ErrInvalidCode  = errors.New("invalid activation code")
	ErrImageLimit   = errors.New("image limit reached")
	ErrStorage      = errors.New("storage error")
	ErrDatabase     = errors.New("database error")
)

// dbError classifies a repository failure.
func dbError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrDatabase, op, err)
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

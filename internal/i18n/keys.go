// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyError         = "error"
	KeyInternalError = "internal_error"
	KeyRateLimited   = "rate_limited"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"
	KeyValidationISBN     = "validation.isbn"

	// Books
	KeyBookCreated      = "book.created"
	KeyBookUpdated      = "book.updated"
	KeyBookDeleted      = "book.deleted"
	KeyBookActivated    = "book.activated"
	KeyBookNotFound     = "book.not_found"
	KeyBookForbidden    = "book.forbidden"
	KeyBookNotAvailable = "book.not_available"
	KeyBookNotActivated = "book.not_activated"
	KeyBookInvalidCode  = "book.invalid_code"
	KeyBookAvailability = "book.availability_updated"
	KeyBookInvalidLevel = "book.invalid_level"

	// Images
	KeyImageAdded    = "image.added"
	KeyImageDeleted  = "image.deleted"
	KeyImageNotFound = "image.not_found"
	KeyImageLimit    = "image.limit"
	KeyImageStorage  = "image.storage_error"

	// Petitions
	KeyPetitionSaved = "petition.saved"

	// Users
	KeyUserNotFound = "user.not_found"
)

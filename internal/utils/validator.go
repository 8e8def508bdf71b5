// internal/utils/validator.go
package utils

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate  *validator.Validate
	isbnChars = regexp.MustCompile(`^[0-9]([0-9-]*[0-9Xx])?$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("isbn_loose", validateISBN)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateISBN accepts digits and hyphens with an optional trailing check
// character. Checksums are not verified: listings often carry partial codes.
func validateISBN(fl validator.FieldLevel) bool {
	isbn := fl.Field().String()
	if len(isbn) == 0 || len(isbn) > 20 {
		return false
	}
	return isbnChars.MatchString(isbn)
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "isbn_loose":
		return "ISBN may only contain digits, hyphens and a trailing X"
	default:
		return e.Field() + " is invalid"
	}
}

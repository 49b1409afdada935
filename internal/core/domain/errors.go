package domain

import "errors"

// Sentinel errors for contact operations.
var (
	// ErrContactNotFound indicates the requested contact does not exist.
	// HTTP Status: 404 Not Found
	ErrContactNotFound = errors.New("contact not found")

	// ErrDuplicatePhone indicates another contact already holds the phone number.
	// HTTP Status: 400 Bad Request
	ErrDuplicatePhone = errors.New("contact with this phone already exists")

	// ErrDuplicateEmail indicates another contact already holds the email address.
	// HTTP Status: 400 Bad Request
	ErrDuplicateEmail = errors.New("contact with this email already exists")

	// ErrValidation indicates malformed input (missing field, bad length, bad email).
	// HTTP Status: 422 Unprocessable Entity
	ErrValidation = errors.New("invalid contact data")
)

// DuplicateError returns the conflict sentinel for a unique field.
func DuplicateError(field ContactField) error {
	if field == FieldEmail {
		return ErrDuplicateEmail
	}
	return ErrDuplicatePhone
}

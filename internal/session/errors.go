package session

import (
	"errors"
	"fmt"

	"github.com/trashdash/trashdash-go/internal/models"
)

// These error strings double as the inline messages the apps show next to
// the login form, so they keep their user-facing casing and punctuation.
var (
	// ErrInvalidResponseFormat means the backend body matched none of the
	// known auth response shapes.
	ErrInvalidResponseFormat = errors.New("Invalid response format from server")

	// ErrMissingCredentials means a shape matched but the user object or
	// the token was absent.
	ErrMissingCredentials = errors.New("Missing user data or token")
)

// AccessDeniedError is returned when a login normalized successfully but
// the user's role does not match the role the hosting app requires.
type AccessDeniedError struct {
	Required models.Role
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("Access denied. %s privileges required.", e.Required.Label())
}

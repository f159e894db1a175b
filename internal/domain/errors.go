package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the generic missing-record error. Ownership mismatches are reported with it too.
	ErrNotFound = errors.New("not found")
	// ErrQuizNotFound indicates the quiz does not exist or is not owned by the caller.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrQuestionNotFound indicates a question ID is not part of the quiz.
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	// ErrUserNotFound is returned by user stores for an unknown username.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrForbidden is returned when the caller's role does not allow the action.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned for missing or unusable credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation marks malformed or incomplete input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a uniqueness violation, e.g. a taken username.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials is returned by login for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Invalid builds a validation error carrying a client-safe reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

package service

import (
	"errors"
	"fmt"
	"time"

	"dailyreport/internal/repository"
)

// Error kinds returned by every service. Wrapped errors keep the kind, so
// callers match with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrAuthorization = errors.New("not authorized")
	ErrConflict      = errors.New("conflict")
	ErrNotFound      = errors.New("not found")

	// ErrEditingClosed is returned when the editing gate refuses a mutation.
	ErrEditingClosed = fmt.Errorf("%w: editing is closed for this date", ErrAuthorization)
)

const dateLayout = "2006-01-02"

// storeErr maps repository failures onto the service error kinds.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case repository.IsNotFound(err):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case repository.IsDuplicate(err):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	default:
		return fmt.Errorf("failed to load %s: %w", what, err)
	}
}

// ParseDate validates a YYYY-MM-DD calendar date.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, s)
	}
	return t.Format(dateLayout), nil
}

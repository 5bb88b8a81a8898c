package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by every service. Callers match them with errors.Is;
// the conflict variants all match ErrConflict as well.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")

	ErrDuplicateLink   = fmt.Errorf("%w: employee is already assigned to this shift", ErrConflict)
	ErrStaleUpdate     = fmt.Errorf("%w: record was modified by another request", ErrConflict)
	ErrAlreadyReturned = fmt.Errorf("%w: book has already been returned", ErrConflict)
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notFound(name string, id uint) error {
	return fmt.Errorf("%s %d: %w", name, id, ErrNotFound)
}

package service

import (
	"errors"
	"fmt"
)

// Errors returned by the booking and catalog services.  Callers classify
// them with errors.Is; the HTTP layer maps them onto status codes.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrConcurrency = errors.New("concurrent modification")
)

// ConflictError names the room whose dates are already taken.
type ConflictError struct {
	RoomID     uint64
	RoomNumber string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room %s is already booked for the requested dates", e.RoomNumber)
}

// Is makes errors.Is(err, ErrConflict) true for a *ConflictError.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

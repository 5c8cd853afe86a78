package service

import (
	"errors"
	"fmt"

	"asur-wears/internal/store"
)

// Errors returned by services. Handlers map them onto HTTP statuses with
// errors.Is; the wrapped message is safe to show to clients.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrRateLimited       = errors.New("too many requests")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidCoupon     = errors.New("invalid coupon")
	ErrNotServiceable    = errors.New("pincode not serviceable")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// fromStore converts store sentinel errors into service errors and wraps
// everything else with context.
func fromStore(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

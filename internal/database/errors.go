package database

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced to handlers. Anything else coming out of this
// package is a storage failure wrapped with %w; those abort the
// enclosing transaction and are not retried.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("raid status does not allow this action")
)

// ErrWishlistFull is a Conflict: the character's wishlist has reached
// the configured slot cap.
var ErrWishlistFull = fmt.Errorf("wishlist is full: %w", ErrConflict)

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

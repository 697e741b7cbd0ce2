package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTransientStore  = errors.New("transient store fault")
	ErrConsistency     = errors.New("ledger consistency fault")
)

// NotFoundEntity wraps ErrNotFound with the missing entity name so callers can
// report which reference failed to resolve.
func NotFoundEntity(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}

// InvalidField wraps ErrInvalidArgument with the offending field and reason.
func InvalidField(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, ErrInvalidArgument)
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfig              = errors.New("config error")
	ErrBadRequest          = errors.New("bad request")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrEmptyCompletion     = errors.New("empty completion")
	ErrLengthMismatch      = errors.New("length mismatch")
	ErrPersistence         = errors.New("persistence error")
	ErrDuplicateID         = errors.New("duplicate id")
	ErrEmptyDocument       = errors.New("empty document")
	ErrTemporary           = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// NewError builds a typed error without an underlying cause.
func NewError(kind error, operation, message string) error {
	return fmt.Errorf("%s: %w: %s", operation, kind, message)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

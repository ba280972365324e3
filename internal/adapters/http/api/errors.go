package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// NewKind tags a sentinel with the failing operation.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags a sentinel and keeps the cause in the chain.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// Wrap tags an error with the failing operation.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

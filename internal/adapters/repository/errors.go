package repository

import "errors"

// Sentinel kinds for rank index errors.
var (
	// ErrUnranked marks subjects with no live entry. It is a normal typed
	// result for callers, not a failure.
	ErrUnranked = errors.New("subject unranked")

	ErrInvalidLimit = errors.New("invalid page size")
)

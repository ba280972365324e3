package ingest

import "errors"

var (
	// ErrSubjectMismatch is returned when a report names a subject kind
	// the board does not rank.
	ErrSubjectMismatch = errors.New("subject kind does not match board")
)

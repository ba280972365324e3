package archive

import "github.com/cockroachdb/errors"

var (
	// ErrSnapshotNotFound is returned when no capture exists for the
	// requested boundary.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

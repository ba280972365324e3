package queue

import "errors"

var (
	// ErrClosed is returned by operations on a closed queue.
	ErrClosed = errors.New("queue closed")
)

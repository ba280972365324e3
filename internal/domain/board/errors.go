package board

import "errors"

// Sentinel kinds for board registry errors.
var (
	ErrUnknownBoard      = errors.New("unknown leaderboard")
	ErrDuplicateSlug     = errors.New("duplicate leaderboard slug")
	ErrInvalidDefinition = errors.New("invalid leaderboard definition")
)

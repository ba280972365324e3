// Package board holds leaderboard definitions and interval derivation.
package board

import (
	"fmt"
	"time"

	"github.com/podiumlabs/podium/internal/config"
	"github.com/podiumlabs/podium/internal/domain/model"
)

// IntervalType selects the rolling time bucket of a board.
type IntervalType string

const (
	IntervalAllTime IntervalType = "alltime"
	IntervalWeekly  IntervalType = "weekly"
	IntervalMonthly IntervalType = "monthly"
	IntervalCustom  IntervalType = "custom"
)

// ScoreType is presentation metadata; scores are handled as float64
// internally regardless.
type ScoreType string

const (
	ScoreInteger ScoreType = "integer"
	ScoreDecimal ScoreType = "decimal"
)

// Definition is the frozen configuration of one leaderboard.
type Definition struct {
	Slug      string
	Interval  IntervalType
	Subject   model.SubjectKind
	ScoreType ScoreType
	MinScore  float64

	// Starts/Ends bound custom boards. Zero values mean unbounded.
	Starts time.Time
	Ends   time.Time
}

// ActiveAt reports whether the board accepts scores observed at ts.
func (d Definition) ActiveAt(ts time.Time) bool {
	if !d.Starts.IsZero() && ts.Before(d.Starts) {
		return false
	}
	if !d.Ends.IsZero() && ts.After(d.Ends) {
		return false
	}
	return true
}

// Registry is the immutable lookup of board definitions. Built once at
// startup; safe for concurrent reads without locking.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry validates and freezes the configured board definitions.
func NewRegistry(boards []config.BoardConfig) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(boards))}
	for _, b := range boards {
		def, err := parseDefinition(b)
		if err != nil {
			return nil, err
		}
		if _, dup := r.defs[def.Slug]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, def.Slug)
		}
		r.defs[def.Slug] = def
		r.order = append(r.order, def.Slug)
	}
	return r, nil
}

func parseDefinition(b config.BoardConfig) (Definition, error) {
	def := Definition{Slug: b.Slug, MinScore: b.MinScore}

	switch IntervalType(b.Interval) {
	case IntervalAllTime, IntervalWeekly, IntervalMonthly, IntervalCustom:
		def.Interval = IntervalType(b.Interval)
	default:
		return Definition{}, fmt.Errorf("%w: board %s interval %q", ErrInvalidDefinition, b.Slug, b.Interval)
	}

	switch model.SubjectKind(b.Subject) {
	case model.SubjectProfile, model.SubjectProfileMember, model.SubjectGuild:
		def.Subject = model.SubjectKind(b.Subject)
	default:
		return Definition{}, fmt.Errorf("%w: board %s subject %q", ErrInvalidDefinition, b.Slug, b.Subject)
	}

	switch ScoreType(b.ScoreType) {
	case ScoreInteger, ScoreDecimal:
		def.ScoreType = ScoreType(b.ScoreType)
	case "":
		def.ScoreType = ScoreInteger
	default:
		return Definition{}, fmt.Errorf("%w: board %s score_type %q", ErrInvalidDefinition, b.Slug, b.ScoreType)
	}

	if b.Starts != "" {
		ts, err := time.Parse(time.RFC3339, b.Starts)
		if err != nil {
			return Definition{}, fmt.Errorf("%w: board %s starts: %w", ErrInvalidDefinition, b.Slug, err)
		}
		def.Starts = ts
	}
	if b.Ends != "" {
		ts, err := time.Parse(time.RFC3339, b.Ends)
		if err != nil {
			return Definition{}, fmt.Errorf("%w: board %s ends: %w", ErrInvalidDefinition, b.Slug, err)
		}
		def.Ends = ts
	}
	if def.Interval == IntervalCustom && def.Starts.IsZero() {
		return Definition{}, fmt.Errorf("%w: board %s custom interval requires starts", ErrInvalidDefinition, b.Slug)
	}
	if !def.Starts.IsZero() && !def.Ends.IsZero() && def.Ends.Before(def.Starts) {
		return Definition{}, fmt.Errorf("%w: board %s ends before starts", ErrInvalidDefinition, b.Slug)
	}
	return def, nil
}

// Resolve returns the definition for slug or ErrUnknownBoard.
func (r *Registry) Resolve(slug string) (Definition, error) {
	def, ok := r.defs[slug]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownBoard, slug)
	}
	return def, nil
}

// All returns definitions in configuration order.
func (r *Registry) All() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.defs[slug])
	}
	return out
}

// Package model contains domain models passed between layers.
package model

import "errors"

// SubjectKind enumerates what a board ranks.
type SubjectKind string

const (
	SubjectProfile       SubjectKind = "profile"
	SubjectProfileMember SubjectKind = "profile_member"
	SubjectGuild         SubjectKind = "guild"
)

// ErrInvalidSubjectRef is returned when a reference does not name exactly
// one subject.
var ErrInvalidSubjectRef = errors.New("subject ref must name exactly one of profile, profile member, or guild")

// SubjectRef identifies the entity an entry ranks. Exactly one field must be
// set; which one is dictated by the board definition's subject kind.
type SubjectRef struct {
	ProfileID       string `json:"profile_id,omitempty"`
	ProfileMemberID string `json:"profile_member_id,omitempty"`
	GuildID         string `json:"guild_id,omitempty"`
}

// Validate enforces the mutual exclusivity invariant before any write.
func (r SubjectRef) Validate() error {
	n := 0
	if r.ProfileID != "" {
		n++
	}
	if r.ProfileMemberID != "" {
		n++
	}
	if r.GuildID != "" {
		n++
	}
	if n != 1 {
		return ErrInvalidSubjectRef
	}
	return nil
}

// Kind reports which subject variant is set. Only meaningful after Validate.
func (r SubjectRef) Kind() SubjectKind {
	switch {
	case r.ProfileID != "":
		return SubjectProfile
	case r.ProfileMemberID != "":
		return SubjectProfileMember
	default:
		return SubjectGuild
	}
}

// Key returns the single non-empty identifier. Only meaningful after Validate.
func (r SubjectRef) Key() string {
	switch {
	case r.ProfileID != "":
		return r.ProfileID
	case r.ProfileMemberID != "":
		return r.ProfileMemberID
	default:
		return r.GuildID
	}
}

package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podiumlabs/podium/internal/config"
	"github.com/podiumlabs/podium/internal/domain/model"
)

func TestNewRegistry(t *testing.T) {
	t.Run("parses valid definitions", func(t *testing.T) {
		reg, err := NewRegistry([]config.BoardConfig{
			{Slug: "networth", Interval: "alltime", Subject: "profile", ScoreType: "integer"},
			{Slug: "farming-weight", Interval: "weekly", Subject: "profile_member", ScoreType: "decimal", MinScore: 10},
			{Slug: "spring-event", Interval: "custom", Subject: "profile_member", Starts: "2024-03-15T00:00:00Z", Ends: "2024-03-29T00:00:00Z"},
		})
		require.NoError(t, err)

		def, err := reg.Resolve("farming-weight")
		require.NoError(t, err)
		assert.Equal(t, IntervalWeekly, def.Interval)
		assert.Equal(t, model.SubjectProfileMember, def.Subject)
		assert.Equal(t, ScoreDecimal, def.ScoreType)
		assert.Equal(t, 10.0, def.MinScore)

		assert.Len(t, reg.All(), 3)
	})

	t.Run("score type defaults to integer", func(t *testing.T) {
		reg, err := NewRegistry([]config.BoardConfig{
			{Slug: "networth", Interval: "alltime", Subject: "profile"},
		})
		require.NoError(t, err)
		def, err := reg.Resolve("networth")
		require.NoError(t, err)
		assert.Equal(t, ScoreInteger, def.ScoreType)
	})

	t.Run("rejects bad interval type", func(t *testing.T) {
		_, err := NewRegistry([]config.BoardConfig{
			{Slug: "x", Interval: "fortnightly", Subject: "profile"},
		})
		assert.ErrorIs(t, err, ErrInvalidDefinition)
	})

	t.Run("rejects bad subject kind", func(t *testing.T) {
		_, err := NewRegistry([]config.BoardConfig{
			{Slug: "x", Interval: "weekly", Subject: "island"},
		})
		assert.ErrorIs(t, err, ErrInvalidDefinition)
	})

	t.Run("rejects duplicate slug", func(t *testing.T) {
		_, err := NewRegistry([]config.BoardConfig{
			{Slug: "networth", Interval: "alltime", Subject: "profile"},
			{Slug: "networth", Interval: "weekly", Subject: "profile"},
		})
		assert.ErrorIs(t, err, ErrDuplicateSlug)
	})

	t.Run("custom board requires a window start", func(t *testing.T) {
		_, err := NewRegistry([]config.BoardConfig{
			{Slug: "event", Interval: "custom", Subject: "profile"},
		})
		assert.ErrorIs(t, err, ErrInvalidDefinition)
	})
}

func TestResolveUnknown(t *testing.T) {
	reg, err := NewRegistry([]config.BoardConfig{
		{Slug: "networth", Interval: "alltime", Subject: "profile"},
	})
	require.NoError(t, err)

	_, err = reg.Resolve("no-such-board")
	assert.ErrorIs(t, err, ErrUnknownBoard)
}

func TestDefinitionActiveAt(t *testing.T) {
	def := Definition{
		Starts: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Ends:   time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC),
	}

	assert.False(t, def.ActiveAt(time.Date(2024, 3, 14, 23, 0, 0, 0, time.UTC)))
	assert.True(t, def.ActiveAt(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, def.ActiveAt(time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC)))
	assert.False(t, def.ActiveAt(time.Date(2024, 3, 29, 0, 0, 1, 0, time.UTC)))

	unbounded := Definition{}
	assert.True(t, unbounded.ActiveAt(time.Now()))
}

package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	dr, err := New(day(t, start), day(t, end))
	require.NoError(t, err)
	return dr
}

func TestNewRejectsInvertedAndEmptyRanges(t *testing.T) {
	_, err := New(day(t, "2024-03-05"), day(t, "2024-03-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(day(t, "2024-03-01"), day(t, "2024-03-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, day(t, "2024-03-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	base := mustRange(t, "2024-03-01", "2024-03-05")

	assert.True(t, base.Overlaps(mustRange(t, "2024-03-04", "2024-03-06")))
	assert.True(t, base.Overlaps(mustRange(t, "2024-02-28", "2024-03-02")))
	assert.True(t, base.Overlaps(mustRange(t, "2024-03-02", "2024-03-03")))
	assert.True(t, base.Overlaps(mustRange(t, "2024-02-01", "2024-04-01")))

	// One rental ending exactly when another starts is not an overlap.
	assert.False(t, base.Overlaps(mustRange(t, "2024-03-05", "2024-03-08")))
	assert.False(t, base.Overlaps(mustRange(t, "2024-02-25", "2024-03-01")))
}

func TestAdjacentAndContains(t *testing.T) {
	base := mustRange(t, "2024-03-01", "2024-03-05")

	assert.True(t, base.Adjacent(mustRange(t, "2024-03-05", "2024-03-08")))
	assert.True(t, base.Adjacent(mustRange(t, "2024-02-25", "2024-03-01")))
	assert.False(t, base.Adjacent(mustRange(t, "2024-03-06", "2024-03-08")))

	assert.True(t, base.Contains(mustRange(t, "2024-03-02", "2024-03-04")))
	assert.True(t, base.Contains(base))
	assert.False(t, base.Contains(mustRange(t, "2024-03-02", "2024-03-06")))
}

func TestContainsDateAndDays(t *testing.T) {
	base := mustRange(t, "2024-03-01", "2024-03-05")

	assert.True(t, base.ContainsDate(day(t, "2024-03-01")))
	assert.True(t, base.ContainsDate(day(t, "2024-03-04")))
	assert.False(t, base.ContainsDate(day(t, "2024-03-05")))

	assert.Equal(t, 4, base.Days())
	assert.Equal(t, 4*24*time.Hour, base.Duration())
}

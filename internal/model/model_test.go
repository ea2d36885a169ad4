package model

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampForms(t *testing.T) {
	want := time.Date(2024, 3, 5, 9, 30, 0, 0, time.Local)

	for _, in := range []string{
		"2024-03-05T09:30",
		"2024-03-05T09:30:00",
		"2024-03-05 09:30:00",
		"2024-03-05 09:30",
		"  2024-03-05 09:30:00 ",
	} {
		got, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s -> %v", in, got)
	}
}

func TestParseTimestampMalformed(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "2024/03/05 09:30", "2024-13-05 09:30:00"} {
		_, err := ParseTimestamp(in)
		assert.ErrorIs(t, err, ErrMalformedTimestamp, in)
	}
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "work", NormalizeCategory("Work"))
	assert.Equal(t, "study", NormalizeCategory(" STUDY "))
	assert.Equal(t, "other", NormalizeCategory("urgent"))
	assert.Equal(t, "other", NormalizeCategory(""))
}

func TestCleanCategory(t *testing.T) {
	assert.Equal(t, "work", CleanCategory(" Work "))
	assert.Equal(t, "urgent", CleanCategory("urgent"))
	assert.Equal(t, "家庭", CleanCategory(" 家庭 "))
	assert.Equal(t, "other", CleanCategory("   "))

	assert.Equal(t, Categories, CategoryChoices("life"))
	assert.Equal(t, Categories, CategoryChoices(""))
	assert.Equal(t, append(slices.Clone(Categories), "家庭"), CategoryChoices("家庭"))
	assert.Len(t, Categories, 4)
}

func TestEventInputNormalize(t *testing.T) {
	in := EventInput{
		Title:     "  Dentist ",
		StartTime: "2024-03-05T09:30",
		EndTime:   "2024-03-05T10:00",
		Category:  "Life",
	}
	out, err := in.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "Dentist", out.Title)
	assert.Equal(t, "2024-03-05 09:30:00", out.StartTime)
	assert.Equal(t, "2024-03-05 10:00:00", out.EndTime)
	assert.Equal(t, "life", out.Category)

	in.Category = " 健身 "
	out, err = in.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "健身", out.Category)
}

func TestEventInputNormalizeErrors(t *testing.T) {
	_, err := EventInput{StartTime: "2024-03-05T09:30"}.Normalize()
	assert.ErrorIs(t, err, ErrMissingTitle)

	_, err = EventInput{Title: "x", StartTime: "soon"}.Normalize()
	assert.True(t, errors.Is(err, ErrMalformedTimestamp))

	_, err = EventInput{Title: "x", StartTime: "2024-03-05T09:30", EndTime: "later"}.Normalize()
	assert.ErrorIs(t, err, ErrMalformedTimestamp)

	out, err := EventInput{Title: "x", StartTime: "2024-03-05T09:30", EndTime: "  "}.Normalize()
	require.NoError(t, err)
	assert.Empty(t, out.EndTime)
	assert.Equal(t, "other", out.Category)
}

func TestEventEndAt(t *testing.T) {
	e := Event{StartTime: "2024-03-05 09:30:00"}
	_, ok, err := e.EndAt()
	assert.False(t, ok)
	assert.NoError(t, err)

	e.EndTime = "bad"
	_, ok, err = e.EndAt()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrMalformedTimestamp)
}

func TestInputTimestamp(t *testing.T) {
	assert.Equal(t, "2024-03-05T09:30", InputTimestamp("2024-03-05 09:30:00"))
	assert.Equal(t, "junkTvalue", InputTimestamp("junk value"))
}

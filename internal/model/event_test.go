package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdays(t *testing.T) {
	w := NewWeekdays(time.Monday, time.Wednesday)
	assert.True(t, w.Has(time.Monday))
	assert.True(t, w.Has(time.Wednesday))
	assert.False(t, w.Has(time.Sunday))
	assert.Equal(t, 2, w.Count())
	assert.False(t, w.IsZero())
	assert.True(t, Weekdays(0).IsZero())
}

func TestNewWeeklyRecurrence(t *testing.T) {
	days := NewWeekdays(time.Monday)

	_, err := NewWeeklyRecurrence(0, days, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidIntervalWeeks)

	_, err = NewWeeklyRecurrence(1, Weekdays(0), nil, 0)
	assert.ErrorIs(t, err, ErrEmptyWeekdays)

	r, err := NewWeeklyRecurrence(2, days, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, RecurrenceWeekly, r.Kind)
	require.NoError(t, r.Validate())
	assert.Equal(t, 2, r.Weekly.IntervalWeeks)
	assert.Equal(t, 5, r.Weekly.Count)
}

func TestNewRRuleRecurrence(t *testing.T) {
	t.Run("strips prefix and extracts freq", func(t *testing.T) {
		r, err := NewRRuleRecurrence("RRULE:FREQ=WEEKLY;BYDAY=MO,WE", nil)
		require.NoError(t, err)
		assert.Equal(t, "WEEKLY", r.RRule.Freq)
		assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO,WE", r.RRule.RRule)
	})

	t.Run("normalizes bysetpos above 4 to last", func(t *testing.T) {
		r, err := NewRRuleRecurrence("FREQ=MONTHLY;BYDAY=FR;BYSETPOS=5", nil)
		require.NoError(t, err)
		assert.Equal(t, "FREQ=MONTHLY;BYDAY=FR;BYSETPOS=-1", r.RRule.RRule)
	})

	t.Run("keeps bysetpos within range", func(t *testing.T) {
		r, err := NewRRuleRecurrence("FREQ=MONTHLY;BYDAY=FR;BYSETPOS=2", nil)
		require.NoError(t, err)
		assert.Equal(t, "FREQ=MONTHLY;BYDAY=FR;BYSETPOS=2", r.RRule.RRule)
	})

	t.Run("rejects missing freq", func(t *testing.T) {
		_, err := NewRRuleRecurrence("BYDAY=MO", nil)
		assert.ErrorIs(t, err, ErrMissingFreq)
	})
}

func TestRecurrenceValidate(t *testing.T) {
	require.NoError(t, NoRecurrence().Validate())

	both := Recurrence{
		Kind:   RecurrenceWeekly,
		Weekly: &WeeklyRule{IntervalWeeks: 1, Days: NewWeekdays(time.Monday)},
		RRule:  &RRuleRule{RRule: "FREQ=DAILY", Freq: "DAILY"},
	}
	assert.ErrorIs(t, both.Validate(), ErrRecurrenceVariant)

	missing := Recurrence{Kind: RecurrenceRRule}
	assert.ErrorIs(t, missing.Validate(), ErrRecurrenceVariant)
}

func TestRecurrenceIsForever(t *testing.T) {
	days := NewWeekdays(time.Monday)

	forever, err := NewWeeklyRecurrence(1, days, nil, 0)
	require.NoError(t, err)
	assert.True(t, forever.IsForever())

	until := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	bounded, err := NewWeeklyRecurrence(1, days, &until, 0)
	require.NoError(t, err)
	assert.False(t, bounded.IsForever())

	counted, err := NewWeeklyRecurrence(1, days, nil, 3)
	require.NoError(t, err)
	assert.False(t, counted.IsForever())

	rr, err := NewRRuleRecurrence("FREQ=DAILY", nil)
	require.NoError(t, err)
	assert.True(t, rr.IsForever())

	rrCount, err := NewRRuleRecurrence("FREQ=DAILY;COUNT=10", nil)
	require.NoError(t, err)
	assert.False(t, rrCount.IsForever())

	rrUntil, err := NewRRuleRecurrence("FREQ=DAILY;UNTIL=20260601T000000Z", nil)
	require.NoError(t, err)
	assert.False(t, rrUntil.IsForever())

	assert.False(t, NoRecurrence().IsForever())
}

package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aster-void/home-pa-sub000/internal/model"
)

func mustWeekly(t *testing.T, intervalWeeks int, days model.Weekdays, until *time.Time, count int) model.Recurrence {
	t.Helper()
	r, err := model.NewWeeklyRecurrence(intervalWeeks, days, until, count)
	require.NoError(t, err)
	return r
}

func mustRRule(t *testing.T, raw string) model.Recurrence {
	t.Helper()
	r, err := model.NewRRuleRecurrence(raw, nil)
	require.NoError(t, err)
	return r
}

// 2026-01-05 is a Monday.
func weeklyEvent(t *testing.T, rec model.Recurrence) model.Event {
	t.Helper()
	return model.Event{
		ID:         "ev-weekly",
		Title:      "gym",
		Start:      time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC),
		TimeLabel:  model.TimeLabelTimed,
		Recurrence: rec,
	}
}

func window(start, end time.Time) Config {
	return Config{Location: time.UTC, WindowStart: start, WindowEnd: end}
}

func TestExpandWeeklyBitmaskTwoWeeks(t *testing.T) {
	// intervalWeeks=1, bits={Mon,Wed}, two-week window: exactly 4
	// occurrences, two per week, inheriting the master's time-of-day.
	ev := weeklyEvent(t, mustWeekly(t, 1, model.NewWeekdays(time.Monday, time.Wednesday), nil, 0))
	cfg := window(
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC),
	)

	res := Expand([]model.Event{ev}, cfg)
	require.Empty(t, res.Errors)
	require.Len(t, res.Occurrences, 4)

	wantStarts := []time.Time{
		time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC),
	}
	for i, occ := range res.Occurrences {
		assert.True(t, occ.Start.Equal(wantStarts[i]), "occurrence %d start %v", i, occ.Start)
		assert.Equal(t, 10, occ.Start.Hour(), "time-of-day comes from the master")
		assert.Equal(t, time.Hour, occ.End.Sub(occ.Start))
		assert.Equal(t, "ev-weekly", occ.MasterEventID)
		assert.NotEqual(t, ev.ID, occ.ID)
		assert.True(t, occ.IsForever, "no until/count means forever")
	}
}

func TestExpandWeeklyIntervalTwo(t *testing.T) {
	ev := weeklyEvent(t, mustWeekly(t, 2, model.NewWeekdays(time.Monday), nil, 0))
	cfg := window(
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC),
	)

	res := Expand([]model.Event{ev}, cfg)
	require.Empty(t, res.Errors)
	require.Len(t, res.Occurrences, 3)
	assert.Equal(t, 5, res.Occurrences[0].Start.Day())
	assert.Equal(t, 19, res.Occurrences[1].Start.Day())
	assert.Equal(t, time.February, res.Occurrences[2].Start.Month())
	assert.Equal(t, 2, res.Occurrences[2].Start.Day())
}

func TestExpandWeeklyCountConsumedBeforeWindow(t *testing.T) {
	// COUNT=3 from the rule start: Jan 5, 12, 19. A window opening after
	// the first two still only sees Jan 19; the count is not re-anchored.
	ev := weeklyEvent(t, mustWeekly(t, 1, model.NewWeekdays(time.Monday), nil, 3))
	cfg := window(
		time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	)

	res := Expand([]model.Event{ev}, cfg)
	require.Empty(t, res.Errors)
	require.Len(t, res.Occurrences, 1)
	assert.Equal(t, 19, res.Occurrences[0].Start.Day())
	assert.False(t, res.Occurrences[0].IsForever)
}

func TestExpandWeeklyUntilInclusiveEndOfDay(t *testing.T) {
	until := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	ev := weeklyEvent(t, mustWeekly(t, 1, model.NewWeekdays(time.Monday), &until, 0))
	cfg := window(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	)

	res := Expand([]model.Event{ev}, cfg)
	require.Empty(t, res.Errors)
	// Jan 12 10:00 is on the until date itself and still included.
	require.Len(t, res.Occurrences, 2)
	assert.Equal(t, 5, res.Occurrences[0].Start.Day())
	assert.Equal(t, 12, res.Occurrences[1].Start.Day())
}

func TestExpandWeeklyStartWeekdayNotInSet(t *testing.T) {
	// Master starts on a Tuesday; bits are Mon+Wed, so the first
	// occurrence is the Wednesday after the start.
	ev := model.Event{
		ID:         "ev-tue",
		Title:      "standup",
		Start:      time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 1, 6, 9, 30, 0, 0, time.UTC),
		TimeLabel:  model.TimeLabelTimed,
		Recurrence: mustWeekly(t, 1, model.NewWeekdays(time.Monday, time.Wednesday), nil, 0),
	}
	cfg := window(
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC),
	)

	res := Expand([]model.Event{ev}, cfg)
	require.Empty(t, res.Errors)
	require.Len(t, res.Occurrences, 2)
	assert.Equal(t, 7, res.Occurrences[0].Start.Day())
	assert.Equal(t, 12, res.Occurrences[1].Start.Day())
}

func TestExpandRRuleMonthlyNthWeekday(t *testing.T) {
	// Second Friday of each month. 2026: Jan 9, Feb 13, Mar 13.
	ev := model.Event{
		ID:         "ev-rrule",
		Title:      "retro",
		Start:      time.Date(2026, 1, 9, 15, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 1, 9, 16, 0, 0, 0, time.UTC),
		TimeLabel:  model.TimeLabelTimed,
		Recurrence: mustRRule(t, "FREQ=MONTHLY;BYDAY=FR;BYSETPOS=2"),
	}
	cfg := window(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	)

	res := Expand([]model.Event{ev}, cfg)
	require.Empty(t, res.Errors)
	require.Len(t, res.Occurrences, 3)
	assert.Equal(t, 9, res.Occurrences[0].Start.Day())
	assert.Equal(t, 13, res.Occurrences[1].Start.Day())
	assert.Equal(t, 13, res.Occurrences[2].Start.Day())
}

func TestExpandRRuleLastWeekdayOfMonth(t *testing.T) {
	// BYSETPOS=5 normalizes to -1 at creation: last Friday. 2026: Jan 30,
	// Feb 27, Mar 27.
	rec, err := model.NewRRuleRecurrence("FREQ=MONTHLY;BYDAY=FR;BYSETPOS=5", nil)
	require.NoError(t, err)

	ev := model.Event{
		ID:         "ev-last-fri",
		Title:      "report",
		Start:      time.Date(2026, 1, 30, 9, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC),
		TimeLabel:  model.TimeLabelTimed,
		Recurrence: rec,
	}
	cfg := window(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	)

	res := Expand([]model.Event{ev}, cfg)
	require.Empty(t, res.Errors)
	require.Len(t, res.Occurrences, 3)
	assert.Equal(t, 30, res.Occurrences[0].Start.Day())
	assert.Equal(t, 27, res.Occurrences[1].Start.Day())
	assert.Equal(t, 27, res.Occurrences[2].Start.Day())
}

func TestExpandRRuleByMonthDayAndUntil(t *testing.T) {
	ev := model.Event{
		ID:         "ev-payday",
		Title:      "pay rent",
		Start:      time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC),
		TimeLabel:  model.TimeLabelTimed,
		Recurrence: mustRRule(t, "FREQ=MONTHLY;BYMONTHDAY=15;UNTIL=20260301T000000Z"),
	}
	cfg := window(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	)

	res := Expand([]model.Event{ev}, cfg)
	require.Empty(t, res.Errors)
	require.Len(t, res.Occurrences, 2)
	assert.Equal(t, time.January, res.Occurrences[0].Start.Month())
	assert.Equal(t, time.February, res.Occurrences[1].Start.Month())
	for _, occ := range res.Occurrences {
		assert.False(t, occ.IsForever)
	}
}

func TestExpandOccurrenceWindowContainment(t *testing.T) {
	events := []model.Event{
		weeklyEvent(t, mustWeekly(t, 1, model.NewWeekdays(time.Monday, time.Wednesday, time.Friday), nil, 0)),
		{
			ID:         "ev-daily",
			Title:      "lunch",
			Start:      time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC),
			End:        time.Date(2026, 1, 2, 13, 0, 0, 0, time.UTC),
			TimeLabel:  model.TimeLabelTimed,
			Recurrence: mustRRule(t, "FREQ=DAILY"),
		},
	}
	ws := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	we := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	res := Expand(events, window(ws, we))
	require.Empty(t, res.Errors)
	require.NotEmpty(t, res.Occurrences)
	for _, occ := range res.Occurrences {
		assert.True(t, occ.Start.Before(we), "start %v must be before window end", occ.Start)
		assert.True(t, occ.End.After(ws), "end %v must be after window start", occ.End)
	}
}

func TestExpandIdempotentIDs(t *testing.T) {
	events := []model.Event{
		weeklyEvent(t, mustWeekly(t, 1, model.NewWeekdays(time.Monday, time.Friday), nil, 0)),
	}
	cfg := window(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	)

	first := Expand(events, cfg)
	second := Expand(events, cfg)
	require.Equal(t, len(first.Occurrences), len(second.Occurrences))

	ids := make(map[string]bool)
	for _, occ := range first.Occurrences {
		assert.False(t, ids[occ.ID], "duplicate occurrence id %s", occ.ID)
		ids[occ.ID] = true
	}
	for _, occ := range second.Occurrences {
		assert.True(t, ids[occ.ID], "second expansion produced new id %s", occ.ID)
	}
}

func TestExpandForeverBoundedByWindow(t *testing.T) {
	ev := weeklyEvent(t, mustWeekly(t, 1, model.NewWeekdays(
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday), nil, 0))

	for _, days := range []int{1, 7, 30, 90} {
		start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		cfg := window(start, start.AddDate(0, 0, days))
		res := Expand([]model.Event{ev}, cfg)
		require.Empty(t, res.Errors)
		assert.Len(t, res.Occurrences, days, "window of %d days", days)
		for _, occ := range res.Occurrences {
			assert.True(t, occ.IsForever)
		}
	}
}

func TestExpandUnparsableRRuleFailsOnlyThatEvent(t *testing.T) {
	bad := model.Event{
		ID:        "ev-bad",
		Title:     "broken",
		Start:     time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		End:       time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC),
		TimeLabel: model.TimeLabelTimed,
		Recurrence: model.Recurrence{
			Kind:  model.RecurrenceRRule,
			RRule: &model.RRuleRule{RRule: "FREQ=SOMETIMES", Freq: "SOMETIMES"},
		},
	}
	good := weeklyEvent(t, mustWeekly(t, 1, model.NewWeekdays(time.Monday), nil, 0))

	cfg := window(
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
	)
	res := Expand([]model.Event{bad, good}, cfg)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "ev-bad", res.Errors[0].EventID)
	require.Len(t, res.Occurrences, 1, "the good event still expands")
	assert.Equal(t, good.ID, res.Occurrences[0].MasterEventID)
}

func TestExpandInvalidVariantCollected(t *testing.T) {
	ev := model.Event{
		ID:         "ev-variant",
		Start:      time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC),
		Recurrence: model.Recurrence{Kind: model.RecurrenceWeekly}, // missing rule
	}
	res := Expand([]model.Event{ev}, window(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	))
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], model.ErrRecurrenceVariant)
	assert.Empty(t, res.Occurrences)
}

func TestExpandEmptyWindowDegradesToEmpty(t *testing.T) {
	ev := weeklyEvent(t, mustWeekly(t, 1, model.NewWeekdays(time.Monday), nil, 0))
	res := Expand([]model.Event{ev}, window(
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	))
	assert.Empty(t, res.Occurrences)
	assert.Empty(t, res.Errors)
}

func TestExpandOccurrenceCap(t *testing.T) {
	ev := model.Event{
		ID:         "ev-dense",
		Title:      "tick",
		Start:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 1, 1, 0, 30, 0, 0, time.UTC),
		TimeLabel:  model.TimeLabelTimed,
		Recurrence: mustRRule(t, "FREQ=DAILY"),
	}
	cfg := Config{
		Location:               time.UTC,
		WindowStart:            time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		WindowEnd:              time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		MaxOccurrencesPerEvent: 3,
	}
	res := Expand([]model.Event{ev}, cfg)
	assert.Len(t, res.Occurrences, 3)
	require.Len(t, res.Truncated, 1)
	assert.Equal(t, "ev-dense", res.Truncated[0])
}

func TestExpandKeepsOccurrenceInProgressAtWindowStart(t *testing.T) {
	// 23:00 to 01:00 next day; the instance already running at the window
	// start still counts.
	ev := model.Event{
		ID:         "ev-night",
		Title:      "batch job",
		Start:      time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 1, 6, 1, 0, 0, 0, time.UTC),
		TimeLabel:  model.TimeLabelTimed,
		Recurrence: mustRRule(t, "FREQ=DAILY"),
	}
	cfg := window(
		time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
	)
	res := Expand([]model.Event{ev}, cfg)
	require.Empty(t, res.Errors)
	require.Len(t, res.Occurrences, 3)
	assert.True(t, res.Occurrences[0].Start.Before(cfg.WindowStart))
	assert.True(t, res.Occurrences[0].End.After(cfg.WindowStart))
}

func TestExpandSkipsNonRecurring(t *testing.T) {
	ev := model.Event{
		ID:         "ev-plain",
		Title:      "dentist",
		Start:      time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC),
		TimeLabel:  model.TimeLabelTimed,
		Recurrence: model.NoRecurrence(),
	}
	res := Expand([]model.Event{ev}, window(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	))
	assert.Empty(t, res.Occurrences, "non-recurring events pass through via the caller")
	assert.Empty(t, res.Errors)
}

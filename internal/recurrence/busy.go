package recurrence

import (
	"time"

	"github.com/aster-void/home-pa-sub000/internal/model"
)

// BusyIntervals derives the busy spans for one date. Only timed items
// occupy availability: all-day and some-timing events never block time.
// Non-recurring events contribute directly; recurring masters contribute
// through their occurrences, whose time label is looked up on the master.
func BusyIntervals(events []model.Event, occurrences []model.Occurrence, date time.Time, loc *time.Location) []model.Interval {
	if loc == nil {
		loc = time.Local
	}

	timedMasters := make(map[string]bool, len(events))
	for _, ev := range events {
		if ev.TimeLabel == model.TimeLabelTimed {
			timedMasters[ev.ID] = true
		}
	}

	out := make([]model.Interval, 0)

	for _, ev := range events {
		if ev.TimeLabel != model.TimeLabelTimed {
			continue
		}
		if ev.Recurrence.Kind != model.RecurrenceNone {
			// Represented by occurrences below.
			continue
		}
		if iv, ok := model.IntervalFromTimes(ev.Start, ev.End, date, loc); ok {
			out = append(out, iv)
		}
	}

	for _, occ := range occurrences {
		if !timedMasters[occ.MasterEventID] {
			continue
		}
		if iv, ok := model.IntervalFromTimes(occ.Start, occ.End, date, loc); ok {
			out = append(out, iv)
		}
	}

	return out
}

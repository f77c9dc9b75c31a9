package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "github.com/aster-void/home-pa-sub000/internal/log"
	"github.com/aster-void/home-pa-sub000/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

var errCapReached = errors.New("max occurrences reached")

// occurrenceNamespace seeds the deterministic per-instance ids. Never
// change it: ids must stay stable across runs so re-expansion is diffable.
var occurrenceNamespace = uuid.MustParse("d6f1c0a2-5b44-4c7e-9c8b-7a2e94c31f6d")

// Config controls how recurrence expansion is performed.
type Config struct {
	// Location is the timezone in which dates are walked and occurrences
	// are returned. If nil, time.Local is used.
	Location *time.Location

	// WindowStart / WindowEnd bound the expansion. Occurrences satisfy
	// Start < WindowEnd and End > WindowStart.
	WindowStart time.Time
	WindowEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap so a malformed or very dense
	// rule can never blow up a window. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandError records a single event whose expansion failed. Other events
// are unaffected; partial success is the default.
type ExpandError struct {
	EventID string
	Err     error
}

func (e ExpandError) Error() string { return fmt.Sprintf("event %s: %v", e.EventID, e.Err) }

func (e ExpandError) Unwrap() error { return e.Err }

// Result wraps the expanded occurrences plus per-event failures and cap
// truncations.
type Result struct {
	Occurrences []model.Occurrence
	Errors      []ExpandError
	// Truncated records event ids that hit MaxOccurrencesPerEvent.
	Truncated []string
}

// Expand materializes recurring events into concrete occurrences within
// the window. It handles:
//
//   - Weekly bitmask rules (weekday set, interval weeks, until/count)
//   - RRULE-based recurrence (FREQ, INTERVAL, BYDAY, BYSETPOS, BYMONTHDAY,
//     UNTIL subset)
//   - Forever rules, bounded by the window edge and flagged IsForever
//
// Events without recurrence are skipped; the caller merges those directly.
// An empty or inverted window yields an empty result rather than an error.
func Expand(events []model.Event, cfg Config) Result {
	var result Result

	if !cfg.WindowEnd.After(cfg.WindowStart) {
		appLog.Debug("expand: empty window",
			"start", cfg.WindowStart, "end", cfg.WindowEnd)
		return result
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	all := make([]model.Occurrence, 0)

	for _, ev := range events {
		if ev.Recurrence.Kind == model.RecurrenceNone {
			continue
		}
		if err := ev.Recurrence.Validate(); err != nil {
			result.Errors = append(result.Errors, ExpandError{EventID: ev.ID, Err: err})
			appLog.Error("expand: invalid recurrence", err, "event", ev.ID)
			continue
		}

		var (
			occ    []model.Occurrence
			hitCap bool
			err    error
		)
		switch ev.Recurrence.Kind {
		case model.RecurrenceWeekly:
			occ, hitCap = expandWeekly(ev, cfg)
		case model.RecurrenceRRule:
			occ, hitCap, err = expandRRule(ev, cfg)
		}
		if err != nil {
			result.Errors = append(result.Errors, ExpandError{EventID: ev.ID, Err: err})
			appLog.Error("expand: event expansion failed", err, "event", ev.ID)
			continue
		}
		if hitCap {
			result.Truncated = append(result.Truncated, ev.ID)
			appLog.Error("expand: truncated occurrences for event", errCapReached,
				"event", ev.ID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
		all = append(all, occ...)
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].Start.Equal(all[j].Start) {
			return all[i].Start.Before(all[j].Start)
		}
		return all[i].ID < all[j].ID
	})

	result.Occurrences = all
	return result
}

// expandWeekly walks dates from the master start, emitting dates whose
// weekday bit is set and whose week index is a multiple of IntervalWeeks.
// Count consumes matches from the rule start, so matches before the window
// are counted but not emitted.
func expandWeekly(ev model.Event, cfg Config) ([]model.Occurrence, bool) {
	rule := ev.Recurrence.Weekly
	loc := cfg.Location

	startLocal := ev.Start.In(loc)
	dur := ev.Duration()
	if dur < 0 {
		dur = 0
	}

	limit := cfg.WindowEnd
	if rule.Until != nil {
		if eod := endOfDay(*rule.Until, loc); eod.Before(limit) {
			limit = eod
		}
	}

	isForever := ev.Recurrence.IsForever()
	out := make([]model.Occurrence, 0)
	hitCap := false
	matched := 0

	cursor := dateOnly(startLocal, loc)
	// dayIdx counts days since the Sunday of the master start's week, so
	// dayIdx/7 is the week index independent of DST.
	dayIdx := int(startLocal.Weekday())

	for {
		occStart := combineDateTime(cursor, startLocal, loc)
		if occStart.After(limit) {
			break
		}
		if rule.Days.Has(cursor.Weekday()) &&
			(dayIdx/7)%rule.IntervalWeeks == 0 &&
			!occStart.Before(startLocal) {
			matched++
			if rule.Count > 0 && matched > rule.Count {
				break
			}
			occEnd := occStart.Add(dur)
			if occStart.Before(cfg.WindowEnd) && occEnd.After(cfg.WindowStart) {
				out = append(out, makeOccurrence(ev, occStart, occEnd, isForever, loc))
				if len(out) >= cfg.MaxOccurrencesPerEvent {
					hitCap = true
					break
				}
			}
		}
		cursor = cursor.AddDate(0, 0, 1)
		dayIdx++
	}

	return out, hitCap
}

// expandRRule expands an RRULE-variant event via the rrule library. The
// query range is widened by the master duration so occurrences already in
// progress at WindowStart are kept.
func expandRRule(ev model.Event, cfg Config) ([]model.Occurrence, bool, error) {
	rule := ev.Recurrence.RRule
	loc := cfg.Location

	r, err := rrule.StrToRRule(rule.RRule)
	if err != nil {
		return nil, false, fmt.Errorf("parse rrule %q: %w", rule.RRule, err)
	}

	startLocal := ev.Start.In(loc)
	r.DTStart(startLocal)

	var set rrule.Set
	set.RRule(r)

	dur := ev.Duration()
	if dur < 0 {
		dur = 0
	}

	// Struct-level Until caps the rule when the string itself has no UNTIL.
	limit := cfg.WindowEnd
	if rule.Until != nil {
		if eod := endOfDay(*rule.Until, loc); eod.Before(limit) {
			limit = eod
		}
	}

	isForever := ev.Recurrence.IsForever()

	queryStart := cfg.WindowStart.In(loc).Add(-dur)
	occTimes := set.Between(queryStart, cfg.WindowEnd.In(loc), true)

	hitCap := false
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Occurrence, 0, len(occTimes))
	for _, occStart := range occTimes {
		if occStart.After(limit) {
			continue
		}
		occEnd := occStart.Add(dur)
		if !occStart.Before(cfg.WindowEnd) || !occEnd.After(cfg.WindowStart) {
			continue
		}
		out = append(out, makeOccurrence(ev, occStart, occEnd, isForever, loc))
	}

	return out, hitCap, nil
}

// makeOccurrence builds one instance with its deterministic id.
func makeOccurrence(ev model.Event, start, end time.Time, isForever bool, loc *time.Location) model.Occurrence {
	startLocal := start.In(loc)
	return model.Occurrence{
		ID:            occurrenceID(ev.ID, startLocal),
		MasterEventID: ev.ID,
		Title:         ev.Title,
		Start:         startLocal,
		End:           end.In(loc),
		IsForever:     isForever,
	}
}

// occurrenceID derives a stable id from the master event id and the
// occurrence date, so expanding the same window twice yields identical id
// sets.
func occurrenceID(masterID string, start time.Time) string {
	name := masterID + "/" + start.Format("2006-01-02")
	return uuid.NewSHA1(occurrenceNamespace, []byte(name)).String()
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	return dateOnly(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// combineDateTime keeps the date of date and the time-of-day of clock.
func combineDateTime(date, clock time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d,
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), loc)
}

package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLabel describes how strongly an event is anchored to clock time.
// Only timed events occupy availability; all-day and some-timing events
// never produce busy intervals.
type TimeLabel string

const (
	TimeLabelAllDay     TimeLabel = "all-day"
	TimeLabelSomeTiming TimeLabel = "some-timing"
	TimeLabelTimed      TimeLabel = "timed"
)

// Weekdays is a 7-bit weekday set. Bit 0 is Sunday, matching the ordinals
// of time.Weekday.
type Weekdays uint8

func NewWeekdays(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w |= 1 << uint(d)
	}
	return w
}

func (w Weekdays) Has(d time.Weekday) bool { return w&(1<<uint(d)) != 0 }

func (w Weekdays) IsZero() bool { return w&0x7f == 0 }

func (w Weekdays) Count() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w.Has(d) {
			n++
		}
	}
	return n
}

// RecurrenceKind tags the active variant of a Recurrence.
type RecurrenceKind string

const (
	RecurrenceNone   RecurrenceKind = "none"
	RecurrenceWeekly RecurrenceKind = "weekly-bitmask"
	RecurrenceRRule  RecurrenceKind = "rrule"
)

// WeeklyRule repeats an event on a weekday set every IntervalWeeks weeks,
// counted from the week of the master event's start.
type WeeklyRule struct {
	IntervalWeeks int
	Days          Weekdays
	Until         *time.Time // inclusive end of day
	Count         int        // 0 means unbounded
}

// RRuleRule carries an RFC 5545 RRULE string restricted to the subset
// FREQ, INTERVAL, BYDAY, BYSETPOS, BYMONTHDAY, UNTIL. Freq is extracted at
// creation for cheap inspection without reparsing.
type RRuleRule struct {
	RRule string
	Freq  string
	Until *time.Time // inclusive end of day, caps the rule if the string has no UNTIL
}

// Recurrence is a tagged variant: exactly one of the pointer fields is set
// for the non-None kinds. Build values through the constructors so the
// invariant holds.
type Recurrence struct {
	Kind   RecurrenceKind
	Weekly *WeeklyRule
	RRule  *RRuleRule
}

func NoRecurrence() Recurrence {
	return Recurrence{Kind: RecurrenceNone}
}

func NewWeeklyRecurrence(intervalWeeks int, days Weekdays, until *time.Time, count int) (Recurrence, error) {
	if intervalWeeks < 1 {
		return Recurrence{}, fmt.Errorf("%w: %d", ErrInvalidIntervalWeeks, intervalWeeks)
	}
	if days.IsZero() {
		return Recurrence{}, ErrEmptyWeekdays
	}
	if count < 0 {
		count = 0
	}
	return Recurrence{
		Kind: RecurrenceWeekly,
		Weekly: &WeeklyRule{
			IntervalWeeks: intervalWeeks,
			Days:          days,
			Until:         until,
			Count:         count,
		},
	}, nil
}

// NewRRuleRecurrence normalizes and wraps a raw RRULE string. A leading
// "RRULE:" name is stripped, FREQ is extracted, and BYSETPOS positions
// above 4 become -1 (last matching weekday of the month) here, at creation
// time, never during expansion.
func NewRRuleRecurrence(raw string, until *time.Time) (Recurrence, error) {
	normalized, freq, err := normalizeRRule(raw)
	if err != nil {
		return Recurrence{}, err
	}
	return Recurrence{
		Kind:  RecurrenceRRule,
		RRule: &RRuleRule{RRule: normalized, Freq: freq, Until: until},
	}, nil
}

func normalizeRRule(raw string) (normalized, freq string, err error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "RRULE:")
	parts := strings.Split(s, ";")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key, val, ok := strings.Cut(p, "=")
		if !ok {
			out = append(out, p)
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "FREQ":
			freq = strings.ToUpper(val)
		case "BYSETPOS":
			if pos, perr := strconv.Atoi(val); perr == nil && pos > 4 {
				val = "-1"
			}
		}
		out = append(out, key+"="+val)
	}
	if freq == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMissingFreq, raw)
	}
	return strings.Join(out, ";"), freq, nil
}

func (r Recurrence) Validate() error {
	switch r.Kind {
	case RecurrenceNone:
		if r.Weekly != nil || r.RRule != nil {
			return ErrRecurrenceVariant
		}
	case RecurrenceWeekly:
		if r.Weekly == nil || r.RRule != nil {
			return ErrRecurrenceVariant
		}
	case RecurrenceRRule:
		if r.RRule == nil || r.Weekly != nil {
			return ErrRecurrenceVariant
		}
	default:
		return ErrRecurrenceVariant
	}
	return nil
}

// IsForever reports whether the rule has no end condition of its own, so
// enumeration is bounded only by the expansion window.
func (r Recurrence) IsForever() bool {
	switch r.Kind {
	case RecurrenceWeekly:
		return r.Weekly != nil && r.Weekly.Until == nil && r.Weekly.Count == 0
	case RecurrenceRRule:
		if r.RRule == nil || r.RRule.Until != nil {
			return false
		}
		upper := strings.ToUpper(r.RRule.RRule)
		return !strings.Contains(upper, "UNTIL=") && !strings.Contains(upper, "COUNT=")
	default:
		return false
	}
}

// Event is a calendar event before recurrence expansion. Owned by the
// calendar collaborator; the engine only reads it.
type Event struct {
	ID    string
	Title string

	// Start / End are UTC instants of the master occurrence.
	Start time.Time
	End   time.Time

	TimeLabel  TimeLabel
	Recurrence Recurrence
}

// Duration returns the master event's length.
func (e Event) Duration() time.Duration { return e.End.Sub(e.Start) }

// Occurrence is one materialized instance of a recurring event. ID is
// deterministic per (master event, date) so re-expanding a window is
// idempotent and diffable against a previous result.
type Occurrence struct {
	ID            string
	MasterEventID string
	Title         string

	Start time.Time
	End   time.Time

	// IsForever marks occurrences of rules with no until/count, where the
	// window edge rather than the rule bounded enumeration.
	IsForever bool
}

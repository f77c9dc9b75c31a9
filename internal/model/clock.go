package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock converts an "HH:MM" wall-clock string into minutes since
// midnight. Hours run 00-23 and minutes 00-59; "24:00" is accepted as the
// exclusive end of day.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if hour == 24 && minute == 0 {
		return 24 * 60, nil
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(min int) string {
	if min < 0 {
		min = 0
	}
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// Interval is a busy span within a single day, in minutes since midnight,
// half-open [StartMin, EndMin).
type Interval struct {
	StartMin int
	EndMin   int
}

func (i Interval) Duration() int { return i.EndMin - i.StartMin }

// IntervalFromTimes converts an instant span to day minutes for the given
// date in loc, clipping to that date. Spans entirely outside the date
// return false.
func IntervalFromTimes(start, end time.Time, date time.Time, loc *time.Location) (Interval, bool) {
	if loc == nil {
		loc = time.Local
	}
	y, mo, d := date.In(loc).Date()
	dayStart := time.Date(y, mo, d, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	if !end.After(dayStart) || !start.Before(dayEnd) {
		return Interval{}, false
	}
	if start.Before(dayStart) {
		start = dayStart
	}
	if end.After(dayEnd) {
		end = dayEnd
	}
	return Interval{
		StartMin: int(start.In(loc).Sub(dayStart) / time.Minute),
		EndMin:   int(end.In(loc).Sub(dayStart) / time.Minute),
	}, true
}

// DayBoundaries defines the schedulable portion of a day as "HH:MM"
// wall-clock values. The zero value is not valid; use DefaultDayBoundaries.
type DayBoundaries struct {
	DayStart string `yaml:"day_start"`
	DayEnd   string `yaml:"day_end"`
}

func DefaultDayBoundaries() DayBoundaries {
	return DayBoundaries{DayStart: "08:00", DayEnd: "22:00"}
}

func (b DayBoundaries) Validate() error {
	start, err := ParseClock(b.DayStart)
	if err != nil {
		return err
	}
	end, err := ParseClock(b.DayEnd)
	if err != nil {
		return err
	}
	if start >= end {
		return fmt.Errorf("%w: %s >= %s", ErrInvalidBoundaries, b.DayStart, b.DayEnd)
	}
	return nil
}

// Minutes returns the boundaries as minutes since midnight. Validate must
// hold for the values to be meaningful.
func (b DayBoundaries) Minutes() (startMin, endMin int, err error) {
	if err := b.Validate(); err != nil {
		return 0, 0, err
	}
	startMin, _ = ParseClock(b.DayStart)
	endMin, _ = ParseClock(b.DayEnd)
	return startMin, endMin, nil
}

// WithDayStart returns a copy with the start replaced, or an error leaving
// the receiver as the value still in effect.
func (b DayBoundaries) WithDayStart(s string) (DayBoundaries, error) {
	next := DayBoundaries{DayStart: s, DayEnd: b.DayEnd}
	if err := next.Validate(); err != nil {
		return b, err
	}
	return next, nil
}

// WithDayEnd returns a copy with the end replaced, or an error leaving the
// receiver as the value still in effect.
func (b DayBoundaries) WithDayEnd(s string) (DayBoundaries, error) {
	next := DayBoundaries{DayStart: b.DayStart, DayEnd: s}
	if err := next.Validate(); err != nil {
		return b, err
	}
	return next, nil
}

// Gap is a free interval between busy events inside the day boundaries.
// Derived data: recomputed whenever events or boundaries change, never
// persisted.
type Gap struct {
	Start       string
	End         string
	DurationMin int
}

// GapFromMinutes builds a Gap from minute offsets.
func GapFromMinutes(startMin, endMin int) Gap {
	return Gap{
		Start:       FormatClock(startMin),
		End:         FormatClock(endMin),
		DurationMin: endMin - startMin,
	}
}

// StartMin returns the gap start as minutes since midnight.
func (g Gap) StartMin() int {
	m, _ := ParseClock(g.Start)
	return m
}

package model

import "errors"

var (
	// ErrInvalidClock reports a wall-clock string that is not "HH:MM".
	ErrInvalidClock = errors.New("invalid HH:MM value")

	// ErrInvalidBoundaries reports a day-boundary pair where dayStart is not
	// strictly before dayEnd. Edits that would produce such a pair are
	// rejected and the prior boundaries stay in effect.
	ErrInvalidBoundaries = errors.New("day start must be before day end")

	// ErrRecurrenceVariant reports a recurrence with zero or multiple active
	// variants.
	ErrRecurrenceVariant = errors.New("recurrence: exactly one variant must be active")

	ErrInvalidIntervalWeeks = errors.New("recurrence: interval weeks must be at least 1")
	ErrEmptyWeekdays        = errors.New("recurrence: weekday set is empty")
	ErrMissingFreq          = errors.New("recurrence: rrule has no FREQ part")
)

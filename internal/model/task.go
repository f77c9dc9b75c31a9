package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskType decides both scheduling priority and drop reporting. Deadline
// tasks are mandatory: they are placed first and their failed placement is
// surfaced as a dropped entry. Routine and backlog tasks fail silently.
type TaskType string

const (
	TaskDeadline TaskType = "deadline"
	TaskRoutine  TaskType = "routine"
	TaskBacklog  TaskType = "backlog"
)

// rank orders task types for placement, lower first.
func (t TaskType) rank() int {
	switch t {
	case TaskDeadline:
		return 0
	case TaskRoutine:
		return 1
	default:
		return 2
	}
}

// PlacementRank exposes the type's position in the placement queue.
func (t TaskType) PlacementRank() int { return t.rank() }

type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

// Rank maps importance to a sortable weight, higher first. The zero value
// (unset) ranks below low.
func (i Importance) Rank() int {
	switch i {
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	case ImportanceLow:
		return 1
	default:
		return 0
	}
}

type CompletionState string

const (
	CompletionNotStarted CompletionState = "not_started"
	CompletionInProgress CompletionState = "in_progress"
	CompletionCompleted  CompletionState = "completed"
)

type GoalPeriod string

const (
	PeriodDay   GoalPeriod = "day"
	PeriodWeek  GoalPeriod = "week"
	PeriodMonth GoalPeriod = "month"
)

// RecurrenceGoal is the target completion count of a routine task within
// one period.
type RecurrenceGoal struct {
	Count  int
	Period GoalPeriod
}

// NextPeriodStart returns the instant at which the period beginning at
// start rolls over.
func (g RecurrenceGoal) NextPeriodStart(start time.Time) time.Time {
	switch g.Period {
	case PeriodWeek:
		return start.AddDate(0, 0, 7)
	case PeriodMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// TaskStatus tracks accumulated work and routine completions. Mutated only
// through the completion state machine.
type TaskStatus struct {
	TimeSpentMin          int
	CompletionState       CompletionState
	CompletionsThisPeriod int
	PeriodStartDate       time.Time
}

// Task is the schedulable unit (a memo promoted into planning). Created by
// the task form, mutated by completion tracking and enrichment, deleted
// only on explicit user action.
type Task struct {
	ID    string
	Title string
	Type  TaskType

	Deadline *time.Time
	Goal     *RecurrenceGoal

	// Enrichable fields. Zero values mean unset; enrichment fills unset
	// fields only and never overwrites a user-set value.
	Importance               Importance
	SessionDurationMin       int
	TotalDurationExpectedMin int
	Genre                    string

	CreatedAt time.Time
	Status    TaskStatus

	// Enriching marks a task whose enrichment request is in flight. Cleared
	// on every outcome, including failure.
	Enriching bool
}

// NewTaskID returns a time-ordered unique task id.
func NewTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Completed reports whether the task has reached its completed state.
func (t Task) Completed() bool {
	return t.Status.CompletionState == CompletionCompleted
}

// GoalMet reports whether a routine task already hit its period goal as of
// now. Tasks without a goal never meet one.
func (t Task) GoalMet(now time.Time) bool {
	if t.Type != TaskRoutine || t.Goal == nil || t.Goal.Count <= 0 {
		return false
	}
	if !now.Before(t.Goal.NextPeriodStart(t.Status.PeriodStartDate)) {
		// Period already rolled over; the stale counter does not block.
		return false
	}
	return t.Status.CompletionsThisPeriod >= t.Goal.Count
}

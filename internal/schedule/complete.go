package schedule

import (
	"time"

	"github.com/aster-void/home-pa-sub000/internal/model"
)

// MarkSessionComplete folds minutesSpent into a task's progress and
// advances the completion state machine. Tasks with a known total
// expectation complete once accumulated time reaches it; completed is
// terminal and never regresses. Routine tasks additionally count exactly
// one completion per call, independent of minutes spent.
//
// The task is returned as a new value; callers own persistence.
func MarkSessionComplete(task model.Task, minutesSpent int, now time.Time) model.Task {
	if minutesSpent < 0 {
		minutesSpent = 0
	}
	task = RolloverPeriod(task, now)

	task.Status.TimeSpentMin += minutesSpent
	if task.Status.CompletionState != model.CompletionCompleted {
		if task.TotalDurationExpectedMin > 0 &&
			task.Status.TimeSpentMin >= task.TotalDurationExpectedMin {
			task.Status.CompletionState = model.CompletionCompleted
		} else {
			task.Status.CompletionState = model.CompletionInProgress
		}
	}

	if task.Type == model.TaskRoutine && task.Goal != nil {
		task.Status.CompletionsThisPeriod++
	}

	return task
}

// RolloverPeriod resets the routine counter once now has moved past the
// period boundary. Steps through multiple elapsed periods so a long-idle
// task lands in the period containing now. Non-routine tasks pass through
// unchanged.
func RolloverPeriod(task model.Task, now time.Time) model.Task {
	if task.Type != model.TaskRoutine || task.Goal == nil {
		return task
	}
	if task.Status.PeriodStartDate.IsZero() {
		task.Status.PeriodStartDate = startOfDay(now)
		return task
	}
	next := task.Goal.NextPeriodStart(task.Status.PeriodStartDate)
	for !now.Before(next) {
		task.Status.PeriodStartDate = next
		task.Status.CompletionsThisPeriod = 0
		next = task.Goal.NextPeriodStart(task.Status.PeriodStartDate)
	}
	return task
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

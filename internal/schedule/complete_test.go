package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aster-void/home-pa-sub000/internal/model"
)

func TestMarkSessionCompleteProgresses(t *testing.T) {
	task := model.Task{
		ID:                       "t",
		Type:                     model.TaskDeadline,
		TotalDurationExpectedMin: 60,
	}

	task = MarkSessionComplete(task, 25, testNow)
	assert.Equal(t, 25, task.Status.TimeSpentMin)
	assert.Equal(t, model.CompletionInProgress, task.Status.CompletionState)

	task = MarkSessionComplete(task, 35, testNow)
	assert.Equal(t, 60, task.Status.TimeSpentMin)
	assert.Equal(t, model.CompletionCompleted, task.Status.CompletionState)
}

func TestMarkSessionCompleteNeverRegresses(t *testing.T) {
	task := model.Task{
		ID:                       "t",
		Type:                     model.TaskDeadline,
		TotalDurationExpectedMin: 30,
		Status: model.TaskStatus{
			TimeSpentMin:    45,
			CompletionState: model.CompletionCompleted,
		},
	}

	task = MarkSessionComplete(task, 10, testNow)
	assert.Equal(t, model.CompletionCompleted, task.Status.CompletionState)
	assert.Equal(t, 55, task.Status.TimeSpentMin, "time keeps accumulating")
}

func TestMarkSessionCompleteWithoutExpectationStaysInProgress(t *testing.T) {
	task := model.Task{ID: "t", Type: model.TaskBacklog}
	task = MarkSessionComplete(task, 120, testNow)
	assert.Equal(t, model.CompletionInProgress, task.Status.CompletionState)
}

func TestMarkSessionCompleteClampsNegativeMinutes(t *testing.T) {
	task := model.Task{ID: "t", Type: model.TaskBacklog}
	task = MarkSessionComplete(task, -15, testNow)
	assert.Zero(t, task.Status.TimeSpentMin)
}

func TestMarkSessionCompleteRoutineCountsOncePerCall(t *testing.T) {
	task := model.Task{
		ID:   "r",
		Type: model.TaskRoutine,
		Goal: &model.RecurrenceGoal{Count: 3, Period: model.PeriodWeek},
		Status: model.TaskStatus{
			PeriodStartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	task = MarkSessionComplete(task, 90, testNow)
	assert.Equal(t, 1, task.Status.CompletionsThisPeriod, "one completion regardless of minutes")

	task = MarkSessionComplete(task, 5, testNow)
	assert.Equal(t, 2, task.Status.CompletionsThisPeriod)
}

func TestMarkSessionCompleteRollsOverBeforeCounting(t *testing.T) {
	task := model.Task{
		ID:   "r",
		Type: model.TaskRoutine,
		Goal: &model.RecurrenceGoal{Count: 2, Period: model.PeriodDay},
		Status: model.TaskStatus{
			CompletionsThisPeriod: 2,
			PeriodStartDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	// testNow is March 2nd: the period rolled over, so this completion is
	// the first of the new period.
	task = MarkSessionComplete(task, 20, testNow)
	assert.Equal(t, 1, task.Status.CompletionsThisPeriod)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), task.Status.PeriodStartDate)
}

func TestRolloverPeriod(t *testing.T) {
	goal := &model.RecurrenceGoal{Count: 1, Period: model.PeriodWeek}

	t.Run("within the period nothing changes", func(t *testing.T) {
		task := model.Task{
			Type: model.TaskRoutine, Goal: goal,
			Status: model.TaskStatus{
				CompletionsThisPeriod: 1,
				PeriodStartDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		}
		got := RolloverPeriod(task, testNow)
		assert.Equal(t, task.Status, got.Status)
	})

	t.Run("steps through multiple elapsed periods", func(t *testing.T) {
		task := model.Task{
			Type: model.TaskRoutine, Goal: goal,
			Status: model.TaskStatus{
				CompletionsThisPeriod: 1,
				PeriodStartDate:       time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
			},
		}
		got := RolloverPeriod(task, testNow)
		assert.Zero(t, got.Status.CompletionsThisPeriod)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got.Status.PeriodStartDate)
		assert.True(t, testNow.Before(got.Goal.NextPeriodStart(got.Status.PeriodStartDate)),
			"now lands inside the final period")
	})

	t.Run("zero period start is initialized", func(t *testing.T) {
		task := model.Task{Type: model.TaskRoutine, Goal: goal}
		got := RolloverPeriod(task, testNow)
		assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), got.Status.PeriodStartDate)
	})

	t.Run("non-routine passes through", func(t *testing.T) {
		task := model.Task{Type: model.TaskDeadline}
		got := RolloverPeriod(task, testNow)
		assert.Equal(t, task, got)
	})
}

func TestCompletedTaskExcludedAfterMark(t *testing.T) {
	task := model.Task{
		ID:                       "t",
		Type:                     model.TaskDeadline,
		SessionDurationMin:       30,
		TotalDurationExpectedMin: 30,
		CreatedAt:                testNow,
	}
	task = MarkSessionComplete(task, 30, testNow)
	require.True(t, task.Completed())

	res := Regenerate([]model.Task{task}, gapList([2]string{"08:00", "22:00"}), opts())
	assert.Empty(t, res.Scheduled)
	assert.Empty(t, res.Dropped, "completed tasks are not dropped, just ineligible")
}

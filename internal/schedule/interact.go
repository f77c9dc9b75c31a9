package schedule

import (
	"errors"
	"fmt"

	"github.com/aster-void/home-pa-sub000/internal/model"
)

var (
	ErrBlockNotFound = errors.New("scheduled block not found")
	ErrBadDuration   = errors.New("session duration must be positive")
)

// AcceptBlock marks one task's session accepted. Only that entry changes;
// nothing is reordered or re-derived, so the rest of the result keeps
// referential stability for the UI.
func AcceptBlock(result *model.ScheduleResult, taskID string) error {
	return setState(result, taskID, model.SessionAccepted)
}

// SkipBlock marks one task's session skipped without re-planning the rest.
func SkipBlock(result *model.ScheduleResult, taskID string) error {
	return setState(result, taskID, model.SessionSkipped)
}

func setState(result *model.ScheduleResult, taskID string, state model.SessionState) error {
	i := findBlock(result, taskID)
	if i < 0 {
		return fmt.Errorf("%w: task %s", ErrBlockNotFound, taskID)
	}
	result.Scheduled[i].State = state
	return nil
}

// ResizeBlock changes one session's duration in place, moving only its
// end time. Other entries are untouched even if the new end now overlaps
// a later block; the next regenerate resolves layout.
func ResizeBlock(result *model.ScheduleResult, taskID string, durationMin int) error {
	if durationMin <= 0 {
		return fmt.Errorf("%w: %d", ErrBadDuration, durationMin)
	}
	i := findBlock(result, taskID)
	if i < 0 {
		return fmt.Errorf("%w: task %s", ErrBlockNotFound, taskID)
	}
	startMin, err := model.ParseClock(result.Scheduled[i].Start)
	if err != nil {
		return err
	}
	result.Scheduled[i].DurationMin = durationMin
	result.Scheduled[i].End = model.FormatClock(startMin + durationMin)
	return nil
}

func findBlock(result *model.ScheduleResult, taskID string) int {
	if result == nil {
		return -1
	}
	for i := range result.Scheduled {
		if result.Scheduled[i].TaskID == taskID {
			return i
		}
	}
	return -1
}

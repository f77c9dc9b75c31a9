package schedule

import (
	"sort"
	"time"

	"github.com/aster-void/home-pa-sub000/internal/model"
)

// DefaultSessionMinutes is the session length for tasks that carry no
// duration of their own.
const DefaultSessionMinutes = 30

// Options anchors a regenerate pass. Now drives routine-goal eligibility
// and is injected so tests stay deterministic.
type Options struct {
	Now               time.Time
	DefaultSessionMin int
}

// Regenerate assigns eligible tasks to gaps and reports mandatory tasks
// that found no room. Pure and fully deterministic: the same tasks and
// gaps always produce the same result, so a stale recomputation can be
// discarded or repeated safely.
//
// Placement is greedy first-fit over gaps ordered by start. Each task gets
// at most one session per pass; a gap's remaining capacity shrinks as
// sessions land in it, so several short sessions may share one gap.
func Regenerate(tasks []model.Task, gapList []model.Gap, opts Options) model.ScheduleResult {
	if opts.DefaultSessionMin <= 0 {
		opts.DefaultSessionMin = DefaultSessionMinutes
	}

	result := model.ScheduleResult{
		Scheduled: []model.ScheduledBlock{},
		Dropped:   []model.DroppedTask{},
	}

	open := openGaps(gapList)
	ordered := orderForPlacement(eligible(tasks, opts.Now))

	for _, task := range ordered {
		need := sessionMinutes(task, opts.DefaultSessionMin)
		placed := false
		for i := range open {
			if open[i].endMin-open[i].cursor < need {
				continue
			}
			start := open[i].cursor
			open[i].cursor += need
			result.Scheduled = append(result.Scheduled, model.ScheduledBlock{
				TaskID:      task.ID,
				GapStart:    model.FormatClock(open[i].startMin),
				Start:       model.FormatClock(start),
				End:         model.FormatClock(start + need),
				DurationMin: need,
				State:       model.SessionPending,
			})
			placed = true
			break
		}
		if !placed && task.Type == model.TaskDeadline {
			result.Dropped = append(result.Dropped, model.DroppedTask{
				TaskID: task.ID,
				Reason: model.DropReasonNoGap,
			})
		}
		// Routine and backlog tasks that fail to place are silently
		// omitted; only mandatory drops are surfaced.
	}

	sort.Slice(result.Scheduled, func(i, j int) bool {
		a, b := result.Scheduled[i], result.Scheduled[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.TaskID < b.TaskID
	})

	return result
}

// eligible drops completed tasks and routine tasks whose period goal is
// already met.
func eligible(tasks []model.Task, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed() {
			continue
		}
		if t.GoalMet(now) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// orderForPlacement builds the placement queue: deadline before routine
// before backlog, then soonest deadline, then importance, then creation
// time, then id. The trailing id comparison makes the order total.
func orderForPlacement(tasks []model.Task) []model.Task {
	ordered := make([]model.Task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return placeBefore(ordered[i], ordered[j])
	})
	return ordered
}

func placeBefore(a, b model.Task) bool {
	if ar, br := a.Type.PlacementRank(), b.Type.PlacementRank(); ar != br {
		return ar < br
	}
	switch {
	case a.Deadline != nil && b.Deadline != nil:
		if !a.Deadline.Equal(*b.Deadline) {
			return a.Deadline.Before(*b.Deadline)
		}
	case a.Deadline != nil:
		return true
	case b.Deadline != nil:
		return false
	}
	if ar, br := a.Importance.Rank(), b.Importance.Rank(); ar != br {
		return ar > br
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func sessionMinutes(t model.Task, def int) int {
	if t.SessionDurationMin > 0 {
		return t.SessionDurationMin
	}
	return def
}

// openGap tracks how much of a gap is still free while sessions are
// placed into it.
type openGap struct {
	startMin int
	cursor   int
	endMin   int
}

func openGaps(gapList []model.Gap) []openGap {
	open := make([]openGap, 0, len(gapList))
	for _, g := range gapList {
		startMin, err := model.ParseClock(g.Start)
		if err != nil {
			continue
		}
		endMin, err := model.ParseClock(g.End)
		if err != nil || endMin <= startMin {
			continue
		}
		open = append(open, openGap{startMin: startMin, cursor: startMin, endMin: endMin})
	}
	sort.Slice(open, func(i, j int) bool { return open[i].startMin < open[j].startMin })
	return open
}

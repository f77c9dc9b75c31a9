package schedule

import (
	"fmt"
	"strings"

	"github.com/aster-void/home-pa-sub000/internal/gaps"
	"github.com/aster-void/home-pa-sub000/internal/model"
)

// FormatResult renders a plan as plain text for logs and the terminal.
func FormatResult(result model.ScheduleResult, tasks []model.Task, gapList []model.Gap) string {
	if len(result.Scheduled) == 0 && len(result.Dropped) == 0 {
		return "Nothing to schedule."
	}

	titles := make(map[string]string, len(tasks))
	for _, t := range tasks {
		titles[t.ID] = t.Title
	}
	name := func(id string) string {
		if title, ok := titles[id]; ok && title != "" {
			return title
		}
		return id
	}

	lines := []string{
		"Today's plan:",
		"-------------",
	}

	usedMin := 0
	for _, blk := range result.Scheduled {
		usedMin += blk.DurationMin
		lines = append(lines, fmt.Sprintf(
			"- %s-%s  %s (%d min, %s)",
			blk.Start, blk.End, name(blk.TaskID), blk.DurationMin, blk.State,
		))
	}

	if len(result.Dropped) > 0 {
		lines = append(lines, "", "Could not fit:")
		for _, d := range result.Dropped {
			lines = append(lines, fmt.Sprintf("  %s: %s", name(d.TaskID), d.Reason))
		}
	}

	s := gaps.Stats(gapList)
	lines = append(lines, "", fmt.Sprintf(
		"Free time: %d min across %d gaps, %d min unplanned.",
		s.TotalFreeMin, s.Count, s.TotalFreeMin-usedMin,
	))

	return strings.Join(lines, "\n")
}

package gaps

import (
	"sort"

	appLog "github.com/aster-void/home-pa-sub000/internal/log"
	"github.com/aster-void/home-pa-sub000/internal/model"
)

// Find derives the free intervals between busy spans within the day
// boundaries: clip every busy interval to [dayStart, dayEnd], sort, merge
// anything overlapping or touching, then emit the complement. Gaps come
// back sorted by start, non-overlapping and strictly positive in length.
//
// Invalid boundaries degrade to an empty list; edits are validated before
// they ever get here.
func Find(busy []model.Interval, bounds model.DayBoundaries) []model.Gap {
	dayStart, dayEnd, err := bounds.Minutes()
	if err != nil {
		appLog.Debug("gaps: unusable day boundaries",
			"day_start", bounds.DayStart, "day_end", bounds.DayEnd)
		return []model.Gap{}
	}

	merged := mergeBusy(busy, dayStart, dayEnd)

	out := make([]model.Gap, 0, len(merged)+1)
	cursor := dayStart
	for _, iv := range merged {
		if iv.StartMin > cursor {
			out = append(out, model.GapFromMinutes(cursor, iv.StartMin))
		}
		cursor = iv.EndMin
	}
	if cursor < dayEnd {
		out = append(out, model.GapFromMinutes(cursor, dayEnd))
	}
	return out
}

// mergeBusy clips to [dayStart, dayEnd], drops what falls entirely
// outside, sorts by start and collapses overlapping or touching spans.
func mergeBusy(busy []model.Interval, dayStart, dayEnd int) []model.Interval {
	clipped := make([]model.Interval, 0, len(busy))
	for _, iv := range busy {
		s, e := iv.StartMin, iv.EndMin
		if s < dayStart {
			s = dayStart
		}
		if e > dayEnd {
			e = dayEnd
		}
		if e <= s {
			continue
		}
		clipped = append(clipped, model.Interval{StartMin: s, EndMin: e})
	}

	sort.Slice(clipped, func(i, j int) bool {
		if clipped[i].StartMin != clipped[j].StartMin {
			return clipped[i].StartMin < clipped[j].StartMin
		}
		return clipped[i].EndMin < clipped[j].EndMin
	})

	merged := clipped[:0]
	for _, iv := range clipped {
		if n := len(merged); n > 0 && iv.StartMin <= merged[n-1].EndMin {
			if iv.EndMin > merged[n-1].EndMin {
				merged[n-1].EndMin = iv.EndMin
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Summary holds display statistics over one gap list. Pure reductions,
// recomputed on every call, never cached.
type Summary struct {
	TotalFreeMin int
	Count        int
	LargestMin   int
}

func Stats(gapList []model.Gap) Summary {
	var s Summary
	s.Count = len(gapList)
	for _, g := range gapList {
		s.TotalFreeMin += g.DurationMin
		if g.DurationMin > s.LargestMin {
			s.LargestMin = g.DurationMin
		}
	}
	return s
}

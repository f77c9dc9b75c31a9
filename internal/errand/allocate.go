package errand

// allocState carries allocation progress between batches. Once a batch
// finishes, the gap it ended in is closed: exit travel is charged and
// the cursor moves to the next gap, so later batches never reopen it.
type allocState struct {
	usage  map[string]float64
	gapIdx int
	cursor *Coordinate
	label  string
}

type allocator struct {
	gaps   []Gap
	labels map[string]gapLabels
	st     allocState
	blocks []Block
	moves  []Movement
}

func newAllocator(gaps []Gap, labels map[string]gapLabels, prev *allocState) *allocator {
	st := allocState{usage: make(map[string]float64, len(gaps))}
	for _, gap := range gaps {
		st.usage[gap.ID] = 0
	}
	if prev != nil {
		for id, used := range prev.usage {
			st.usage[id] = used
		}
		st.gapIdx = prev.gapIdx
		st.cursor = prev.cursor
		st.label = prev.label
	}
	return &allocator{gaps: gaps, labels: labels, st: st}
}

// run places the ordered suggestions one by one and then closes the gap
// the batch ended in. It reports false when any suggestion cannot be
// placed or when the final gap cannot be exited within its capacity.
func (a *allocator) run(order []Suggestion) bool {
	for idx, s := range order {
		if !a.place(s, idx == len(order)-1) {
			return false
		}
	}
	if a.st.gapIdx < len(a.gaps) {
		gap := a.gaps[a.st.gapIdx]
		cursor := a.cursorOr(gap.Start)
		distance, minutes, from, to, ok := a.exitInfo(gap, cursor)
		if !ok {
			return false
		}
		if minutes > tolerance {
			a.st.usage[gap.ID] += minutes
			a.moves = append(a.moves, Movement{From: from, To: to, Distance: distance, Minutes: minutes})
		}
		a.st.gapIdx++
		a.st.cursor = nil
		a.st.label = ""
	}
	return true
}

func (a *allocator) cursorOr(fallback Coordinate) Coordinate {
	if a.st.cursor != nil {
		return *a.st.cursor
	}
	return fallback
}

// exitInfo prices the travel from the cursor to the gap's end location.
// The exit must fit in the gap's remaining minutes.
func (a *allocator) exitInfo(gap Gap, cursor Coordinate) (distance, minutes float64, from, to string, ok bool) {
	distance, minutes = travelBetween(cursor, gap.End)
	remaining := gap.DurationMin - a.st.usage[gap.ID]
	if minutes > remaining+tolerance {
		return 0, 0, "", "", false
	}
	from = a.st.label
	if from == "" {
		from = a.labels[gap.ID].start
	}
	return distance, minutes, from, a.labels[gap.ID].end, true
}

// shiftGap exits the current gap and advances to the next one. It
// reports false when the exit does not fit or no gap remains.
func (a *allocator) shiftGap() bool {
	if a.st.gapIdx >= len(a.gaps) {
		return false
	}
	gap := a.gaps[a.st.gapIdx]
	cursor := a.cursorOr(gap.Start)
	distance, minutes, from, to, ok := a.exitInfo(gap, cursor)
	if !ok {
		return false
	}
	if minutes > tolerance {
		a.st.usage[gap.ID] += minutes
		a.moves = append(a.moves, Movement{From: from, To: to, Distance: distance, Minutes: minutes})
	}
	a.st.gapIdx++
	a.st.cursor = nil
	a.st.label = ""
	return a.st.gapIdx < len(a.gaps)
}

// place walks gaps forward until the suggestion fits, charging travel
// into the gap it lands in. isLast matters only for near-home
// placements at the end of the day, which must also afford the trip
// back to the gap's end.
func (a *allocator) place(s Suggestion, isLast bool) bool {
	duration := s.DurationMin
	for {
		if a.st.gapIdx >= len(a.gaps) {
			return false
		}
		gap := a.gaps[a.st.gapIdx]
		cursor := a.cursorOr(gap.Start)
		label := a.st.label
		if label == "" {
			label = a.labels[gap.ID].start
		}

		remaining := gap.DurationMin - a.st.usage[gap.ID]
		if remaining <= tolerance {
			if !a.shiftGap() {
				return false
			}
			continue
		}

		if s.LocationPreference != "" {
			if s.LocationPreference != PreferNearHome {
				// Unknown preferences never match a gap.
				if !a.shiftGap() {
					return false
				}
				continue
			}
			if !s.Mandatory() && !a.nearHomeBoundaryOK(s, gap, cursor, remaining, isLast) {
				if !a.shiftGap() {
					return false
				}
				continue
			}
			// Mandatory near-home suggestions prefer the home boundaries
			// but are allowed anywhere that fits.
		}

		distance, travelIn := travelBetween(cursor, s.Loc)
		if travelIn+duration > remaining+tolerance {
			if !a.shiftGap() {
				return false
			}
			continue
		}

		if travelIn > tolerance {
			a.st.usage[gap.ID] += travelIn
			a.moves = append(a.moves, Movement{From: label, To: s.ID, Distance: distance, Minutes: travelIn})
			remaining -= travelIn
		}
		if duration > remaining+tolerance {
			if !a.shiftGap() {
				return false
			}
			continue
		}

		offset := a.st.usage[gap.ID]
		a.st.usage[gap.ID] += duration
		a.blocks = append(a.blocks, Block{
			SuggestionID:   s.ID,
			GapID:          gap.ID,
			StartOffsetMin: offset,
			DurationMin:    duration,
			Loc:            s.Loc,
		})
		loc := s.Loc
		a.st.cursor = &loc
		a.st.label = s.ID
		return true
	}
}

// nearHomeBoundaryOK enforces the hard constraint for optional
// near-home suggestions: they may only sit at the start of the first
// gap or the end of the last one, and must fit there including travel.
func (a *allocator) nearHomeBoundaryOK(s Suggestion, gap Gap, cursor Coordinate, remaining float64, isLast bool) bool {
	lbs := a.labels[gap.ID]
	atFirstStart := a.st.gapIdx == 0 && a.st.cursor == nil && lbs.start == HomeLabel
	atLastGap := a.st.gapIdx == len(a.gaps)-1 && lbs.end == HomeLabel

	if atFirstStart {
		_, travelIn := travelBetween(cursor, s.Loc)
		if travelIn+s.DurationMin <= remaining+tolerance {
			return true
		}
	}
	if atLastGap {
		_, travelIn := travelBetween(cursor, s.Loc)
		total := travelIn + s.DurationMin
		if isLast {
			// The day ends at home, so the return leg counts too.
			_, travelBack := travelBetween(s.Loc, gap.End)
			total += travelBack
		}
		if total <= remaining+tolerance {
			return true
		}
	}
	return false
}

// remainingCapacity sums the unused minutes of the gaps the allocator
// has not yet moved past.
func remainingCapacity(gapList []Gap, state *allocState) float64 {
	if state == nil {
		return totalGapMinutes(gapList)
	}
	var total float64
	for idx, gap := range gapList {
		if idx < state.gapIdx {
			continue
		}
		remaining := gap.DurationMin - state.usage[gap.ID]
		if remaining > tolerance {
			total += remaining
		}
	}
	return total
}

// startingLocation is where the next batch's travel begins: the cursor
// if one is set, otherwise the start of the current gap.
func startingLocation(gapList []Gap, state *allocState) (Coordinate, bool) {
	if len(gapList) == 0 {
		return Coordinate{}, false
	}
	if state == nil {
		return gapList[0].Start, true
	}
	if state.gapIdx >= len(gapList) {
		return Coordinate{}, false
	}
	if state.cursor != nil {
		return *state.cursor, true
	}
	return gapList[state.gapIdx].Start, true
}

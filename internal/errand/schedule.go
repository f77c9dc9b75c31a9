package errand

import (
	"math"
	"sort"
)

// Options tunes a planning pass. Zero values fall back to the defaults.
type Options struct {
	// PermutationLimit caps how many suggestions one ordering batch may
	// hold; batches are trimmed to it by dropping the lowest scores.
	PermutationLimit int

	// ResolutionMin is the knapsack discretization step in minutes.
	ResolutionMin float64
}

const (
	defaultPermutationLimit = 8
	defaultResolutionMin    = 1.0
)

func (o Options) withDefaults() Options {
	if o.PermutationLimit <= 0 {
		o.PermutationLimit = defaultPermutationLimit
	}
	if o.ResolutionMin <= 0 {
		o.ResolutionMin = defaultResolutionMin
	}
	return o
}

// Schedule plans suggestions into gaps. Mandatory suggestions are
// placed first; when their total duration exceeds the available gap
// time, or none of them can be placed, the whole plan is infeasible and
// every suggestion is dropped. Optional suggestions are then chosen by
// a 0/1 knapsack over the remaining capacity and ordered to minimize
// travel. The only error is input rejection for non-positive durations.
func Schedule(suggestions []Suggestion, gapList []Gap, opts Options) (Result, error) {
	if err := validateInputs(suggestions, gapList); err != nil {
		return Result{}, err
	}
	opts = opts.withDefaults()

	normalized := make([]Suggestion, len(suggestions))
	copy(normalized, suggestions)
	for i := range normalized {
		normalized[i].LocationPreference = NormalizePreference(normalized[i].LocationPreference)
	}

	if len(gapList) == 0 {
		return Result{
			Dropped:      normalized,
			AllocatedMin: map[string]float64{},
		}, nil
	}

	var mandatory, optional []Suggestion
	for _, s := range normalized {
		if s.Mandatory() {
			mandatory = append(mandatory, s)
		} else {
			optional = append(optional, s)
		}
	}

	totalGap := totalGapMinutes(gapList)
	var mandatoryMin float64
	for _, s := range mandatory {
		mandatoryMin += s.DurationMin
	}
	if mandatoryMin > totalGap+tolerance {
		return infeasibleResult(normalized, totalGap), nil
	}

	sched := &scheduler{
		gaps:      gapList,
		labels:    resolveGapLabels(gapList),
		opts:      opts,
		remaining: make(map[string]bool, len(normalized)),
		allocated: map[string]float64{},
	}
	for _, s := range normalized {
		sched.remaining[s.ID] = true
	}

	if len(mandatory) > 0 && !sched.scheduleGroup(mandatory) {
		return infeasibleResult(normalized, totalGap), nil
	}

	sched.placeOptional(optional)

	sort.Slice(sched.blocks, func(i, j int) bool {
		if sched.blocks[i].GapID != sched.blocks[j].GapID {
			return sched.blocks[i].GapID < sched.blocks[j].GapID
		}
		return sched.blocks[i].StartOffsetMin < sched.blocks[j].StartOffsetMin
	})

	unused := totalGap
	if sched.state != nil {
		unused = remainingCapacity(gapList, sched.state)
	}

	dropped := sched.dropped
	droppedIDs := make(map[string]bool, len(dropped))
	for _, s := range dropped {
		droppedIDs[s.ID] = true
	}
	for _, s := range normalized {
		if sched.remaining[s.ID] && !droppedIDs[s.ID] {
			dropped = append(dropped, s)
		}
	}

	return Result{
		Ordered:               sched.ordered,
		Blocks:                sched.blocks,
		TravelMinutes:         sched.travel,
		Dropped:               dropped,
		UnusedGapMin:          unused,
		PermutationsEvaluated: sched.perms,
		AllocatedMin:          sched.allocated,
		Movements:             sched.moves,
	}, nil
}

func infeasibleResult(all []Suggestion, totalGap float64) Result {
	return Result{
		Dropped:      all,
		UnusedGapMin: totalGap,
		AllocatedMin: map[string]float64{},
	}
}

// scheduler accumulates the plan across batches while the allocation
// state walks forward through the gaps.
type scheduler struct {
	gaps   []Gap
	labels map[string]gapLabels
	opts   Options

	remaining map[string]bool
	state     *allocState

	ordered   []Suggestion
	blocks    []Block
	allocated map[string]float64
	moves     []Movement
	dropped   []Suggestion
	travel    float64
	perms     int
}

func (s *scheduler) drop(sg Suggestion) {
	delete(s.remaining, sg.ID)
	s.dropped = append(s.dropped, sg)
}

// scheduleGroup orders one batch for minimal travel and allocates it
// atomically. When the allocation fails, the lowest-scored member is
// dropped and the rest is retried. Reports whether anything landed.
func (s *scheduler) scheduleGroup(group []Suggestion) bool {
	batch := make([]Suggestion, 0, len(group))
	for _, sg := range group {
		if s.remaining[sg.ID] {
			batch = append(batch, sg)
		}
	}
	if len(batch) == 0 {
		return false
	}
	sort.SliceStable(batch, func(i, j int) bool { return batch[i].Score() > batch[j].Score() })
	for len(batch) > s.opts.PermutationLimit {
		last := batch[len(batch)-1]
		batch = batch[:len(batch)-1]
		s.drop(last)
	}

	working := batch
	for len(working) > 0 {
		start, ok := startingLocation(s.gaps, s.state)
		if !ok {
			return false
		}
		end := s.gaps[len(s.gaps)-1].End

		order, travelCost, checked := bestOrder(working, start, end)

		alloc := newAllocator(s.gaps, s.labels, s.state)
		if !alloc.run(order) {
			last := working[len(working)-1]
			working = working[:len(working)-1]
			s.drop(last)
			continue
		}

		s.state = &alloc.st
		for _, sg := range order {
			delete(s.remaining, sg.ID)
		}
		s.ordered = append(s.ordered, order...)
		s.blocks = append(s.blocks, alloc.blocks...)
		for _, b := range alloc.blocks {
			s.allocated[b.SuggestionID] += b.DurationMin
		}
		s.moves = append(s.moves, alloc.moves...)
		s.travel += travelCost
		s.perms += checked
		return true
	}
	return false
}

// placeOptional repeatedly selects the best-value optional subset for
// the capacity that is left and schedules it, location-constrained
// suggestions first.
func (s *scheduler) placeOptional(optional []Suggestion) {
	for len(s.remaining) > 0 {
		capacity := remainingCapacity(s.gaps, s.state)
		if capacity <= tolerance {
			return
		}

		candidates := make([]Suggestion, 0, len(optional))
		for _, sg := range optional {
			if s.remaining[sg.ID] {
				candidates = append(candidates, sg)
			}
		}
		if len(candidates) == 0 {
			return
		}

		selected := knapsack(candidates, capacity, s.opts.ResolutionMin)
		if len(selected) == 0 {
			return
		}
		sort.SliceStable(selected, func(i, j int) bool { return selected[i].Score() > selected[j].Score() })

		var located, flexible []Suggestion
		for _, sg := range selected {
			if !s.remaining[sg.ID] {
				continue
			}
			if sg.LocationPreference != "" {
				located = append(located, sg)
			} else {
				flexible = append(flexible, sg)
			}
		}

		if len(located) > 0 && s.scheduleGroup(located) {
			continue
		}
		if len(flexible) == 0 {
			return
		}
		if !s.scheduleGroup(flexible) {
			return
		}
	}
}

// knapsack picks the optional subset maximizing total score within the
// capacity, discretizing durations to resolutionMin units (0/1 DP).
func knapsack(items []Suggestion, capacityMin, resolutionMin float64) []Suggestion {
	if capacityMin <= tolerance {
		return nil
	}
	w := int(math.Round(capacityMin / resolutionMin))
	if w < 0 {
		w = 0
	}
	n := len(items)
	weights := make([]int, n)
	for i, s := range items {
		wi := int(math.Round(s.DurationMin / resolutionMin))
		if wi < 1 {
			wi = 1
		}
		weights[i] = wi
	}

	dp := make([]float64, w+1)
	take := make([][]bool, n)
	for i := range take {
		take[i] = make([]bool, w+1)
	}
	for i := 0; i < n; i++ {
		value := items[i].Score()
		for c := w; c >= weights[i]; c-- {
			if cand := dp[c-weights[i]] + value; cand > dp[c] {
				dp[c] = cand
				take[i][c] = true
			}
		}
	}

	var chosen []Suggestion
	c := w
	for i := n - 1; i >= 0; i-- {
		if take[i][c] {
			chosen = append(chosen, items[i])
			c -= weights[i]
		}
	}
	sort.SliceStable(chosen, func(i, j int) bool { return chosen[i].Score() > chosen[j].Score() })
	return chosen
}

// bestOrder tries every permutation of the batch and keeps the one with
// the lowest travel: start to first, between suggestions, last back to
// end. Ties keep the earliest permutation in lexicographic order, which
// makes the result deterministic. Callers bound len(items) by the
// permutation limit.
func bestOrder(items []Suggestion, start, end Coordinate) (order []Suggestion, travelCost float64, checked int) {
	n := len(items)
	if n == 0 {
		return nil, 0, 0
	}

	best := math.Inf(1)
	bestIdx := make([]int, n)
	idx := make([]int, 0, n)
	used := make([]bool, n)

	var walk func()
	walk = func() {
		if len(idx) == n {
			checked++
			cost := tourMinutes(items, idx, start, end)
			if cost < best {
				best = cost
				copy(bestIdx, idx)
			}
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			idx = append(idx, i)
			walk()
			idx = idx[:len(idx)-1]
			used[i] = false
		}
	}
	walk()

	order = make([]Suggestion, n)
	for i, j := range bestIdx {
		order[i] = items[j]
	}
	return order, best, checked
}

func tourMinutes(items []Suggestion, idx []int, start, end Coordinate) float64 {
	var total float64
	prev := start
	for _, i := range idx {
		_, minutes := travelBetween(prev, items[i].Loc)
		total += minutes
		prev = items[i].Loc
	}
	_, minutes := travelBetween(prev, end)
	return total + minutes
}

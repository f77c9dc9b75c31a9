package errand

import (
	"fmt"
	"strings"
)

// Format renders a plan for terminal output.
func Format(r Result) string {
	if len(r.Blocks) == 0 {
		return "No feasible schedule could be generated."
	}

	var b strings.Builder
	b.WriteString("Final schedule:\n")
	b.WriteString("----------------\n")
	for _, block := range r.Blocks {
		fmt.Fprintf(&b, "- Gap %s: %s (%.0f min starting at +%.0f min)\n",
			block.GapID, block.SuggestionID, block.DurationMin, block.StartOffsetMin)
	}

	b.WriteString("\nPer-suggestion totals:\n")
	for _, s := range r.Ordered {
		fmt.Fprintf(&b, "  %s: %.0f/%.0f min\n", s.ID, r.AllocatedMin[s.ID], s.DurationMin)
	}

	if len(r.Movements) > 0 {
		b.WriteString("\nMovement log:\n")
		for _, m := range r.Movements {
			fmt.Fprintf(&b, "  %s -> %s: %.2f units (%.1f min)\n", m.From, m.To, m.Distance, m.Minutes)
		}
	}

	fmt.Fprintf(&b, "\nTravel cost: %.1f minutes.\n", r.TravelMinutes)
	dropped := make([]string, 0, len(r.Dropped))
	for _, s := range r.Dropped {
		dropped = append(dropped, s.ID)
	}
	names := strings.Join(dropped, ", ")
	if names == "" {
		names = "None"
	}
	fmt.Fprintf(&b, "Dropped suggestions: %s\n", names)
	fmt.Fprintf(&b, "Unused gap time: %.0f minutes.\n", r.UnusedGapMin)
	fmt.Fprintf(&b, "Permutations evaluated: %d", r.PermutationsEvaluated)
	return b.String()
}

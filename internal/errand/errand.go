// Package errand plans errand suggestions into the free gaps of a day,
// trading suggestion value against travel time on a small coordinate
// grid. Gaps carry start and end locations; the planner orders the
// chosen suggestions to minimize walking and charges travel minutes
// against gap capacity.
package errand

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// MinutesPerDistanceUnit converts euclidean grid distance to travel
	// minutes.
	MinutesPerDistanceUnit = 3.0

	// MandatoryNeedThreshold marks suggestions that must be scheduled.
	// A plan that cannot fit every mandatory suggestion is infeasible.
	MandatoryNeedThreshold = 1.0

	// HomeLabel names the implicit location at the edges of the day: the
	// first gap starts there and the last gap ends there unless a gap
	// carries its own label.
	HomeLabel = "home"

	// PreferNearHome is the only recognized location preference. For
	// optional suggestions it is a hard constraint (home boundaries
	// only); for mandatory ones it is advisory and does not restrict
	// placement.
	PreferNearHome = "near_home"

	tolerance = 1e-6
)

// ErrNonPositiveDuration rejects gaps or suggestions without a positive
// duration. The inputs are refused before any planning happens.
var ErrNonPositiveDuration = errors.New("errand: duration must be positive")

// Coordinate is a point on the errand grid.
type Coordinate struct {
	X, Y float64
}

// Gap is a free stretch of time with known start and end locations.
// Labels are optional; empty ones are derived from the gap id, except
// that the first gap starts at home and the last one ends there.
type Gap struct {
	ID          string
	DurationMin float64
	Start       Coordinate
	End         Coordinate
	StartLabel  string
	EndLabel    string
}

// Suggestion is one candidate errand. Need and Importance are clamped
// to [0,1] when scored; need at or above MandatoryNeedThreshold makes
// the suggestion mandatory.
type Suggestion struct {
	ID                 string
	Need               float64
	Importance         float64
	DurationMin        float64
	Loc                Coordinate
	LocationPreference string
}

// Score is the selection value: clamped need plus clamped importance.
func (s Suggestion) Score() float64 {
	return clamp01(s.Need) + clamp01(s.Importance)
}

// Mandatory reports whether the suggestion must appear in any feasible
// plan.
func (s Suggestion) Mandatory() bool {
	return s.Need >= MandatoryNeedThreshold-tolerance
}

// Block is one placed suggestion: it occupies DurationMin minutes of
// the named gap starting StartOffsetMin minutes into it.
type Block struct {
	SuggestionID   string
	GapID          string
	StartOffsetMin float64
	DurationMin    float64
	Loc            Coordinate
}

// Movement is one travel leg charged against a gap.
type Movement struct {
	From     string
	To       string
	Distance float64
	Minutes  float64
}

// Result is a complete errand plan. Dropped lists every suggestion that
// was not placed; AllocatedMin maps suggestion ids to the minutes they
// received.
type Result struct {
	Ordered               []Suggestion
	Blocks                []Block
	TravelMinutes         float64
	Dropped               []Suggestion
	UnusedGapMin          float64
	PermutationsEvaluated int
	AllocatedMin          map[string]float64
	Movements             []Movement
}

// Feasible reports whether anything was scheduled at all.
func (r Result) Feasible() bool {
	return len(r.Blocks) > 0
}

// NormalizePreference canonicalizes a location preference string. Only
// near-home survives normalization with meaning; other non-empty values
// pass through and render the suggestion unplaceable.
func NormalizePreference(value string) string {
	normalized := strings.TrimSpace(value)
	if normalized == "" {
		return ""
	}
	if strings.ReplaceAll(strings.ToLower(normalized), " ", "_") == PreferNearHome {
		return PreferNearHome
	}
	return normalized
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// travelBetween returns the euclidean distance between two points and
// the minutes it costs to cover it.
func travelBetween(a, b Coordinate) (distance, minutes float64) {
	distance = math.Hypot(a.X-b.X, a.Y-b.Y)
	return distance, distance * MinutesPerDistanceUnit
}

type gapLabels struct {
	start string
	end   string
}

// resolveGapLabels fills in missing labels: the day starts and ends at
// home, interior boundaries are named after their gap.
func resolveGapLabels(gapList []Gap) map[string]gapLabels {
	labels := make(map[string]gapLabels, len(gapList))
	for idx, gap := range gapList {
		start := gap.StartLabel
		if start == "" {
			if idx == 0 {
				start = HomeLabel
			} else {
				start = gap.ID + ":start"
			}
		}
		end := gap.EndLabel
		if end == "" {
			if idx == len(gapList)-1 {
				end = HomeLabel
			} else {
				end = gap.ID + ":end"
			}
		}
		labels[gap.ID] = gapLabels{start: start, end: end}
	}
	return labels
}

func totalGapMinutes(gapList []Gap) float64 {
	var total float64
	for _, gap := range gapList {
		total += gap.DurationMin
	}
	return total
}

func validateInputs(suggestions []Suggestion, gapList []Gap) error {
	for _, gap := range gapList {
		if gap.DurationMin <= 0 {
			return fmt.Errorf("%w: gap %q", ErrNonPositiveDuration, gap.ID)
		}
	}
	for _, s := range suggestions {
		if s.DurationMin <= 0 {
			return fmt.Errorf("%w: suggestion %q", ErrNonPositiveDuration, s.ID)
		}
	}
	return nil
}

package errand

import (
	"fmt"
	"math"
	"math/rand"
)

// GenConfig controls random suggestion generation for demos and tests.
type GenConfig struct {
	GridSize       float64
	MinDurationMin float64
	MaxDurationMin float64
	MandatoryProb  float64
	NearHomeProb   float64
	Home           Coordinate
	Seed           int64
}

// DefaultGenConfig mirrors a modest grid with mostly optional errands.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		GridSize:       10,
		MinDurationMin: 15,
		MaxDurationMin: 120,
		MandatoryProb:  0.1,
		NearHomeProb:   0.3,
		Seed:           1,
	}
}

var activityNames = []string{
	"exercise", "meal_prep", "call_mom", "deep_work", "groceries", "meditation",
	"language_practice", "cleaning", "read_book", "cooking", "shopping", "meeting",
	"workout", "study", "relax", "errands", "social", "hobby", "maintenance", "planning",
}

// GenerateSuggestions builds count random suggestions on the grid. The
// same seed always produces the same list. Near-home suggestions are
// placed within two grid units of the configured home coordinate.
func GenerateSuggestions(count int, cfg GenConfig) []Suggestion {
	rng := rand.New(rand.NewSource(cfg.Seed))
	suggestions := make([]Suggestion, 0, count)
	usedNames := make(map[string]bool, count)

	for i := 0; i < count; i++ {
		base := activityNames[rng.Intn(len(activityNames))]
		id := base
		for counter := 1; usedNames[id]; counter++ {
			id = fmt.Sprintf("%s_%d", base, counter)
		}
		usedNames[id] = true

		var need float64
		if rng.Float64() < cfg.MandatoryProb {
			need = MandatoryNeedThreshold
		} else {
			need = rng.Float64() * 0.99
		}
		importance := rng.Float64()
		duration := cfg.MinDurationMin + rng.Float64()*(cfg.MaxDurationMin-cfg.MinDurationMin)

		preference := ""
		if rng.Float64() < cfg.NearHomeProb {
			preference = PreferNearHome
		}

		var loc Coordinate
		if preference == PreferNearHome {
			const homeRadius = 2.0
			angle := rng.Float64() * 2 * math.Pi
			dist := rng.Float64() * homeRadius
			loc = Coordinate{
				X: clampGrid(cfg.Home.X+dist*math.Cos(angle), cfg.GridSize),
				Y: clampGrid(cfg.Home.Y+dist*math.Sin(angle), cfg.GridSize),
			}
		} else {
			loc = Coordinate{X: rng.Float64() * cfg.GridSize, Y: rng.Float64() * cfg.GridSize}
		}

		suggestions = append(suggestions, Suggestion{
			ID:                 id,
			Need:               need,
			Importance:         importance,
			DurationMin:        duration,
			Loc:                loc,
			LocationPreference: preference,
		})
	}
	return suggestions
}

func clampGrid(v, gridSize float64) float64 {
	if v < 0 {
		return 0
	}
	if v > gridSize {
		return gridSize
	}
	return v
}

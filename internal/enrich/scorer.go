package enrich

import (
	"context"
	"strings"

	"github.com/aster-void/home-pa-sub000/internal/model"
)

// Request describes one task to score.
type Request struct {
	Title string
	Type  model.TaskType
}

// Profile is the enrichment shape merged back into a task. Zero fields
// mean no opinion and never overwrite anything.
type Profile struct {
	Genre                    string
	Importance               model.Importance
	SessionDurationMin       int
	TotalDurationExpectedMin int
}

// Scorer derives a task profile. The production implementation calls an
// external model service; the engine only ever sees this interface.
type Scorer interface {
	Score(ctx context.Context, req Request) (Profile, error)
}

// Heuristic is the local fallback scorer. It keys off the task type and a
// few title keywords and never fails.
type Heuristic struct{}

func (Heuristic) Score(_ context.Context, req Request) (Profile, error) {
	p := Profile{Genre: guessGenre(req.Title)}
	switch req.Type {
	case model.TaskDeadline:
		p.Importance = model.ImportanceHigh
		p.SessionDurationMin = 45
		p.TotalDurationExpectedMin = 90
	case model.TaskRoutine:
		p.Importance = model.ImportanceMedium
		p.SessionDurationMin = 30
		p.TotalDurationExpectedMin = 30
	default:
		p.Importance = model.ImportanceLow
		p.SessionDurationMin = 30
		p.TotalDurationExpectedMin = 60
	}
	return p, nil
}

func guessGenre(title string) string {
	t := strings.ToLower(title)
	switch {
	case containsAny(t, "read", "book", "study", "learn", "course"):
		return "study"
	case containsAny(t, "gym", "run", "walk", "stretch", "workout", "yoga"):
		return "health"
	case containsAny(t, "clean", "laundry", "dish", "tidy", "grocer", "cook"):
		return "chores"
	case containsAny(t, "mail", "call", "invoice", "tax", "bank", "report", "form"):
		return "admin"
	default:
		return "general"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// MergeProfile fills only unset task fields from the profile. A field the
// user set explicitly is never overwritten.
func MergeProfile(task model.Task, p Profile) model.Task {
	if task.Genre == "" {
		task.Genre = p.Genre
	}
	if task.Importance == "" {
		task.Importance = p.Importance
	}
	if task.SessionDurationMin == 0 {
		task.SessionDurationMin = p.SessionDurationMin
	}
	if task.TotalDurationExpectedMin == 0 {
		task.TotalDurationExpectedMin = p.TotalDurationExpectedMin
	}
	return task
}

package planner

import (
	"sort"
	"sync"
	"time"

	"github.com/aster-void/home-pa-sub000/internal/gaps"
	appLog "github.com/aster-void/home-pa-sub000/internal/log"
	"github.com/aster-void/home-pa-sub000/internal/model"
	"github.com/aster-void/home-pa-sub000/internal/recurrence"
	"github.com/aster-void/home-pa-sub000/internal/schedule"
)

// Planner owns the engine inputs for one planned day and serializes
// recomputation. The pipeline itself (expand, find gaps, regenerate) is
// pure; the planner's job is the generation token: every input mutation
// bumps it, and a recomputed result commits only if its token is still
// current. A result computed against inputs that changed mid-flight is
// discarded (last-call-wins).
type Planner struct {
	mu sync.Mutex

	loc        *time.Location
	boundaries model.DayBoundaries
	date       time.Time
	events     []model.Event
	tasks      map[string]model.Task

	defaultSessionMin int
	nowFn             func() time.Time

	gen       uint64
	resultGen uint64
	result    model.ScheduleResult
	gapList   []model.Gap
	summary   gaps.Summary
	expErrs   []recurrence.ExpandError
}

// Config seeds a planner. Zero fields fall back to sensible defaults:
// local timezone, default day boundaries, today's date.
type Config struct {
	Location          *time.Location
	Boundaries        model.DayBoundaries
	Date              time.Time
	DefaultSessionMin int
	Now               func() time.Time
}

func New(cfg Config) *Planner {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Boundaries.Validate() != nil {
		cfg.Boundaries = model.DefaultDayBoundaries()
	}
	if cfg.Date.IsZero() {
		cfg.Date = cfg.Now().In(cfg.Location)
	}
	return &Planner{
		loc:               cfg.Location,
		boundaries:        cfg.Boundaries,
		date:              cfg.Date,
		tasks:             make(map[string]model.Task),
		defaultSessionMin: cfg.DefaultSessionMin,
		nowFn:             cfg.Now,
	}
}

// Snapshot is a read-only copy of the last committed plan.
type Snapshot struct {
	Generation uint64
	Date       time.Time
	Boundaries model.DayBoundaries
	Gaps       []model.Gap
	GapSummary gaps.Summary
	Result     model.ScheduleResult
	ExpandErrs []recurrence.ExpandError
}

// SetEvents replaces the calendar events. Bumps the generation.
func (p *Planner) SetEvents(events []model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append([]model.Event(nil), events...)
	p.gen++
}

// SetTasks replaces the task list wholesale. Bumps the generation.
func (p *Planner) SetTasks(tasks []model.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		p.tasks[t.ID] = t
	}
	p.gen++
}

// Get looks a task up by id. Satisfies the enrichment runner's store.
func (p *Planner) Get(id string) (model.Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[id]
	return t, ok
}

// Update upserts one task and bumps the generation, so any regeneration
// in flight against the old inputs will be discarded at commit.
func (p *Planner) Update(task model.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks[task.ID] = task
	p.gen++
}

// RemoveTask deletes a task. Bumps the generation. A late enrichment
// result for the removed id is discarded by the runner's re-fetch.
func (p *Planner) RemoveTask(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.tasks, id)
	p.gen++
}

// SetDate re-anchors the planned day. Bumps the generation.
func (p *Planner) SetDate(date time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.date = date
	p.gen++
}

// SetDayBoundaries validates and applies a boundary edit. An invalid pair
// is rejected before any mutation and the prior boundaries stay in
// effect.
func (p *Planner) SetDayBoundaries(b model.DayBoundaries) error {
	if err := b.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.boundaries = b
	p.gen++
	return nil
}

// SetDefaultSessionMin changes the fallback session length for tasks
// that carry none. Bumps the generation.
func (p *Planner) SetDefaultSessionMin(min int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaultSessionMin = min
	p.gen++
}

// Boundaries returns the boundaries currently in effect.
func (p *Planner) Boundaries() model.DayBoundaries {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.boundaries
}

// Tasks returns the tasks in a stable order.
func (p *Planner) Tasks() []model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Regenerate recomputes the whole pipeline against a snapshot of the
// current inputs. The result commits only if no mutation landed while it
// was being computed; otherwise it is discarded and committed reports
// false, and the caller may simply call again.
func (p *Planner) Regenerate() (snap Snapshot, committed bool) {
	p.mu.Lock()
	gen := p.gen
	date := p.date
	loc := p.loc
	bounds := p.boundaries
	events := p.events
	tasks := make([]model.Task, 0, len(p.tasks))
	for _, t := range p.tasks {
		tasks = append(tasks, t)
	}
	defaultMin := p.defaultSessionMin
	p.mu.Unlock()

	now := p.nowFn()
	dayStart := startOfDay(date, loc)
	exp := recurrence.Expand(events, recurrence.Config{
		Location:    loc,
		WindowStart: dayStart,
		WindowEnd:   dayStart.AddDate(0, 0, 1),
	})
	busy := recurrence.BusyIntervals(events, exp.Occurrences, date, loc)
	gapList := gaps.Find(busy, bounds)
	result := schedule.Regenerate(tasks, gapList, schedule.Options{
		Now:               now,
		DefaultSessionMin: defaultMin,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		appLog.Debug("planner: discarding stale result",
			"computed_gen", gen, "current_gen", p.gen)
		return p.snapshotLocked(), false
	}
	p.resultGen = gen
	p.result = result
	p.gapList = gapList
	p.summary = gaps.Stats(gapList)
	p.expErrs = exp.Errors
	return p.snapshotLocked(), true
}

// Current returns the last committed plan without recomputing.
func (p *Planner) Current() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Accept marks one scheduled session accepted without a regenerate.
func (p *Planner) Accept(taskID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return schedule.AcceptBlock(&p.result, taskID)
}

// Skip marks one scheduled session skipped without a regenerate.
func (p *Planner) Skip(taskID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return schedule.SkipBlock(&p.result, taskID)
}

// Resize changes one session's duration without a regenerate.
func (p *Planner) Resize(taskID string, durationMin int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return schedule.ResizeBlock(&p.result, taskID, durationMin)
}

// MarkSessionComplete advances a task through the completion state
// machine and stores the updated value. Bumps the generation.
func (p *Planner) MarkSessionComplete(taskID string, minutesSpent int) (model.Task, bool) {
	now := p.nowFn()
	p.mu.Lock()
	defer p.mu.Unlock()
	task, ok := p.tasks[taskID]
	if !ok {
		return model.Task{}, false
	}
	task = schedule.MarkSessionComplete(task, minutesSpent, now)
	p.tasks[taskID] = task
	p.gen++
	return task, true
}

func (p *Planner) snapshotLocked() Snapshot {
	return Snapshot{
		Generation: p.resultGen,
		Date:       p.date,
		Boundaries: p.boundaries,
		Gaps:       append([]model.Gap(nil), p.gapList...),
		GapSummary: p.summary,
		Result:     p.result.Clone(),
		ExpandErrs: append([]recurrence.ExpandError(nil), p.expErrs...),
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

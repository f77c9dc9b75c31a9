package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	appLog "github.com/aster-void/home-pa-sub000/internal/log"
	"github.com/aster-void/home-pa-sub000/internal/model"
)

var errQueueFull = errors.New("queue full")

// TaskStore is the narrow surface the runner needs from the owning app.
// Implementations must be safe for concurrent use, and Get must report
// ok=false for deleted tasks so their late results are discarded.
type TaskStore interface {
	Get(id string) (model.Task, bool)
	Update(task model.Task)
}

// Config sizes the enrichment runner.
type Config struct {
	Workers        int
	QueueSize      int
	RequestTimeout time.Duration
}

// Runner enriches tasks in the background, one request per task. Results
// merge into the store with nullish semantics; the enriching marker is
// cleared on every outcome. There is no per-request cancellation: a task
// deleted mid-flight simply has its late result discarded.
type Runner struct {
	cfg      Config
	scorer   Scorer
	fallback Heuristic
	store    TaskStore

	mu     sync.Mutex
	q      chan string
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewRunner(scorer Scorer, store TaskStore, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 20 * time.Second
	}
	return &Runner{
		cfg:    cfg,
		scorer: scorer,
		store:  store,
		q:      make(chan string, cfg.QueueSize),
	}
}

// Start launches the worker pool. Idempotent while running.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopCh != nil {
		return
	}
	r.stopCh = make(chan struct{})
	stopCh := r.stopCh
	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.worker(stopCh)
		}()
	}
}

// Stop halts the workers after their current item, then clears the
// enriching marker of anything left in the queue.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopCh != nil {
		close(r.stopCh)
		r.stopCh = nil
	}
	r.mu.Unlock()

	r.wg.Wait()

	for {
		select {
		case id := <-r.q:
			r.clearMarker(id)
		default:
			return
		}
	}
}

// Submit marks the task enriching and queues it. Unknown ids are ignored;
// a full queue drops the request and clears the marker so the task is
// never stuck in the enriching state.
func (r *Runner) Submit(taskID string) bool {
	task, ok := r.store.Get(taskID)
	if !ok {
		return false
	}
	if !task.Enriching {
		task.Enriching = true
		r.store.Update(task)
	}

	select {
	case r.q <- taskID:
		return true
	default:
		r.clearMarker(taskID)
		appLog.Error("enrich: dropping request", errQueueFull, "task", taskID)
		return false
	}
}

func (r *Runner) worker(stopCh chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		case id := <-r.q:
			r.process(id)
		}
	}
}

func (r *Runner) process(id string) {
	task, ok := r.store.Get(id)
	if !ok {
		// Deleted while queued; nothing to score and nothing to clear.
		return
	}

	req := Request{Title: task.Title, Type: task.Type}
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	profile, err := r.scorer.Score(ctx, req)
	cancel()
	if err != nil {
		appLog.Error("enrich: scorer failed, falling back to heuristic", err, "task", id)
		profile, _ = r.fallback.Score(context.Background(), req)
	}

	r.apply(id, profile)
}

// apply merges the profile into the live task. The task is re-fetched so
// a deletion mid-flight discards the result, and the marker is cleared on
// every surviving path.
func (r *Runner) apply(id string, p Profile) {
	task, ok := r.store.Get(id)
	if !ok {
		appLog.Debug("enrich: task deleted mid-flight, discarding result", "task", id)
		return
	}
	task = MergeProfile(task, p)
	task.Enriching = false
	r.store.Update(task)
}

func (r *Runner) clearMarker(id string) {
	if task, ok := r.store.Get(id); ok && task.Enriching {
		task.Enriching = false
		r.store.Update(task)
	}
}

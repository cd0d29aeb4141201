// Package scheduler drives the recurring due-check sweep. A single ticker
// evaluates every task's due-ness each tick and dispatches due tasks to the
// worker pool; each task has at most one execution in flight at a time, even
// when a slow provider call spans several ticks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/metrics"
	"github.com/dkotenko/llmcron/internal/store"
	"github.com/dkotenko/llmcron/internal/task"
	"github.com/dkotenko/llmcron/internal/workers"
)

// DefaultTickInterval is the sweep cadence. It must stay at or below the
// shortest supported frequency.
const DefaultTickInterval = time.Minute

// State is the derived scheduling state of a task. It is computed per tick,
// never stored.
type State string

const (
	StateDisabled State = "disabled"
	StateIdle     State = "idle"
	StateDue      State = "due"
	StateRunning  State = "running"
)

// Runner executes one due task occurrence. Implemented by the execution
// pipeline; it never returns provider failures, only a store NotFound when
// the task disappeared mid-flight.
type Runner interface {
	Run(ctx context.Context, t task.Task) (task.Task, error)
}

// Config assembles a scheduler.
type Config struct {
	Store        *store.TaskStore
	Runner       Runner
	Pool         *workers.Pool
	Metrics      *metrics.Metrics
	Logger       *logger.Logger
	TickInterval time.Duration
}

// Scheduler owns the tick loop and the per-task in-flight guard.
type Scheduler struct {
	store    *store.TaskStore
	runner   Runner
	pool     *workers.Pool
	metrics  *metrics.Metrics
	logger   *logger.Logger
	interval time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex

	// running tracks task ids with an execution in flight.
	running map[string]bool
}

// New creates a scheduler.
func New(cfg Config) *Scheduler {
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Scheduler{
		store:    cfg.Store,
		runner:   cfg.Runner,
		pool:     cfg.Pool,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		interval: interval,
		running:  make(map[string]bool),
	}
}

// Start launches the tick loop. It returns immediately; the loop stops when
// the given context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	go s.loop()

	s.logger.Info("scheduler started",
		logger.Field{Key: "tick_interval", Value: s.interval.String()})
	return nil
}

// Stop halts the tick loop. In-flight executions are abandoned to the worker
// pool's shutdown; their results are simply never recorded if the process
// exits first.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return fmt.Errorf("scheduler not started")
	}
	s.cancel()
	s.started = false

	s.logger.Info("scheduler stopped")
	return nil
}

// IsStarted reports whether the tick loop is active.
func (s *Scheduler) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First sweep fires immediately so freshly loaded never-run tasks do
	// not wait a full interval after startup.
	s.Sweep(time.Now())

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(time.Now())
		}
	}
}

// Sweep evaluates every task's due-ness at now and dispatches the due ones.
// Exported for tests and for the tick loop; safe to call concurrently with
// user mutations.
func (s *Scheduler) Sweep(now time.Time) {
	s.metrics.RecordTick()

	tasks := s.store.List()
	enabled := 0
	dispatched := 0

	for _, t := range tasks {
		if t.Enabled {
			enabled++
		}
		if s.dispatch(t, now) {
			dispatched++
		}
	}

	s.metrics.SetEnabledTasks(enabled)
	if dispatched > 0 {
		s.logger.Debug("sweep dispatched tasks",
			logger.Field{Key: "dispatched", Value: dispatched},
			logger.Field{Key: "total", Value: len(tasks)})
	}
}

// dispatch submits t for execution if it is due and not already running.
// Returns true when the task was handed to the pool.
func (s *Scheduler) dispatch(t task.Task, now time.Time) bool {
	if !task.ShouldRun(t, now) {
		return false
	}

	s.mu.Lock()
	if s.running[t.ID] {
		s.mu.Unlock()
		return false
	}
	s.running[t.ID] = true
	s.mu.Unlock()

	ok := s.pool.Submit(workers.Job{
		ID: t.ID,
		Run: func(ctx context.Context) {
			defer s.clearRunning(t.ID)
			if _, err := s.runner.Run(ctx, t); err != nil {
				s.logger.Warn("execution result dropped",
					logger.Field{Key: "task_id", Value: t.ID},
					logger.Field{Key: "reason", Value: err.Error()})
			}
		},
	})
	if !ok {
		// Pool rejected the job; release the guard so the next tick
		// retries.
		s.clearRunning(t.ID)
		return false
	}
	return true
}

func (s *Scheduler) clearRunning(id string) {
	s.mu.Lock()
	delete(s.running, id)
	s.mu.Unlock()
}

// RunNow executes the task immediately, outside its schedule, honoring the
// same one-in-flight guard as scheduled runs. Blocks until the attempt
// completes.
func (s *Scheduler) RunNow(ctx context.Context, id string) (task.Task, error) {
	t, err := s.store.Get(id)
	if err != nil {
		return task.Task{}, err
	}

	s.mu.Lock()
	if s.running[id] {
		s.mu.Unlock()
		return task.Task{}, fmt.Errorf("task %s is already running", id)
	}
	s.running[id] = true
	s.mu.Unlock()
	defer s.clearRunning(id)

	return s.runner.Run(ctx, t)
}

// State derives the scheduling state of t at now.
func (s *Scheduler) State(t task.Task, now time.Time) State {
	if !t.Enabled {
		return StateDisabled
	}

	s.mu.Lock()
	running := s.running[t.ID]
	s.mu.Unlock()

	if running {
		return StateRunning
	}
	if task.ShouldRun(t, now) {
		return StateDue
	}
	return StateIdle
}

// Package workers provides a goroutine pool for background job execution.
// The scheduler dispatches due-task executions through it so one slow
// provider call never stalls tick evaluation.
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkotenko/llmcron/internal/logger"
)

// Job is a unit of work to be executed by a worker.
type Job struct {
	ID  string
	Run func(ctx context.Context)
}

// Stats tracks execution counts for the pool.
type Stats struct {
	Submitted uint64
	Completed uint64
}

// Default pool sizing.
const (
	DefaultPoolSize  = 8
	DefaultQueueSize = 64
)

// Pool manages a fixed set of worker goroutines consuming a job queue.
type Pool struct {
	jobQueue chan Job
	workers  int
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *logger.Logger

	mu    sync.Mutex
	stats Stats
}

// NewPool creates a pool with the given worker count and queue capacity.
// Non-positive values fall back to the defaults.
func NewPool(workers, queueSize int, log *logger.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultPoolSize
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobQueue: make(chan Job, queueSize),
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
		logger:   log,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	p.logger.Info("starting worker pool",
		logger.Field{Key: "workers", Value: p.workers},
		logger.Field{Key: "queue_size", Value: cap(p.jobQueue)})

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit enqueues a job for execution. Returns false if the pool is
// shutting down or the queue is full; the caller decides what a rejected
// job means.
func (p *Pool) Submit(job Job) bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
	}

	select {
	case p.jobQueue <- job:
		p.mu.Lock()
		p.stats.Submitted++
		p.mu.Unlock()
		return true
	default:
		p.logger.Warn("job queue full, rejecting job",
			logger.Field{Key: "job_id", Value: job.ID})
		return false
	}
}

// Stop shuts the pool down and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()

	stats := p.StatsSnapshot()
	p.logger.Info("worker pool stopped",
		logger.Field{Key: "jobs_submitted", Value: stats.Submitted},
		logger.Field{Key: "jobs_completed", Value: stats.Completed})
}

// StatsSnapshot returns the current counters.
func (p *Pool) StatsSnapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// QueueSize returns the number of jobs waiting in the queue.
func (p *Pool) QueueSize() int {
	return len(p.jobQueue)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("worker started",
		logger.Field{Key: "worker_id", Value: id})

	for {
		select {
		case job := <-p.jobQueue:
			p.runJob(id, job)
		case <-p.ctx.Done():
			p.logger.Debug("worker stopping",
				logger.Field{Key: "worker_id", Value: id})
			return
		}
	}
}

func (p *Pool) runJob(workerID int, job Job) {
	// Panicked jobs still count as completed so the counters reconcile
	// at shutdown.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panic recovered", fmt.Errorf("panic: %v", r),
				logger.Field{Key: "worker_id", Value: workerID},
				logger.Field{Key: "job_id", Value: job.ID})
		}
		p.mu.Lock()
		p.stats.Completed++
		p.mu.Unlock()
	}()

	start := time.Now()
	job.Run(p.ctx)

	p.logger.Debug("job finished",
		logger.Field{Key: "worker_id", Value: workerID},
		logger.Field{Key: "job_id", Value: job.ID},
		logger.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
}

// Package pipeline executes one due task end to end: resolve the provider,
// make the call, convert the outcome into a history entry and commit it.
// Every provider and transport failure is absorbed here and turned into a
// Failed history record; nothing propagates to the scheduler loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/metrics"
	"github.com/dkotenko/llmcron/internal/provider"
	"github.com/dkotenko/llmcron/internal/store"
	"github.com/dkotenko/llmcron/internal/task"
)

// DefaultCallTimeout bounds a single provider call.
const DefaultCallTimeout = 90 * time.Second

// CredentialSource supplies the current provider credentials. The pipeline
// only reads them.
type CredentialSource interface {
	Credentials() provider.Credentials
}

// Notifier receives the result of every execution attempt. Implementations
// must not block for long; notification failures are the notifier's problem.
type Notifier interface {
	NotifyResult(ctx context.Context, t task.Task, entry task.HistoryEntry)
}

// Pipeline runs due tasks. One attempt per due occurrence: a failure waits
// for the next natural due cycle, it is never retried within the same one.
type Pipeline struct {
	store       *store.TaskStore
	router      *provider.Router
	creds       CredentialSource
	notifier    Notifier
	metrics     *metrics.Metrics
	logger      *logger.Logger
	callTimeout time.Duration
}

// Config assembles a pipeline. Notifier and Metrics are optional.
type Config struct {
	Store       *store.TaskStore
	Router      *provider.Router
	Credentials CredentialSource
	Notifier    Notifier
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	CallTimeout time.Duration
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Pipeline{
		store:       cfg.Store,
		router:      cfg.Router,
		creds:       cfg.Credentials,
		notifier:    cfg.Notifier,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		callTimeout: timeout,
	}
}

// Run executes one due occurrence of t and commits the outcome. The history
// entry is recorded whether the call succeeded or failed; a failed call
// still advances the last-run timestamp so a broken task waits out its full
// frequency interval instead of hammering the provider every tick.
//
// The only error Run returns is a store NotFound when the task was deleted
// while its call was in flight; the attempt is then simply not recorded.
func (p *Pipeline) Run(ctx context.Context, t task.Task) (task.Task, error) {
	start := time.Now()
	entry := p.attempt(ctx, t)

	updated, err := p.store.RecordExecution(t.ID, entry)
	if err != nil {
		p.logger.Warn("task vanished before its result could be recorded",
			logger.Field{Key: "task_id", Value: t.ID})
		return task.Task{}, err
	}

	p.metrics.RecordExecution(string(t.Provider), string(entry.Status), time.Since(start))

	if entry.Status == task.StatusSuccess {
		p.logger.InfoCtx(ctx, "task executed",
			logger.Field{Key: "task_id", Value: t.ID},
			logger.Field{Key: "provider", Value: t.Provider},
			logger.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()})
	} else {
		p.logger.WarnCtx(ctx, "task execution failed",
			logger.Field{Key: "task_id", Value: t.ID},
			logger.Field{Key: "provider", Value: t.Provider},
			logger.Field{Key: "result", Value: entry.Result})
	}

	if p.notifier != nil {
		p.notifier.NotifyResult(ctx, updated, entry)
	}
	return updated, nil
}

// attempt performs the provider call and shapes the outcome into a history
// entry. Never returns an error.
func (p *Pipeline) attempt(ctx context.Context, t task.Task) task.HistoryEntry {
	client, key, err := p.router.Resolve(t.Provider, p.creds.Credentials())
	if err != nil {
		// Credential or routing problem: no network attempt is made.
		return task.NewHistoryEntry(time.Now(), err.Error(), task.StatusFailed)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	text, err := client.Generate(callCtx, t.Prompt, key)
	if err != nil {
		return task.NewHistoryEntry(time.Now(), describeCallError(err, p.callTimeout), task.StatusFailed)
	}
	return task.NewHistoryEntry(time.Now(), text, task.StatusSuccess)
}

// describeCallError renders a provider call failure as the human-readable
// text stored in history.
func describeCallError(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("provider call timed out after %s", timeout)
	}
	return err.Error()
}

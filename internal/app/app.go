// Package app provides the main application structure for llmcron.
// It coordinates all components: the task store, provider router,
// execution pipeline, worker pool, scheduler, notifications, and the
// metrics endpoint.
package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/dkotenko/llmcron/internal/config"
	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/metrics"
	"github.com/dkotenko/llmcron/internal/notify"
	"github.com/dkotenko/llmcron/internal/pipeline"
	"github.com/dkotenko/llmcron/internal/provider"
	"github.com/dkotenko/llmcron/internal/scheduler"
	"github.com/dkotenko/llmcron/internal/store"
	"github.com/dkotenko/llmcron/internal/workers"
	"github.com/dkotenko/llmcron/internal/workspace"
)

// App represents the main application structure.
// It holds references to all major components and manages their lifecycle.
type App struct {
	config *config.Config
	logger *logger.Logger

	workspace *workspace.Workspace

	// Persistence
	taskStore *store.TaskStore
	credStore *store.CredentialsStore

	// Execution
	router    *provider.Router
	pipeline  *pipeline.Pipeline
	pool      *workers.Pool
	scheduler *scheduler.Scheduler

	// Notifications
	telegram *notify.TelegramNotifier

	// Observability
	metrics       *metrics.Metrics
	metricsServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	started bool
}

// New creates a new App instance with the provided configuration and
// logger. Other components are initialized in Initialize().
func New(cfg *config.Config, log *logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
	}
}

// Run starts the application and blocks until the context is cancelled,
// then performs graceful shutdown.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		return err
	}

	a.logger.Info("application is running",
		logger.Field{Key: "workspace", Value: a.workspace.Path()},
		logger.Field{Key: "tasks", Value: len(a.taskStore.List())})

	<-ctx.Done()

	return a.Shutdown()
}

// Store returns the task store. Available after Initialize().
func (a *App) Store() *store.TaskStore {
	return a.taskStore
}

// CredentialsStore returns the credentials store. Available after Initialize().
func (a *App) CredentialsStore() *store.CredentialsStore {
	return a.credStore
}

// Scheduler returns the scheduler. Available after Initialize().
func (a *App) Scheduler() *scheduler.Scheduler {
	return a.scheduler
}

package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/metrics"
	"github.com/dkotenko/llmcron/internal/notify"
	"github.com/dkotenko/llmcron/internal/pipeline"
	"github.com/dkotenko/llmcron/internal/provider"
	"github.com/dkotenko/llmcron/internal/scheduler"
	"github.com/dkotenko/llmcron/internal/store"
	"github.com/dkotenko/llmcron/internal/workers"
	"github.com/dkotenko/llmcron/internal/workspace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Initialize initializes all application components: workspace, stores,
// provider clients, pipeline, worker pool, scheduler, notifications, and
// the metrics endpoint.
func (a *App) Initialize(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	// 1. Workspace directory
	a.workspace = workspace.New(a.config.Workspace)
	if err := a.workspace.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	// 2. Persistence
	a.taskStore = store.NewTaskStore(store.NewStorage(a.workspace.Path(), a.logger), a.logger)
	if err := a.taskStore.Load(); err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	a.credStore = store.NewCredentialsStore(a.workspace.Path(), a.logger)
	if err := a.credStore.Load(); err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	// Keys from the config file fill slots the credentials file leaves empty.
	a.credStore.Merge(a.config.Credentials())

	// 3. Provider clients
	a.router = provider.NewRouter(
		provider.NewGeminiClient(provider.GeminiConfig{
			BaseURL:        a.config.Providers.Gemini.BaseURL,
			Model:          a.config.Providers.Gemini.Model,
			TimeoutSeconds: a.config.Providers.Gemini.TimeoutSeconds,
		}, a.logger),
		provider.NewDeepseekClient(provider.ChatConfig{
			BaseURL:        a.config.Providers.Deepseek.BaseURL,
			Model:          a.config.Providers.Deepseek.Model,
			TimeoutSeconds: a.config.Providers.Deepseek.TimeoutSeconds,
		}, a.logger),
		provider.NewGrokClient(provider.ChatConfig{
			BaseURL:        a.config.Providers.Grok.BaseURL,
			Model:          a.config.Providers.Grok.Model,
			TimeoutSeconds: a.config.Providers.Grok.TimeoutSeconds,
		}, a.logger),
	)

	// 4. Metrics
	if a.config.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		a.metrics = metrics.New("llmcron", registry)
		a.startMetricsServer(registry)
	}

	// 5. Telegram notifications
	var notifier pipeline.Notifier
	if a.config.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(
			a.config.Notify.Telegram.Token,
			a.config.Notify.Telegram.ChatID,
			a.logger,
		)
		if err != nil {
			return fmt.Errorf("failed to start telegram notifier: %w", err)
		}
		a.telegram = tg
		notifier = tg
	}

	// 6. Execution pipeline
	a.pipeline = pipeline.New(pipeline.Config{
		Store:       a.taskStore,
		Router:      a.router,
		Credentials: a.credStore,
		Notifier:    notifier,
		Metrics:     a.metrics,
		Logger:      a.logger,
		CallTimeout: time.Duration(a.config.Scheduler.CallTimeoutSeconds) * time.Second,
	})

	// 7. Worker pool
	a.pool = workers.NewPool(a.config.Workers.PoolSize, a.config.Workers.QueueSize, a.logger)
	a.pool.Start()

	// 8. Scheduler
	a.scheduler = scheduler.New(scheduler.Config{
		Store:        a.taskStore,
		Runner:       a.pipeline,
		Pool:         a.pool,
		Metrics:      a.metrics,
		Logger:       a.logger,
		TickInterval: time.Duration(a.config.Scheduler.TickSeconds) * time.Second,
	})
	if err := a.scheduler.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	a.mu.Lock()
	a.started = true
	a.mu.Unlock()

	return nil
}

func (a *App) startMetricsServer(registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	a.metricsServer = &http.Server{
		Addr:              a.config.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("metrics endpoint listening",
			logger.Field{Key: "addr", Value: a.config.Metrics.Listen})
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server failed", err)
		}
	}()
}

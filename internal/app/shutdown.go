package app

import (
	"context"
	"time"
)

// Shutdown performs graceful shutdown of all components:
//  1. Cancels the application context
//  2. Stops the scheduler so no new executions are dispatched
//  3. Stops the worker pool, waiting for in-flight executions
//  4. Flushes pending task persistence
//  5. Stops the metrics server
//
// The method is thread-safe.
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}

	a.cancel()

	if a.scheduler != nil {
		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("failed to stop scheduler", err)
		}
	}

	if a.pool != nil {
		a.pool.Stop()
	}

	if a.taskStore != nil {
		a.taskStore.Flush()
	}

	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to stop metrics server", err)
		}
	}

	a.started = false
	a.logger.Info("application shutdown complete")

	return nil
}

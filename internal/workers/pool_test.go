package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func TestPool_ExecutesJobs(t *testing.T) {
	pool := NewPool(4, 16, testLogger(t))
	pool.Start()
	defer pool.Stop()

	var executed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		ok := pool.Submit(Job{
			ID: "job",
			Run: func(ctx context.Context) {
				defer wg.Done()
				executed.Add(1)
			},
		})
		require.True(t, ok)
	}

	wg.Wait()
	assert.Equal(t, int64(10), executed.Load())
}

func TestPool_JobsRunConcurrently(t *testing.T) {
	pool := NewPool(4, 16, testLogger(t))
	pool.Start()
	defer pool.Stop()

	release := make(chan struct{})
	started := make(chan struct{}, 4)

	for i := 0; i < 2; i++ {
		pool.Submit(Job{
			ID: "blocker",
			Run: func(ctx context.Context) {
				started <- struct{}{}
				<-release
			},
		})
	}

	// Both jobs start even though neither has finished.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("jobs did not run concurrently")
		}
	}
	close(release)
}

func TestPool_RejectsWhenQueueFull(t *testing.T) {
	pool := NewPool(1, 1, testLogger(t))
	pool.Start()
	defer pool.Stop()

	block := make(chan struct{})
	defer close(block)

	// Occupy the single worker, then fill the single queue slot.
	pool.Submit(Job{ID: "busy", Run: func(ctx context.Context) { <-block }})
	time.Sleep(50 * time.Millisecond)
	require.True(t, pool.Submit(Job{ID: "queued", Run: func(ctx context.Context) {}}))

	assert.False(t, pool.Submit(Job{ID: "overflow", Run: func(ctx context.Context) {}}))
}

func TestPool_StopWaitsForInflight(t *testing.T) {
	pool := NewPool(2, 8, testLogger(t))
	pool.Start()

	var done atomic.Bool
	pool.Submit(Job{
		ID: "slow",
		Run: func(ctx context.Context) {
			time.Sleep(100 * time.Millisecond)
			done.Store(true)
		},
	})

	time.Sleep(20 * time.Millisecond)
	pool.Stop()
	assert.True(t, done.Load(), "Stop waits for the running job")

	assert.False(t, pool.Submit(Job{ID: "late", Run: func(ctx context.Context) {}}),
		"submit after stop is rejected")
}

func TestPool_RecoversFromPanic(t *testing.T) {
	pool := NewPool(1, 8, testLogger(t))
	pool.Start()
	defer pool.Stop()

	var wg sync.WaitGroup
	wg.Add(1)

	pool.Submit(Job{ID: "boom", Run: func(ctx context.Context) { panic("boom") }})
	pool.Submit(Job{ID: "after", Run: func(ctx context.Context) { wg.Done() }})

	// The worker survives the panic and keeps consuming jobs.
	waitDone := make(chan struct{})
	go func() { wg.Wait(); close(waitDone) }()
	select {
	case <-waitDone:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive job panic")
	}
}

func TestPool_PanickedJobsCountAsCompleted(t *testing.T) {
	pool := NewPool(1, 8, testLogger(t))
	pool.Start()

	done := make(chan struct{})
	require.True(t, pool.Submit(Job{ID: "boom", Run: func(ctx context.Context) { panic("boom") }}))
	require.True(t, pool.Submit(Job{ID: "ok", Run: func(ctx context.Context) { close(done) }}))
	<-done
	pool.Stop()

	stats := pool.StatsSnapshot()
	assert.Equal(t, stats.Submitted, stats.Completed, "counters reconcile after a panic")
	assert.Equal(t, uint64(2), stats.Completed)
}

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkotenko/llmcron/internal/config"
	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(t *testing.T) *App {
	t.Helper()

	cfg := config.Default()
	cfg.Workspace.Path = t.TempDir()
	cfg.Metrics.Enabled = false

	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)

	return New(cfg, log)
}

func TestApp_InitializeAndShutdown(t *testing.T) {
	a := testApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.Initialize(ctx))

	assert.NotNil(t, a.Store())
	assert.NotNil(t, a.CredentialsStore())
	require.NotNil(t, a.Scheduler())
	assert.True(t, a.Scheduler().IsStarted())

	require.NoError(t, a.Shutdown())
	assert.False(t, a.Scheduler().IsStarted())

	// Second shutdown is a no-op.
	require.NoError(t, a.Shutdown())
}

func TestApp_Run_StopsOnContextCancel(t *testing.T) {
	a := testApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestApp_Initialize_LoadsPersistedTasks(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()

	require.NoError(t, a.Initialize(ctx))
	added, err := a.Store().Add(task.Task{
		Title:     "persisted",
		Frequency: task.FrequencyDaily,
		At:        task.TimeOfDay{Hour: 9},
		Prompt:    "p",
		Provider:  task.ProviderGemini,
		Enabled:   true,
	})
	require.NoError(t, err)
	require.NoError(t, a.Shutdown())

	// A fresh app over the same workspace sees the task.
	b := New(a.config, a.logger)
	require.NoError(t, b.Initialize(ctx))
	defer func() { _ = b.Shutdown() }()

	got, err := b.Store().Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Title)
}

func TestApp_Initialize_MergesConfigCredentials(t *testing.T) {
	a := testApp(t)
	a.config.Providers.Gemini.APIKey = "gemini-key-from-config"

	require.NoError(t, a.Initialize(context.Background()))
	defer func() { _ = a.Shutdown() }()

	creds := a.CredentialsStore().Credentials()
	assert.Equal(t, "gemini-key-from-config", creds.GeminiKey)
}

func TestApp_Initialize_BadWorkspace(t *testing.T) {
	a := testApp(t)

	// A regular file where the directory should be.
	path := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	a.config.Workspace.Path = path

	assert.Error(t, a.Initialize(context.Background()))
}

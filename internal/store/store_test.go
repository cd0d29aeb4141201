package store

import (
	"sync"
	"testing"
	"time"

	"github.com/dkotenko/llmcron/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *TaskStore {
	t.Helper()
	s := NewTaskStore(NewStorage(t.TempDir(), testLogger(t)), testLogger(t))
	t.Cleanup(s.Flush)
	return s
}

func TestTaskStore_Add(t *testing.T) {
	s := newTestStore(t)

	added, err := s.Add(task.Task{
		Title:     "digest",
		Frequency: task.FrequencyHourly,
		Prompt:    "p",
		Provider:  task.ProviderDeepseek,
		Enabled:   true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID, "id assigned when absent")

	got, err := s.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, "digest", got.Title)
}

func TestTaskStore_Add_Invalid(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add(task.Task{Title: "", Prompt: "p", Frequency: task.FrequencyHourly, Provider: task.ProviderGemini})
	assert.Error(t, err)
	assert.Empty(t, s.List())
}

func TestTaskStore_Update(t *testing.T) {
	s := newTestStore(t)
	added, err := s.Add(sampleTask("before"))
	require.NoError(t, err)

	added.Title = "after"
	require.NoError(t, s.Update(added))

	got, err := s.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
}

func TestTaskStore_Update_PreservesExecutionState(t *testing.T) {
	s := newTestStore(t)
	added, _ := s.Add(sampleTask("t"))

	// An execution completes while the user holds a stale copy for editing.
	entry := task.NewHistoryEntry(time.Now(), "r", task.StatusSuccess)
	_, err := s.RecordExecution(added.ID, entry)
	require.NoError(t, err)

	stale := added // no history, no last run
	stale.Title = "edited"
	require.NoError(t, s.Update(stale))

	got, err := s.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Title)
	require.Len(t, got.History, 1, "edit must not erase execution state")
	assert.NotNil(t, got.LastRunAt)
}

func TestTaskStore_Update_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Update(sampleTask("ghost"))
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestTaskStore_Remove(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Add(sampleTask("a"))
	b, _ := s.Add(sampleTask("b"))
	c, _ := s.Add(sampleTask("c"))

	require.NoError(t, s.Remove(a.ID, c.ID))

	remaining := s.List()
	require.Len(t, remaining, 1)
	assert.Equal(t, b.ID, remaining[0].ID)

	var notFound *NotFoundError
	assert.ErrorAs(t, s.Remove("missing"), &notFound)
	assert.NoError(t, s.Remove())
}

func TestTaskStore_ToggleEnabled(t *testing.T) {
	s := newTestStore(t)
	added, _ := s.Add(sampleTask("t"))

	enabled, err := s.ToggleEnabled(added.ID)
	require.NoError(t, err)
	assert.False(t, enabled)

	enabled, err = s.ToggleEnabled(added.ID)
	require.NoError(t, err)
	assert.True(t, enabled)

	_, err = s.ToggleEnabled("missing")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestTaskStore_RecordExecution(t *testing.T) {
	s := newTestStore(t)
	added, _ := s.Add(sampleTask("t"))

	first := task.NewHistoryEntry(time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC), "first", task.StatusSuccess)
	second := task.NewHistoryEntry(time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC), "second", task.StatusFailed)

	_, err := s.RecordExecution(added.ID, first)
	require.NoError(t, err)
	updated, err := s.RecordExecution(added.ID, second)
	require.NoError(t, err)

	// Newest first.
	require.Len(t, updated.History, 2)
	assert.Equal(t, "second", updated.History[0].Result)
	assert.Equal(t, "first", updated.History[1].Result)
	assert.Equal(t, second.Timestamp, *updated.LastRunAt)
}

func TestTaskStore_RecordExecution_LastRunMonotonic(t *testing.T) {
	s := newTestStore(t)
	added, _ := s.Add(sampleTask("t"))

	late := task.NewHistoryEntry(time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC), "late", task.StatusSuccess)
	early := task.NewHistoryEntry(time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC), "early", task.StatusSuccess)

	_, err := s.RecordExecution(added.ID, late)
	require.NoError(t, err)
	updated, err := s.RecordExecution(added.ID, early)
	require.NoError(t, err)

	assert.Equal(t, late.Timestamp, *updated.LastRunAt, "last run never moves backwards")
}

func TestTaskStore_RecordExecution_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.RecordExecution("missing", task.NewHistoryEntry(time.Now(), "r", task.StatusSuccess))
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestTaskStore_PersistsAcrossLoad(t *testing.T) {
	dir := t.TempDir()
	log := testLogger(t)

	s := NewTaskStore(NewStorage(dir, log), log)
	added, err := s.Add(sampleTask("durable"))
	require.NoError(t, err)
	_, err = s.RecordExecution(added.ID, task.NewHistoryEntry(time.Now().UTC().Truncate(time.Second), "r", task.StatusSuccess))
	require.NoError(t, err)
	s.Flush()

	fresh := NewTaskStore(NewStorage(dir, log), log)
	require.NoError(t, fresh.Load())

	tasks := fresh.List()
	require.Len(t, tasks, 1)
	assert.Equal(t, added.ID, tasks[0].ID)
	require.Len(t, tasks[0].History, 1)
	assert.NotNil(t, tasks[0].LastRunAt)
}

func TestTaskStore_FlushPersistsNewestState(t *testing.T) {
	dir := t.TempDir()
	log := testLogger(t)

	s := NewTaskStore(NewStorage(dir, log), log)
	for i := 0; i < 20; i++ {
		_, err := s.Add(sampleTask("t"))
		require.NoError(t, err)
	}
	s.Flush()

	fresh := NewTaskStore(NewStorage(dir, log), log)
	require.NoError(t, fresh.Load())
	assert.Equal(t, s.List(), fresh.List(),
		"disk after flush matches in-memory state, no stale snapshot wins")
}

func TestTaskStore_ListReturnsCopies(t *testing.T) {
	s := newTestStore(t)
	added, _ := s.Add(sampleTask("t"))
	_, err := s.RecordExecution(added.ID, task.NewHistoryEntry(time.Now(), "original", task.StatusSuccess))
	require.NoError(t, err)

	list := s.List()
	list[0].Title = "mutated"
	list[0].History[0].Result = "mutated"

	got, err := s.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
	assert.Equal(t, "original", got.History[0].Result)
}

func TestTaskStore_ConcurrentWrites(t *testing.T) {
	s := newTestStore(t)
	added, _ := s.Add(sampleTask("hot"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = s.RecordExecution(added.ID, task.NewHistoryEntry(time.Now(), "r", task.StatusSuccess))
			} else {
				cp := added
				cp.Title = "edited"
				_ = s.Update(cp)
			}
		}(i)
	}
	wg.Wait()
	s.Flush()

	got, err := s.Get(added.ID)
	require.NoError(t, err)
	assert.Len(t, got.History, 25, "no lost execution records")
}

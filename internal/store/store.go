package store

import (
	"fmt"
	"sync"

	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/task"
)

// NotFoundError is returned when a mutation references a task id that no
// longer exists. It is surfaced to the caller, never swallowed.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

// TaskStore is the sole writer of the task collection. User-driven mutations
// and execution results both go through it, so writes to the same task are
// serialized. Every mutation schedules an asynchronous best-effort save;
// in-memory state stays authoritative for the running process.
type TaskStore struct {
	mu      sync.RWMutex
	tasks   []task.Task
	storage *Storage
	logger  *logger.Logger

	saveWG  sync.WaitGroup
	saveMu  sync.Mutex // orders snapshots and their writes
	saveSeq uint64     // newest snapshot taken
	wrote   uint64     // newest snapshot handed to storage
}

// NewTaskStore creates an empty store backed by the given storage.
func NewTaskStore(storage *Storage, log *logger.Logger) *TaskStore {
	return &TaskStore{
		tasks:   []task.Task{},
		storage: storage,
		logger:  log,
	}
}

// Load replaces the in-memory collection with the persisted one.
func (s *TaskStore) Load() error {
	tasks, err := s.storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()

	s.logger.Info("tasks loaded",
		logger.Field{Key: "count", Value: len(tasks)})
	return nil
}

// List returns a deep copy of all tasks in insertion order.
func (s *TaskStore) List() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Get returns a copy of the task with the given id.
func (s *TaskStore) Get(id string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return task.Task{}, &NotFoundError{ID: id}
}

// Add validates and appends a task, assigning an id if absent.
// Returns the stored task.
func (s *TaskStore) Add(t task.Task) (task.Task, error) {
	if t.ID == "" {
		t.ID = task.NewID()
	}
	if err := t.Validate(); err != nil {
		return task.Task{}, err
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, t.Clone())
	s.mu.Unlock()

	s.logger.Info("task added",
		logger.Field{Key: "task_id", Value: t.ID},
		logger.Field{Key: "title", Value: t.Title})

	s.persist()
	return t, nil
}

// Update replaces the user-editable fields of the task matching t.ID.
// History and the last-run timestamp are kept from the stored record: the
// caller's copy may predate an execution that completed in the meantime, and
// an edit must never erase execution state.
func (s *TaskStore) Update(t task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	idx := s.indexOf(t.ID)
	if idx < 0 {
		s.mu.Unlock()
		return &NotFoundError{ID: t.ID}
	}
	updated := t.Clone()
	updated.History = s.tasks[idx].History
	updated.LastRunAt = s.tasks[idx].LastRunAt
	s.tasks[idx] = updated
	s.mu.Unlock()

	s.logger.Info("task updated",
		logger.Field{Key: "task_id", Value: t.ID})

	s.persist()
	return nil
}

// Remove deletes all tasks whose ids are in the given set.
func (s *TaskStore) Remove(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	s.mu.Lock()
	kept := s.tasks[:0]
	removed := 0
	for _, t := range s.tasks {
		if idSet[t.ID] {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	s.mu.Unlock()

	if removed == 0 {
		return &NotFoundError{ID: ids[0]}
	}

	s.logger.Info("tasks removed",
		logger.Field{Key: "count", Value: removed})

	s.persist()
	return nil
}

// ToggleEnabled flips the enabled flag and returns the new state.
func (s *TaskStore) ToggleEnabled(id string) (bool, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, &NotFoundError{ID: id}
	}
	s.tasks[idx].Enabled = !s.tasks[idx].Enabled
	enabled := s.tasks[idx].Enabled
	s.mu.Unlock()

	s.logger.Info("task toggled",
		logger.Field{Key: "task_id", Value: id},
		logger.Field{Key: "enabled", Value: enabled})

	s.persist()
	return enabled, nil
}

// RecordExecution inserts the entry at the front of the task's history and
// advances the last-run timestamp. The timestamp never moves backwards even
// if entries arrive out of order. Atomic with respect to concurrent
// scheduler ticks and user edits on the same task.
func (s *TaskStore) RecordExecution(id string, entry task.HistoryEntry) (task.Task, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return task.Task{}, &NotFoundError{ID: id}
	}

	t := &s.tasks[idx]
	t.History = append([]task.HistoryEntry{entry}, t.History...)
	if t.LastRunAt == nil || entry.Timestamp.After(*t.LastRunAt) {
		ts := entry.Timestamp
		t.LastRunAt = &ts
	}
	updated := t.Clone()
	s.mu.Unlock()

	s.logger.Debug("execution recorded",
		logger.Field{Key: "task_id", Value: id},
		logger.Field{Key: "status", Value: entry.Status})

	s.persist()
	return updated, nil
}

// persist schedules an asynchronous best-effort save of the current
// collection. A failed save is logged and never surfaced to the mutator.
// Snapshots are numbered when taken and written in that order; a save
// goroutine that lost the race to a newer snapshot drops its copy, so a
// slow save can never overwrite fresher state on disk.
func (s *TaskStore) persist() {
	s.saveMu.Lock()
	s.saveSeq++
	seq := s.saveSeq
	snapshot := s.List()
	s.saveMu.Unlock()

	s.saveWG.Add(1)
	go func() {
		defer s.saveWG.Done()

		s.saveMu.Lock()
		defer s.saveMu.Unlock()
		if seq <= s.wrote {
			return
		}
		s.wrote = seq
		if err := s.storage.Save(snapshot); err != nil {
			s.logger.Error("failed to persist tasks", err,
				logger.Field{Key: "count", Value: len(snapshot)})
		}
	}()
}

// Flush blocks until all scheduled saves have finished. Used during
// shutdown and in tests.
func (s *TaskStore) Flush() {
	s.saveWG.Wait()
}

// indexOf must be called with the lock held.
func (s *TaskStore) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

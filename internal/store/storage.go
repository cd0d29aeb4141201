// Package store owns the authoritative in-memory task collection and its
// durable persistence. All task mutations in the process go through the
// TaskStore; persistence is a best-effort side effect that never blocks or
// fails a mutation.
package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/task"
)

const (
	// TasksFilename is the JSONL file holding the task collection.
	TasksFilename = "tasks.jsonl"
)

// Storage persists tasks to a JSONL file, one task per line.
// Saves are atomic: a temp file is written and renamed over the target.
type Storage struct {
	filePath string
	logger   *logger.Logger
	mu       sync.Mutex // serializes concurrent saves
}

// NewStorage creates task storage rooted at the workspace directory.
func NewStorage(workspacePath string, log *logger.Logger) *Storage {
	return &Storage{
		filePath: filepath.Join(workspacePath, TasksFilename),
		logger:   log,
	}
}

// Load reads the task collection from disk.
// Returns an empty slice if the file doesn't exist. Lines that fail to
// decode are skipped with a log entry rather than failing the whole load.
func (s *Storage) Load() ([]task.Task, error) {
	_, err := os.Stat(s.filePath)
	if os.IsNotExist(err) {
		return []task.Task{}, nil
	}
	if err != nil {
		return nil, err
	}

	file, err := os.Open(s.filePath)
	if err != nil {
		s.logger.Error("failed to open task storage", err,
			logger.Field{Key: "file", Value: s.filePath})
		return nil, err
	}
	defer file.Close()

	var tasks []task.Task
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		var t task.Task
		if err := json.Unmarshal([]byte(line), &t); err != nil {
			s.logger.Error("failed to unmarshal task line", err,
				logger.Field{Key: "file", Value: s.filePath},
				logger.Field{Key: "line", Value: lineNum})
			continue
		}
		tasks = append(tasks, t)
	}

	if err := scanner.Err(); err != nil {
		s.logger.Error("error scanning task storage", err,
			logger.Field{Key: "file", Value: s.filePath})
		return nil, err
	}

	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// Save writes the full task collection atomically.
func (s *Storage) Save(tasks []task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		s.logger.Error("failed to create storage directory", err,
			logger.Field{Key: "dir", Value: filepath.Dir(s.filePath)})
		return err
	}

	tmpPath := s.filePath + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		s.logger.Error("failed to create temporary storage file", err,
			logger.Field{Key: "file", Value: tmpPath})
		return err
	}
	defer file.Close()

	for _, t := range tasks {
		data, err := json.Marshal(t)
		if err != nil {
			s.logger.Error("failed to marshal task", err,
				logger.Field{Key: "task_id", Value: t.ID})
			return err
		}
		if _, err := file.Write(append(data, '\n')); err != nil {
			s.logger.Error("failed to write task to temporary file", err,
				logger.Field{Key: "file", Value: tmpPath})
			return err
		}
	}

	if err := file.Sync(); err != nil {
		s.logger.Error("failed to sync temporary file", err,
			logger.Field{Key: "file", Value: tmpPath})
		return err
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		s.logger.Error("failed to rename temporary file", err,
			logger.Field{Key: "from", Value: tmpPath},
			logger.Field{Key: "to", Value: s.filePath})
		return err
	}

	s.logger.Debug("tasks saved to storage",
		logger.Field{Key: "count", Value: len(tasks)},
		logger.Field{Key: "file", Value: s.filePath})

	return nil
}

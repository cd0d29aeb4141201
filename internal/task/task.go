// Package task defines the scheduled prompt model and its scheduling rules.
// A Task is a user-defined prompt bound to one LLM provider and one frequency;
// every execution attempt is recorded as an immutable history entry.
package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ProviderKind identifies one of the supported LLM providers.
type ProviderKind string

const (
	ProviderGemini   ProviderKind = "gemini"
	ProviderDeepseek ProviderKind = "deepseek"
	ProviderGrok     ProviderKind = "grok"
)

// Valid reports whether k is one of the known providers.
func (k ProviderKind) Valid() bool {
	switch k {
	case ProviderGemini, ProviderDeepseek, ProviderGrok:
		return true
	}
	return false
}

// Frequency determines how often a task becomes due.
type Frequency string

const (
	FrequencyDaily       Frequency = "daily"
	FrequencyHourly      Frequency = "hourly"
	FrequencyEveryMinute Frequency = "every_minute"

	// FrequencyCron schedules the task with a raw cron expression
	// (standard five-field syntax) carried in Task.CronExpr.
	FrequencyCron Frequency = "cron"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyHourly, FrequencyEveryMinute, FrequencyCron:
		return true
	}
	return false
}

// Status is the outcome of a single execution attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// TimeOfDay is the wall-clock time a daily task should fire after.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeOfDay parses a "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day: %q (expected HH:MM)", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	tod := TimeOfDay{Hour: hour, Minute: minute}
	if err := tod.Validate(); err != nil {
		return TimeOfDay{}, err
	}
	return tod, nil
}

// Validate checks that the time of day is within range.
func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("hour out of range: %d", t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("minute out of range: %d", t.Minute)
	}
	return nil
}

// String formats the time of day as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// HistoryEntry records the outcome of one execution attempt.
// Entries are immutable once created.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Result    string    `json:"result"`
	Status    Status    `json:"status"`
}

// NewHistoryEntry creates a history entry with a fresh ID.
func NewHistoryEntry(ts time.Time, result string, status Status) HistoryEntry {
	return HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: ts,
		Result:    result,
		Status:    status,
	}
}

// Task is a recurring prompt bound to one provider.
// History is ordered newest first; LastRunAt is set only after an execution
// attempt completes and never moves backwards.
type Task struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Frequency Frequency      `json:"frequency"`
	At        TimeOfDay      `json:"at"`                  // daily tasks only
	CronExpr  string         `json:"cron_expr,omitempty"` // cron frequency only
	Prompt    string         `json:"prompt"`
	Provider  ProviderKind   `json:"provider"`
	Enabled   bool           `json:"enabled"`
	LastRunAt *time.Time     `json:"last_run_at,omitempty"`
	History   []HistoryEntry `json:"history,omitempty"`
}

// NewID generates an opaque task identifier.
func NewID() string {
	return uuid.NewString()
}

// cronParser accepts the standard five-field syntax plus @descriptors.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks the fields a task must carry before it can be stored.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title is required")
	}
	if strings.TrimSpace(t.Prompt) == "" {
		return fmt.Errorf("task prompt is required")
	}
	if !t.Provider.Valid() {
		return fmt.Errorf("unknown provider: %q", t.Provider)
	}
	if !t.Frequency.Valid() {
		return fmt.Errorf("unknown frequency: %q", t.Frequency)
	}
	if t.Frequency == FrequencyDaily {
		if err := t.At.Validate(); err != nil {
			return fmt.Errorf("invalid scheduled time: %w", err)
		}
	}
	if t.Frequency == FrequencyCron {
		if _, err := cronParser.Parse(t.CronExpr); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", t.CronExpr, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the task. History entries are value types, so
// copying the slice is enough.
func (t Task) Clone() Task {
	out := t
	if t.LastRunAt != nil {
		ts := *t.LastRunAt
		out.LastRunAt = &ts
	}
	if t.History != nil {
		out.History = make([]HistoryEntry, len(t.History))
		copy(out.History, t.History)
	}
	return out
}

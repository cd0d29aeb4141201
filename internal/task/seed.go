package task

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// seedFile is the YAML shape accepted by `llmcron task import`.
type seedFile struct {
	Tasks []seedTask `yaml:"tasks"`
}

type seedTask struct {
	Title     string `yaml:"title"`
	Frequency string `yaml:"frequency"`
	At        string `yaml:"at"`   // "HH:MM", daily tasks
	Cron      string `yaml:"cron"` // cron frequency
	Prompt    string `yaml:"prompt"`
	Provider  string `yaml:"provider"`
	Enabled   *bool  `yaml:"enabled"` // defaults to true
}

// ParseSeed decodes a YAML seed document into validated tasks.
// Each task gets a fresh ID; history and last-run state start empty.
func ParseSeed(data []byte) ([]Task, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(file.Tasks) == 0 {
		return nil, fmt.Errorf("seed file contains no tasks")
	}

	tasks := make([]Task, 0, len(file.Tasks))
	for i, st := range file.Tasks {
		t := Task{
			ID:        NewID(),
			Title:     st.Title,
			Frequency: Frequency(st.Frequency),
			CronExpr:  st.Cron,
			Prompt:    st.Prompt,
			Provider:  ProviderKind(st.Provider),
			Enabled:   true,
		}
		if st.Enabled != nil {
			t.Enabled = *st.Enabled
		}
		if st.At != "" {
			at, err := ParseTimeOfDay(st.At)
			if err != nil {
				return nil, fmt.Errorf("task %d (%q): %w", i+1, st.Title, err)
			}
			t.At = at
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("task %d (%q): %w", i+1, st.Title, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

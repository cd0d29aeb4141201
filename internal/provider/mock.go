package provider

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dkotenko/llmcron/internal/task"
)

// Mock is a Client implementation for tests. It returns a fixed response or
// error, optionally after a simulated delay, and counts calls.
type Mock struct {
	ProviderKind task.ProviderKind
	Response     string
	Err          error
	Delay        time.Duration

	calls atomic.Int64
}

// Kind returns the configured provider kind.
func (m *Mock) Kind() task.ProviderKind {
	return m.ProviderKind
}

// Generate returns the configured response or error after the configured
// delay, honoring context cancellation during the wait.
func (m *Mock) Generate(ctx context.Context, prompt, apiKey string) (string, error) {
	m.calls.Add(1)

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Calls returns the number of Generate invocations so far.
func (m *Mock) Calls() int {
	return int(m.calls.Load())
}

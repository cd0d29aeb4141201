package provider

import (
	"fmt"

	"github.com/dkotenko/llmcron/internal/task"
)

// HTTPError is returned when a provider answers with a non-2xx status.
// The raw response body is carried as diagnostic text.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d: %s", e.StatusCode, e.Body)
}

// ParseError is returned when a 2xx response does not carry the expected
// JSON shape (missing candidates, choices, or text content).
type ParseError struct {
	Kind   task.ProviderKind
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unexpected %s response: %s", e.Kind, e.Reason)
}

// MissingCredentialError is returned by the router before any network
// attempt when the provider's API key is not configured.
type MissingCredentialError struct {
	Kind task.ProviderKind
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing API key for provider %s", e.Kind)
}

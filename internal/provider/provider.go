// Package provider normalizes the heterogeneous LLM HTTP APIs (Gemini,
// Deepseek, Grok) behind one call contract. Each client builds the
// provider-specific request, injects the auth header, parses the response
// shape and classifies failures; retry policy lives with the caller.
package provider

import (
	"context"

	"github.com/dkotenko/llmcron/internal/task"
)

// Client is the uniform contract over one external LLM API.
type Client interface {
	// Generate submits a single prompt and returns the model's text reply.
	// Errors are one of *HTTPError, *ParseError, or a transport error from
	// the underlying HTTP client (timeouts included).
	Generate(ctx context.Context, prompt, apiKey string) (string, error)

	// Kind identifies the provider this client talks to.
	Kind() task.ProviderKind
}

// Credentials holds the per-provider API keys. Keys may be empty; the engine
// treats them as read-only and never issues a request for an empty key.
type Credentials struct {
	GeminiKey   string `json:"gemini_key"`
	DeepseekKey string `json:"deepseek_key"`
	GrokKey     string `json:"grok_key"`
}

// Key returns the credential for the given provider, empty when unset.
func (c Credentials) Key(kind task.ProviderKind) string {
	switch kind {
	case task.ProviderGemini:
		return c.GeminiKey
	case task.ProviderDeepseek:
		return c.DeepseekKey
	case task.ProviderGrok:
		return c.GrokKey
	}
	return ""
}

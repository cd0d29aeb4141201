package provider

import (
	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/task"
)

const (
	// GrokEndpoint is the chat-completions URL for the xAI API.
	GrokEndpoint = "https://api.x.ai/v1/chat/completions"
	// GrokDefaultModel is used when no model is configured.
	GrokDefaultModel = "grok-3"
)

// NewGrokClient creates a Grok chat-completion client.
func NewGrokClient(cfg ChatConfig, log *logger.Logger) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = GrokEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = GrokDefaultModel
	}
	return newChatClient(task.ProviderGrok, cfg, log)
}

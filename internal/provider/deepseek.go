package provider

import (
	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/task"
)

const (
	// DeepseekEndpoint is the chat-completions URL for the Deepseek API.
	DeepseekEndpoint = "https://api.deepseek.com/chat/completions"
	// DeepseekDefaultModel is used when no model is configured.
	DeepseekDefaultModel = "deepseek-chat"
)

// NewDeepseekClient creates a Deepseek chat-completion client.
func NewDeepseekClient(cfg ChatConfig, log *logger.Logger) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DeepseekEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DeepseekDefaultModel
	}
	return newChatClient(task.ProviderDeepseek, cfg, log)
}

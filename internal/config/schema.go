// Package config provides configuration loading and validation for llmcron.
// It supports TOML configuration files with environment variable expansion,
// default values, and validation.
//
// Configuration structure:
//   - [workspace]: Data directory for tasks and credentials
//   - [scheduler]: Tick interval and provider call timeout
//   - [providers.gemini|deepseek|grok]: Per-provider API settings
//   - [logging]: Logging level, format, and output
//   - [workers]: Execution worker pool sizing
//   - [notify.telegram]: Optional Telegram result notifications
//   - [metrics]: Prometheus metrics endpoint
//
// Environment variables can be referenced using ${VAR} or ${VAR:default}
// syntax. For example: api_key = "${GEMINI_API_KEY}"
package config

import (
	"path/filepath"

	"github.com/dkotenko/llmcron/internal/provider"
	"github.com/dkotenko/llmcron/internal/task"
)

// Config represents the main application configuration.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Providers ProvidersConfig `toml:"providers"`
	Logging   LoggingConfig   `toml:"logging"`
	Workers   WorkersConfig   `toml:"workers"`
	Notify    NotifyConfig    `toml:"notify"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// WorkspaceConfig points at the directory holding tasks and credentials.
type WorkspaceConfig struct {
	Path string `toml:"path"`
}

// SchedulerConfig controls the tick loop and execution timeouts.
type SchedulerConfig struct {
	TickSeconds        int `toml:"tick_seconds"`
	CallTimeoutSeconds int `toml:"call_timeout_seconds"`
}

// ProvidersConfig holds per-provider API settings.
type ProvidersConfig struct {
	Gemini   ProviderConfig `toml:"gemini"`
	Deepseek ProviderConfig `toml:"deepseek"`
	Grok     ProviderConfig `toml:"grok"`
}

// ProviderConfig configures a single LLM provider. The API key is
// optional here: keys from the credentials store take effect when the
// config leaves them empty.
type ProviderConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LoggingConfig controls log level, format, and destination.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// WorkersConfig sizes the execution worker pool.
type WorkersConfig struct {
	PoolSize  int `toml:"pool_size"`
	QueueSize int `toml:"queue_size"`
}

// NotifyConfig groups notification channels.
type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

// TelegramConfig configures Telegram result notifications.
type TelegramConfig struct {
	Enabled bool   `toml:"enabled"`
	Token   string `toml:"token"`
	ChatID  int64  `toml:"chat_id"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// TasksDir returns the directory where task state is persisted.
func (c *Config) TasksDir() string {
	return c.Workspace.Path
}

// CredentialsPath returns the path of the credentials file.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.Workspace.Path, "credentials.json")
}

// Credentials returns the API keys declared in the config file.
func (c *Config) Credentials() provider.Credentials {
	return provider.Credentials{
		GeminiKey:   c.Providers.Gemini.APIKey,
		DeepseekKey: c.Providers.Deepseek.APIKey,
		GrokKey:     c.Providers.Grok.APIKey,
	}
}

// Provider returns the settings for the given provider kind.
func (c *Config) Provider(kind task.ProviderKind) ProviderConfig {
	switch kind {
	case task.ProviderGemini:
		return c.Providers.Gemini
	case task.ProviderDeepseek:
		return c.Providers.Deepseek
	case task.ProviderGrok:
		return c.Providers.Grok
	}
	return ProviderConfig{}
}

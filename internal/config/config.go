package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dkotenko/llmcron/internal/provider"
)

// Load reads a TOML config file, applies defaults, and expands
// environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	expandEnvVars(&cfg)

	return &cfg, nil
}

// Default returns a configuration populated entirely from defaults,
// for running without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	expandEnvVars(cfg)
	return cfg
}

// Validate checks the configuration and returns all problems found.
func (c *Config) Validate() []error {
	var errors []error

	if c.Workspace.Path == "" {
		errors = append(errors, fmt.Errorf("workspace.path is required"))
	} else if err := validatePath(c.Workspace.Path, "workspace.path"); err != nil {
		errors = append(errors, err)
	}

	if c.Scheduler.TickSeconds < 1 {
		errors = append(errors, fmt.Errorf("scheduler.tick_seconds must be >= 1 (got %d)", c.Scheduler.TickSeconds))
	}
	if c.Scheduler.CallTimeoutSeconds < 1 {
		errors = append(errors, fmt.Errorf("scheduler.call_timeout_seconds must be >= 1 (got %d)", c.Scheduler.CallTimeoutSeconds))
	}

	for _, p := range []struct {
		name string
		cfg  ProviderConfig
	}{
		{"gemini", c.Providers.Gemini},
		{"deepseek", c.Providers.Deepseek},
		{"grok", c.Providers.Grok},
	} {
		if p.cfg.APIKey != "" {
			if err := validateAPIKey(p.cfg.APIKey, "providers."+p.name+".api_key"); err != nil {
				errors = append(errors, err)
			}
		}
		if p.cfg.TimeoutSeconds < 1 {
			errors = append(errors, fmt.Errorf("providers.%s.timeout_seconds must be >= 1 (got %d)", p.name, p.cfg.TimeoutSeconds))
		}
	}

	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	if c.Workers.PoolSize < 1 {
		errors = append(errors, fmt.Errorf("workers.pool_size must be >= 1 (got %d)", c.Workers.PoolSize))
	}
	if c.Workers.QueueSize < 1 {
		errors = append(errors, fmt.Errorf("workers.queue_size must be >= 1 (got %d)", c.Workers.QueueSize))
	}

	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.Token == "" {
			errors = append(errors, fmt.Errorf("notify.telegram.token is required when telegram is enabled"))
		} else if err := validateTelegramToken(c.Notify.Telegram.Token); err != nil {
			errors = append(errors, err)
		}
		if c.Notify.Telegram.ChatID == 0 {
			errors = append(errors, fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled"))
		}
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errors = append(errors, fmt.Errorf("metrics.listen is required when metrics are enabled"))
	}

	return errors
}

func validateAPIKey(key, fieldName string) error {
	if key == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if len(key) < 10 {
		return fmt.Errorf("%s is too short (minimum 10 characters, got %d)", fieldName, len(key))
	}

	return nil
}

func validateTelegramToken(token string) error {
	if token == "" {
		return fmt.Errorf("telegram token cannot be empty")
	}

	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return fmt.Errorf("telegram token has invalid format (expected format: <bot_id>:<token>, got: %s)", maskSecret(token))
	}

	botID := parts[0]
	botToken := parts[1]

	if len(botID) < 3 || len(botID) > 15 {
		return fmt.Errorf("telegram token has invalid bot ID length (expected 3-15 digits, got %d digits)", len(botID))
	}

	for _, r := range botID {
		if r < '0' || r > '9' {
			return fmt.Errorf("telegram token has invalid bot ID (expected digits only, got: %s)", botID)
		}
	}

	if len(botToken) < 10 || len(botToken) > 50 {
		return fmt.Errorf("telegram token has invalid token length (expected 10-50 characters, got %d)", len(botToken))
	}

	return nil
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if strings.HasPrefix(path, "~") {
		return nil
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}

	return nil
}

func applyDefaults(c *Config) {
	if c.Workspace.Path == "" {
		c.Workspace.Path = "~/.llmcron"
	}

	if c.Scheduler.TickSeconds == 0 {
		c.Scheduler.TickSeconds = 60
	}
	if c.Scheduler.CallTimeoutSeconds == 0 {
		c.Scheduler.CallTimeoutSeconds = 90
	}

	if c.Providers.Gemini.BaseURL == "" {
		c.Providers.Gemini.BaseURL = provider.GeminiBaseURL
	}
	if c.Providers.Gemini.Model == "" {
		c.Providers.Gemini.Model = provider.GeminiDefaultModel
	}
	if c.Providers.Deepseek.BaseURL == "" {
		c.Providers.Deepseek.BaseURL = provider.DeepseekEndpoint
	}
	if c.Providers.Deepseek.Model == "" {
		c.Providers.Deepseek.Model = provider.DeepseekDefaultModel
	}
	if c.Providers.Grok.BaseURL == "" {
		c.Providers.Grok.BaseURL = provider.GrokEndpoint
	}
	if c.Providers.Grok.Model == "" {
		c.Providers.Grok.Model = provider.GrokDefaultModel
	}
	for _, p := range []*ProviderConfig{&c.Providers.Gemini, &c.Providers.Deepseek, &c.Providers.Grok} {
		if p.TimeoutSeconds == 0 {
			p.TimeoutSeconds = 60
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Workers.PoolSize == 0 {
		c.Workers.PoolSize = 8
	}
	if c.Workers.QueueSize == 0 {
		c.Workers.QueueSize = 64
	}

	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9090"
	}
}

func expandEnvVars(c *Config) {
	for _, p := range []*ProviderConfig{&c.Providers.Gemini, &c.Providers.Deepseek, &c.Providers.Grok} {
		if strings.HasPrefix(p.APIKey, "${") {
			p.APIKey = expandEnv(p.APIKey)
		}
	}

	if strings.HasPrefix(c.Notify.Telegram.Token, "${") {
		c.Notify.Telegram.Token = expandEnv(c.Notify.Telegram.Token)
	}

	if strings.HasPrefix(c.Workspace.Path, "${") {
		c.Workspace.Path = expandEnv(c.Workspace.Path)
	}
	c.Workspace.Path = expandHome(c.Workspace.Path)
}

// expandEnv expands an environment variable reference of the form
// ${VAR} or ${VAR:default}.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val
		}
		return defaultVal
	}

	return os.Getenv(s[2:end])
}

// expandHome expands a leading ~ in a path.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

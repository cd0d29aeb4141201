package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/provider"
	"github.com/dkotenko/llmcron/internal/task"
)

const (
	// CredentialsFilename holds the provider API keys, written with 0600.
	CredentialsFilename = "credentials.json"
)

// CredentialsStore persists the per-provider API keys. The engine only reads
// from it; writes come from the configuration surface (CLI).
type CredentialsStore struct {
	filePath string
	logger   *logger.Logger

	mu    sync.RWMutex
	creds provider.Credentials
}

// NewCredentialsStore creates credential storage rooted at the workspace
// directory.
func NewCredentialsStore(workspacePath string, log *logger.Logger) *CredentialsStore {
	return &CredentialsStore{
		filePath: filepath.Join(workspacePath, CredentialsFilename),
		logger:   log,
	}
}

// Load reads the credentials file. A missing file leaves all keys empty.
func (s *CredentialsStore) Load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds provider.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("failed to parse credentials file: %w", err)
	}

	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	return nil
}

// Credentials returns the current credential snapshot.
func (s *CredentialsStore) Credentials() provider.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// SetKey updates one provider's API key and saves synchronously. Unlike task
// saves this is not fire-and-forget: losing a just-entered key is the one
// persistence failure the user would notice.
func (s *CredentialsStore) SetKey(kind task.ProviderKind, key string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown provider: %q", kind)
	}

	s.mu.Lock()
	switch kind {
	case task.ProviderGemini:
		s.creds.GeminiKey = key
	case task.ProviderDeepseek:
		s.creds.DeepseekKey = key
	case task.ProviderGrok:
		s.creds.GrokKey = key
	}
	creds := s.creds
	s.mu.Unlock()

	return s.save(creds)
}

// Merge fills in any keys that are empty in the store from the given
// credentials. Used to seed from config-file keys without clobbering keys
// entered through the CLI.
func (s *CredentialsStore) Merge(creds provider.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds.GeminiKey == "" {
		s.creds.GeminiKey = creds.GeminiKey
	}
	if s.creds.DeepseekKey == "" {
		s.creds.DeepseekKey = creds.DeepseekKey
	}
	if s.creds.GrokKey == "" {
		s.creds.GrokKey = creds.GrokKey
	}
}

func (s *CredentialsStore) save(creds provider.Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	s.logger.Info("credentials saved",
		logger.Field{Key: "file", Value: s.filePath})
	return nil
}

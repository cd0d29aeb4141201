package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `
# comment line
LLMCRON_ENV_A=alpha
LLMCRON_ENV_B = beta

not-a-pair
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LLMCRON_ENV_A", "")
	t.Setenv("LLMCRON_ENV_B", "")

	if err := LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}

	if got := os.Getenv("LLMCRON_ENV_A"); got != "alpha" {
		t.Errorf("Expected LLMCRON_ENV_A=alpha, got %q", got)
	}
	if got := os.Getenv("LLMCRON_ENV_B"); got != "beta" {
		t.Errorf("Expected LLMCRON_ENV_B=beta, got %q", got)
	}
}

func TestLoadEnvOptional(t *testing.T) {
	if err := LoadEnvOptional(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("Expected missing file to be ignored, got %v", err)
	}
}

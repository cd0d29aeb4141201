package main

import (
	"fmt"
	"os"

	"github.com/dkotenko/llmcron/internal/config"
	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/store"
	"github.com/dkotenko/llmcron/internal/task"
	"github.com/dkotenko/llmcron/internal/workspace"
	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate configuration and manage provider API keys.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file and check for errors.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log, err := logger.New(logger.Config{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}

		configPath := "./config.toml"
		if len(args) > 0 {
			configPath = args[0]
		}

		log.Info("Validating configuration", logger.Field{Key: "path", Value: configPath})

		cfg, err := config.Load(configPath)
		if err != nil {
			log.Error("Failed to load config", err)
			os.Exit(1)
		}

		errors := cfg.Validate()
		if len(errors) > 0 {
			log.Error("Config validation failed", fmt.Errorf("%d errors", len(errors)))
			for _, e := range errors {
				log.Error("Validation error", e)
			}
			os.Exit(1)
		}

		log.Info("Configuration is valid")
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with masked secrets",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, creds := mustOpenCredentials()

		fmt.Printf("Workspace:  %s\n", cfg.Workspace.Path)
		fmt.Printf("Tick:       %ds\n", cfg.Scheduler.TickSeconds)
		fmt.Printf("Timeout:    %ds\n", cfg.Scheduler.CallTimeoutSeconds)
		fmt.Println("Providers:")
		for _, kind := range []task.ProviderKind{task.ProviderGemini, task.ProviderDeepseek, task.ProviderGrok} {
			p := cfg.Provider(kind)
			key := creds.Credentials().Key(kind)
			keyDisplay := "(not set)"
			if key != "" {
				keyDisplay = config.MaskAPIKey(key)
			}
			fmt.Printf("  %-9s model=%s key=%s\n", kind, p.Model, keyDisplay)
		}
		if cfg.Notify.Telegram.Enabled {
			fmt.Printf("Telegram:   enabled, token=%s chat_id=%d\n",
				config.MaskTelegramToken(cfg.Notify.Telegram.Token), cfg.Notify.Telegram.ChatID)
		}
		if cfg.Metrics.Enabled {
			fmt.Printf("Metrics:    %s\n", cfg.Metrics.Listen)
		}
	},
}

// configSetKeyCmd represents the config set-key command
var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <provider> <api-key>",
	Short: "Store an API key for a provider",
	Long: `Store an API key in the credentials file inside the workspace.
The provider must be one of: gemini, deepseek, grok. The credentials
file is written with 0600 permissions.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		kind := task.ProviderKind(args[0])
		if !kind.Valid() {
			fmt.Fprintf(os.Stderr, "Unknown provider: %s (expected: gemini, deepseek, grok)\n", args[0])
			os.Exit(1)
		}

		_, creds := mustOpenCredentials()
		if err := creds.SetKey(kind, args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to store key: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Stored API key for %s (%s)\n", kind, config.MaskAPIKey(args[1]))
	},
}

// mustOpenCredentials loads the effective config and opens the
// credentials store inside its workspace.
func mustOpenCredentials() (*config.Config, *store.CredentialsStore) {
	cfg := loadConfigOrDefaults()

	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ws := workspace.New(cfg.Workspace)
	if err := ws.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create workspace: %v\n", err)
		os.Exit(1)
	}

	creds := store.NewCredentialsStore(ws.Path(), log)
	if err := creds.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load credentials: %v\n", err)
		os.Exit(1)
	}
	creds.Merge(cfg.Credentials())

	return cfg, creds
}

// loadConfigOrDefaults loads ./config.toml when present, otherwise
// built-in defaults. The --workspace flag on the task command also
// funnels through here.
func loadConfigOrDefaults() *config.Config {
	_ = config.LoadEnvOptional("./.env")

	const defaultPath = "./config.toml"
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}

	return config.Default()
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetKeyCmd)
}

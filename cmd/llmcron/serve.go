package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkotenko/llmcron/internal/app"
	"github.com/dkotenko/llmcron/internal/config"
	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveLogLevel   string
	serveWorkspace  string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the llmcron scheduler (main command)",
	Long: `Start the llmcron scheduler with the specified configuration.
This loads persisted tasks, starts the tick loop, and handles graceful
shutdown on SIGINT/SIGTERM. Due tasks are executed against their
configured provider and results are appended to the task history.`,
	Run: serveHandler,
}

// loadServeConfig resolves the effective configuration for serve. An
// explicitly passed config path must exist; the default path is used
// only when present, falling back to built-in defaults otherwise.
func loadServeConfig() (*config.Config, string, error) {
	if err := config.LoadEnvOptional("./.env"); err != nil {
		return nil, "", fmt.Errorf("failed to load .env: %w", err)
	}

	if serveConfigPath != "" {
		cfg, err := config.Load(serveConfigPath)
		return cfg, serveConfigPath, err
	}

	const defaultPath = "./config.toml"
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		return cfg, defaultPath, err
	}

	return config.Default(), "(defaults)", nil
}

func serveHandler(cmd *cobra.Command, args []string) {
	cfg, configPath, err := loadServeConfig()
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}
	if serveWorkspace != "" {
		cfg.Workspace.Path = serveWorkspace
	}

	if errors := cfg.Validate(); len(errors) > 0 {
		fmt.Printf("❌ Configuration validation failed:\n")
		for _, e := range errors {
			fmt.Printf("  - %v\n", e)
		}
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Printf("❌ Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	log.Info("🚀 Starting llmcron",
		logger.Field{Key: "version", Value: Version},
		logger.Field{Key: "git_commit", Value: GitCommit},
		logger.Field{Key: "config", Value: configPath},
		logger.Field{Key: "workspace", Value: cfg.Workspace.Path},
		logger.Field{Key: "tick_seconds", Value: cfg.Scheduler.TickSeconds},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, log)
	if err := a.Run(ctx); err != nil {
		log.Error("application failed", err)
		os.Exit(1)
	}

	log.Info("👋 llmcron stopped gracefully")
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	serveCmd.Flags().StringVarP(&serveLogLevel, "log-level", "l", "", "Override log level (debug, info, warn, error)")
	serveCmd.Flags().StringVarP(&serveWorkspace, "workspace", "w", "", "Path to workspace directory (overrides config)")
}

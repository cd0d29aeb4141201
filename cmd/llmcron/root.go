package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "llmcron",
	Short: "llmcron - Recurring LLM prompt scheduler",
	Long: `llmcron runs recurring prompts against LLM providers (Gemini,
Deepseek, Grok) on a schedule and keeps a history of the results.`,
	Version: Version,
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(taskCmd)
}

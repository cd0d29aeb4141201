package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dkotenko/llmcron/internal/logger"
	"github.com/dkotenko/llmcron/internal/pipeline"
	"github.com/dkotenko/llmcron/internal/provider"
	"github.com/dkotenko/llmcron/internal/store"
	"github.com/dkotenko/llmcron/internal/task"
	"github.com/dkotenko/llmcron/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	taskWorkspace string

	addTitle     string
	addFrequency string
	addTime      string
	addCron      string
	addPrompt    string
	addProvider  string
	addDisabled  bool

	historyLimit int
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage scheduled prompt tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tasks",
	Run:   runTaskList,
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a task",
	Long: `Add a recurring prompt task.

Examples:
  llmcron task add --title "Morning digest" --frequency daily --time 09:00 \
      --prompt "Summarize today's tech news" --provider gemini
  llmcron task add --title "Ping" --frequency every_minute --prompt "ping" --provider grok
  llmcron task add --title "Weekly" --frequency cron --cron "0 9 * * MON" \
      --prompt "Weekly review" --provider deepseek`,
	Run: runTaskAdd,
}

var taskRemoveCmd = &cobra.Command{
	Use:   "remove <task-id> [task-id...]",
	Short: "Remove one or more tasks",
	Args:  cobra.MinimumNArgs(1),
	Run:   runTaskRemove,
}

var taskToggleCmd = &cobra.Command{
	Use:   "toggle <task-id>",
	Short: "Enable or disable a task",
	Args:  cobra.ExactArgs(1),
	Run:   runTaskToggle,
}

var taskRunCmd = &cobra.Command{
	Use:   "run <task-id>",
	Short: "Execute a task immediately",
	Long: `Execute a task immediately, regardless of its schedule or enabled
state. The result is recorded in the task history exactly like a
scheduled run.`,
	Args: cobra.ExactArgs(1),
	Run:  runTaskRun,
}

var taskHistoryCmd = &cobra.Command{
	Use:   "history <task-id>",
	Short: "Show the execution history of a task",
	Args:  cobra.ExactArgs(1),
	Run:   runTaskHistory,
}

var taskImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import tasks from a YAML file",
	Args:  cobra.ExactArgs(1),
	Run:   runTaskImport,
}

// openTaskStore opens the task store inside the configured workspace.
func openTaskStore() (*store.TaskStore, *logger.Logger) {
	cfg := loadConfigOrDefaults()
	if taskWorkspace != "" {
		cfg.Workspace.Path = taskWorkspace
	}

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

	tasks := store.NewTaskStore(store.NewStorage(ws.Path(), log), log)
	if err := tasks.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load tasks: %v\n", err)
		os.Exit(1)
	}

	return tasks, log
}

func runTaskList(cmd *cobra.Command, args []string) {
	tasks, _ := openTaskStore()

	list := tasks.List()
	if len(list) == 0 {
		fmt.Println("No tasks found")
		return
	}

	for _, t := range list {
		state := "enabled"
		if !t.Enabled {
			state = "disabled"
		}
		lastRun := "never"
		if t.LastRunAt != nil {
			lastRun = t.LastRunAt.Format(time.RFC3339)
		}

		fmt.Printf("ID:        %s\n", t.ID)
		fmt.Printf("Title:     %s\n", t.Title)
		fmt.Printf("Schedule:  %s\n", describeSchedule(t))
		fmt.Printf("Provider:  %s\n", t.Provider)
		fmt.Printf("State:     %s\n", state)
		fmt.Printf("Last run:  %s\n", lastRun)
		fmt.Printf("Runs:      %d\n", len(t.History))
		fmt.Println("---")
	}
	fmt.Printf("Total: %d tasks\n", len(list))
}

func describeSchedule(t task.Task) string {
	switch t.Frequency {
	case task.FrequencyDaily:
		return fmt.Sprintf("daily at %s", t.At)
	case task.FrequencyCron:
		return fmt.Sprintf("cron %q", t.CronExpr)
	default:
		return string(t.Frequency)
	}
}

func runTaskAdd(cmd *cobra.Command, args []string) {
	tasks, _ := openTaskStore()

	t := task.Task{
		Title:     addTitle,
		Frequency: task.Frequency(addFrequency),
		CronExpr:  addCron,
		Prompt:    addPrompt,
		Provider:  task.ProviderKind(addProvider),
		Enabled:   !addDisabled,
	}

	if addTime != "" {
		at, err := task.ParseTimeOfDay(addTime)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --time: %v\n", err)
			os.Exit(1)
		}
		t.At = at
	}

	added, err := tasks.Add(t)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to add task: %v\n", err)
		os.Exit(1)
	}
	tasks.Flush()

	fmt.Println("Task added")
	fmt.Printf("ID:       %s\n", added.ID)
	fmt.Printf("Schedule: %s\n", describeSchedule(added))
	fmt.Printf("Provider: %s\n", added.Provider)
}

func runTaskRemove(cmd *cobra.Command, args []string) {
	tasks, _ := openTaskStore()

	if err := tasks.Remove(args...); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to remove: %v\n", err)
		os.Exit(1)
	}
	tasks.Flush()

	fmt.Printf("Removed %d task(s)\n", len(args))
}

func runTaskToggle(cmd *cobra.Command, args []string) {
	tasks, _ := openTaskStore()

	enabled, err := tasks.ToggleEnabled(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to toggle: %v\n", err)
		os.Exit(1)
	}
	tasks.Flush()

	if enabled {
		fmt.Printf("Task %s enabled\n", args[0])
	} else {
		fmt.Printf("Task %s disabled\n", args[0])
	}
}

func runTaskRun(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrDefaults()
	if taskWorkspace != "" {
		cfg.Workspace.Path = taskWorkspace
	}

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

	tasks := store.NewTaskStore(store.NewStorage(ws.Path(), log), log)
	if err := tasks.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load tasks: %v\n", err)
		os.Exit(1)
	}

	t, err := tasks.Get(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Task not found: %v\n", err)
		os.Exit(1)
	}

	creds := store.NewCredentialsStore(ws.Path(), log)
	if err := creds.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load credentials: %v\n", err)
		os.Exit(1)
	}
	creds.Merge(cfg.Credentials())

	router := provider.NewRouter(
		provider.NewGeminiClient(provider.GeminiConfig{
			BaseURL:        cfg.Providers.Gemini.BaseURL,
			Model:          cfg.Providers.Gemini.Model,
			TimeoutSeconds: cfg.Providers.Gemini.TimeoutSeconds,
		}, log),
		provider.NewDeepseekClient(provider.ChatConfig{
			BaseURL:        cfg.Providers.Deepseek.BaseURL,
			Model:          cfg.Providers.Deepseek.Model,
			TimeoutSeconds: cfg.Providers.Deepseek.TimeoutSeconds,
		}, log),
		provider.NewGrokClient(provider.ChatConfig{
			BaseURL:        cfg.Providers.Grok.BaseURL,
			Model:          cfg.Providers.Grok.Model,
			TimeoutSeconds: cfg.Providers.Grok.TimeoutSeconds,
		}, log),
	)

	pipe := pipeline.New(pipeline.Config{
		Store:       tasks,
		Router:      router,
		Credentials: creds,
		Logger:      log,
		CallTimeout: time.Duration(cfg.Scheduler.CallTimeoutSeconds) * time.Second,
	})

	fmt.Printf("Running task %q against %s...\n", t.Title, t.Provider)

	updated, err := pipe.Run(context.Background(), t)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Execution could not be recorded: %v\n", err)
		os.Exit(1)
	}
	tasks.Flush()

	entry := updated.History[0]
	fmt.Printf("Status: %s\n", entry.Status)
	fmt.Println("---")
	fmt.Println(entry.Result)
}

func runTaskHistory(cmd *cobra.Command, args []string) {
	tasks, _ := openTaskStore()

	t, err := tasks.Get(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Task not found: %v\n", err)
		os.Exit(1)
	}

	if len(t.History) == 0 {
		fmt.Println("No executions yet")
		return
	}

	entries := t.History
	if historyLimit > 0 && len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}

	for _, e := range entries {
		fmt.Printf("[%s] %s\n", e.Timestamp.Format(time.RFC3339), e.Status)
		fmt.Println(e.Result)
		fmt.Println("---")
	}
	fmt.Printf("Showing %d of %d executions\n", len(entries), len(t.History))
}

func runTaskImport(cmd *cobra.Command, args []string) {
	tasks, _ := openTaskStore()

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}

	imported, err := task.ParseSeed(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse seed file: %v\n", err)
		os.Exit(1)
	}

	added := 0
	for _, t := range imported {
		if _, err := tasks.Add(t); err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %q: %v\n", t.Title, err)
			continue
		}
		added++
	}
	tasks.Flush()

	fmt.Printf("Imported %d of %d tasks\n", added, len(imported))
}

func init() {
	taskCmd.PersistentFlags().StringVarP(&taskWorkspace, "workspace", "w", "", "Path to workspace directory (overrides config)")

	taskAddCmd.Flags().StringVar(&addTitle, "title", "", "Task title (required)")
	taskAddCmd.Flags().StringVar(&addFrequency, "frequency", "", "Frequency: daily, hourly, every_minute, cron (required)")
	taskAddCmd.Flags().StringVar(&addTime, "time", "", "Time of day HH:MM (daily frequency)")
	taskAddCmd.Flags().StringVar(&addCron, "cron", "", "Cron expression (cron frequency)")
	taskAddCmd.Flags().StringVar(&addPrompt, "prompt", "", "Prompt text (required)")
	taskAddCmd.Flags().StringVar(&addProvider, "provider", "", "Provider: gemini, deepseek, grok (required)")
	taskAddCmd.Flags().BoolVar(&addDisabled, "disabled", false, "Create the task disabled")

	taskHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of entries to show (0 = all)")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskRemoveCmd)
	taskCmd.AddCommand(taskToggleCmd)
	taskCmd.AddCommand(taskRunCmd)
	taskCmd.AddCommand(taskHistoryCmd)
	taskCmd.AddCommand(taskImportCmd)
}

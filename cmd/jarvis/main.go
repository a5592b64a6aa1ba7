// Package main is the entry point for the jarvis CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/agentbryce2025/jarvis-ai/internal/config"
	"github.com/agentbryce2025/jarvis-ai/internal/planner"
	"github.com/agentbryce2025/jarvis-ai/internal/replay"
	"github.com/agentbryce2025/jarvis-ai/internal/session"
	"github.com/agentbryce2025/jarvis-ai/internal/setup"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func init() {
	// Load .env for API keys and other env vars
	_ = godotenv.Load()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("jarvis"),
		kong.Description("Task execution engine with security-gated command execution"),
		kong.UsageOnError(),
		kongVars(),
	)
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// Run plans the task and executes it end to end.
func (c *RunCmd) Run() error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.ReplanRounds > 0 {
		cfg.Planner.MaxReplanRounds = c.ReplanRounds
	}
	if c.Policy != "" {
		cfg.Security.PolicyFile = c.Policy
	}

	rt := newRuntime(cfg)
	if err := rt.setup(); err != nil {
		return err
	}
	defer rt.close()

	// SIGINT aborts between steps; the executor always waits on a child
	// process that is already running.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	taskCtx := make(map[string]interface{}, len(c.Context))
	for k, v := range c.Context {
		taskCtx[k] = v
	}

	taskID, err := rt.engine.Create(ctx, c.Description, taskCtx)
	if err != nil {
		return fmt.Errorf("planning task: %w", err)
	}
	fmt.Printf("task %s: %d steps planned\n", taskID, mustStepCount(rt.engine, taskID))

	result, err := rt.engine.Run(ctx, taskID)
	if err != nil {
		return err
	}

	if c.JSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		printResult(taskID, result)
	}

	if c.Audit {
		printAudit(rt)
	}

	if result.Status == planner.RunFailed {
		return fmt.Errorf("task failed: %s", result.Err)
	}
	return nil
}

func mustStepCount(engine *planner.Engine, taskID string) int {
	task, err := engine.Get(taskID)
	if err != nil {
		return 0
	}
	return task.StepCount()
}

func printResult(taskID string, result planner.RunResult) {
	for i, step := range result.Results {
		fmt.Printf("\n[%d/%d] %s\n", i+1, len(result.Results), step.Action)
		if step.Thought != "" {
			fmt.Printf("  thought:     %s\n", step.Thought)
		}
		fmt.Printf("  observation: %s\n", indentExtra(step.Observation))
		fmt.Printf("  reflection:  %s\n", indentExtra(step.Reflection))
	}
	fmt.Printf("\ntask %s: %s (%d steps)\n", taskID, result.Status, len(result.Results))
}

// indentExtra keeps multi-line observations aligned under their label.
func indentExtra(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n               ")
}

func printAudit(rt *runtime) {
	entries := rt.exec.History(0)
	fmt.Printf("\naudit trail (%d entries):\n", len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("  %s  %-18s  %s", e.Timestamp.Format("15:04:05"), e.Status, e.Action)
		if e.Reason != "" {
			line += "  (" + e.Reason + ")"
		}
		fmt.Println(line)
	}
}

// Run reports the latest recorded run status for a task.
func (c *StatusCmd) Run() error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	mgr, err := session.NewManager(filepath.Join(cfg.StoragePath(), "sessions"))
	if err != nil {
		return err
	}
	paths, err := mgr.List()
	if err != nil {
		return err
	}
	// Newest last; the latest run for the task wins.
	var latest *session.Session
	for _, p := range paths {
		s, err := session.Load(p)
		if err != nil {
			continue
		}
		if s.TaskID == c.TaskID {
			latest = s
		}
	}
	if latest == nil {
		return fmt.Errorf("no recorded session for task %s", c.TaskID)
	}
	fmt.Printf("task %s: %s (%d events, last update %s)\n",
		latest.TaskID, latest.Status, len(latest.Events),
		latest.UpdatedAt.Format("2006-01-02 15:04:05"))
	if latest.Error != "" {
		fmt.Printf("error: %s\n", latest.Error)
	}
	return nil
}

// Run lists recorded sessions.
func (c *HistoryCmd) Run() error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	mgr, err := session.NewManager(filepath.Join(cfg.StoragePath(), "sessions"))
	if err != nil {
		return err
	}
	paths, err := mgr.List()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println("no sessions recorded")
		return nil
	}
	for _, p := range paths {
		s, err := session.Load(p)
		if err != nil {
			fmt.Printf("%s  (unreadable: %v)\n", p, err)
			continue
		}
		fmt.Printf("%s  %s  %-8s  %s\n",
			s.CreatedAt.Format("2006-01-02 15:04:05"), s.ID, s.Status, s.Description)
	}
	return nil
}

// Run renders a recorded session.
func (c *ReplayCmd) Run() error {
	path := c.Session
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Not a path; resolve as a session id under the storage directory.
		cfg, cfgErr := loadConfig(c.Config)
		if cfgErr != nil {
			return cfgErr
		}
		mgr, mgrErr := session.NewManager(filepath.Join(cfg.StoragePath(), "sessions"))
		if mgrErr != nil {
			return mgrErr
		}
		path = mgr.Path(c.Session)
	}
	r := replay.New(os.Stdout, replay.WithVerbosity(c.Verbose))
	return r.RenderFile(path)
}

// Run starts the setup wizard.
func (c *SetupCmd) Run() error {
	return setup.Run()
}

// Run prints version information.
func (c *VersionCmd) Run() error {
	fmt.Printf("jarvis version %s (commit: %s, built: %s)\n", version, commit, buildTime)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadDefault()
}

// Package main provides runtime component wiring for the run command.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/telemetry"

	"github.com/agentbryce2025/jarvis-ai/internal/bus"
	"github.com/agentbryce2025/jarvis-ai/internal/config"
	"github.com/agentbryce2025/jarvis-ai/internal/executor"
	"github.com/agentbryce2025/jarvis-ai/internal/planner"
	"github.com/agentbryce2025/jarvis-ai/internal/policy"
	"github.com/agentbryce2025/jarvis-ai/internal/session"
)

// runtime wires configuration into the engine and its collaborators.
type runtime struct {
	cfg *config.Config

	provider llm.Provider
	rules    executor.Source
	exec     *executor.Executor
	events   bus.Publisher
	telem    telemetry.Exporter
	sessions *session.Manager
	engine   *planner.Engine

	closers []func()
}

func newRuntime(cfg *config.Config) *runtime {
	return &runtime{cfg: cfg, events: bus.Nop{}}
}

func (rt *runtime) addCloser(f func()) {
	rt.closers = append(rt.closers, f)
}

// close tears down components in reverse setup order.
func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// setup initializes all runtime components. Returns error on failure.
func (rt *runtime) setup() error {
	storagePath := rt.cfg.StoragePath()
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}

	if err := rt.setupTelemetry(); err != nil {
		return err
	}
	if err := rt.setupPolicy(); err != nil {
		return err
	}
	if err := rt.setupBus(); err != nil {
		return err
	}
	if err := rt.createProvider(); err != nil {
		return err
	}
	if err := rt.setupSessions(storagePath); err != nil {
		return err
	}

	rt.exec = executor.New(rt.rules, executor.WithSink(rt.events))
	rt.engine = planner.NewEngine(
		planner.NewStore(),
		rt.exec,
		planner.NewLLMOracle(rt.provider),
		planner.NewEvaluator(rt.provider),
		planner.WithMaxReplanRounds(rt.cfg.Planner.MaxReplanRounds),
		planner.WithEvents(rt.events),
		planner.WithSessions(rt.sessions),
	)
	return nil
}

// setupTelemetry creates the telemetry exporter.
func (rt *runtime) setupTelemetry() error {
	var err error
	if rt.cfg.Telemetry.Enabled {
		rt.telem, err = telemetry.NewExporter(rt.cfg.Telemetry.Protocol, rt.cfg.Telemetry.Endpoint)
		if err != nil {
			return fmt.Errorf("creating telemetry exporter: %w", err)
		}
	} else {
		rt.telem = telemetry.NewNoopExporter()
	}
	rt.addCloser(func() { rt.telem.Close() })
	return nil
}

// setupPolicy loads the rule set, hot-reloading when a policy file is set.
func (rt *runtime) setupPolicy() error {
	sec := rt.cfg.Security
	if sec.PolicyFile == "" {
		rt.rules = policy.NewRules(sec.CommandBlocklist, sec.AllowedPaths, sec.MaxRuntime)
		return nil
	}
	watcher, err := policy.NewWatcher(sec.PolicyFile)
	if err != nil {
		return fmt.Errorf("loading policy file: %w", err)
	}
	rt.addCloser(func() { _ = watcher.Close() })
	rt.rules = watcher
	return nil
}

// setupBus connects to the message fabric when configured.
func (rt *runtime) setupBus() error {
	if rt.cfg.Bus.URL == "" {
		return nil
	}
	conn, err := bus.Connect(rt.cfg.Bus.URL, rt.cfg.Bus.SubjectPrefix)
	if err != nil {
		return fmt.Errorf("connecting to message bus: %w", err)
	}
	rt.addCloser(conn.Close)
	rt.events = conn
	return nil
}

// createProvider creates the planner-oracle LLM provider.
func (rt *runtime) createProvider() error {
	llmProvider := rt.cfg.LLM.Provider
	if llmProvider == "" {
		llmProvider = llm.InferProviderFromModel(rt.cfg.LLM.Model)
	}
	if llmProvider == "" && rt.cfg.LLM.Model == "" {
		return fmt.Errorf("LLM model not configured; run 'jarvis setup' first")
	}

	var err error
	rt.provider, err = llm.NewProvider(llm.ProviderConfig{
		Provider:  llmProvider,
		Model:     rt.cfg.LLM.Model,
		APIKey:    rt.cfg.GetAPIKey(),
		MaxTokens: rt.cfg.LLM.MaxTokens,
		BaseURL:   rt.cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}
	return nil
}

// setupSessions creates the forensic session log manager.
func (rt *runtime) setupSessions(storagePath string) error {
	mgr, err := session.NewManager(filepath.Join(storagePath, "sessions"))
	if err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	rt.sessions = mgr
	return nil
}

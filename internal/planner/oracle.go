package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/logging"
)

// PlannedStep is one {action, thought} pair produced by the planner oracle.
type PlannedStep struct {
	Action  string
	Thought string
}

// StepResult is the per-step record returned to the caller and fed back to
// the oracle during replanning.
type StepResult struct {
	Action      string `json:"action"`
	Thought     string `json:"thought"`
	Observation string `json:"observation"`
	Reflection  string `json:"reflection"`
}

// Oracle is the external planning service. GeneratePlan must yield at least
// one step; Replan may return an empty list.
type Oracle interface {
	GeneratePlan(ctx context.Context, description string, taskCtx map[string]interface{}) ([]PlannedStep, error)
	Replan(ctx context.Context, taskID string, prior []StepResult) ([]PlannedStep, error)
}

// PlanningError wraps oracle failures during task creation. A task is never
// registered when creation fails with it.
type PlanningError struct {
	Err error
}

func (e *PlanningError) Error() string { return "planning failed: " + e.Err.Error() }
func (e *PlanningError) Unwrap() error { return e.Err }

const plannerSystemPrompt = `You decompose a task into an ordered list of shell commands.
For every step emit exactly two lines:
THOUGHT: <why this step is needed>
ACTION: <a single command, no shell operators>
Emit nothing else. Commands must not chain, redirect, or substitute.`

// LLMOracle plans with a language model. The engine depends only on the
// Oracle interface; this adapter is the default wiring.
type LLMOracle struct {
	provider llm.Provider
	logger   *logging.Logger
}

// NewLLMOracle creates an oracle backed by the given provider.
func NewLLMOracle(provider llm.Provider) *LLMOracle {
	return &LLMOracle{
		provider: provider,
		logger:   logging.New().WithComponent("oracle"),
	}
}

// GeneratePlan asks the model for an initial plan.
func (o *LLMOracle) GeneratePlan(ctx context.Context, description string, taskCtx map[string]interface{}) ([]PlannedStep, error) {
	prompt := fmt.Sprintf("Task: %s\nContext: %v\nThink step by step about how to accomplish this task.", description, taskCtx)
	resp, err := o.provider.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: plannerSystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("plan generation: %w", err)
	}

	steps := parsePlan(resp.Content)
	if len(steps) == 0 {
		return nil, errors.New("oracle returned no parseable steps")
	}
	o.logger.Info("plan generated", map[string]interface{}{"steps": len(steps)})
	return steps, nil
}

// Replan asks the model for additional steps given what already happened.
// An empty result means the plan needs nothing further.
func (o *LLMOracle) Replan(ctx context.Context, taskID string, prior []StepResult) ([]PlannedStep, error) {
	var b strings.Builder
	b.WriteString("The plan so far produced these results:\n")
	for i, r := range prior {
		fmt.Fprintf(&b, "%d. action: %s\n   observation: %s\n   reflection: %s\n", i+1, r.Action, r.Observation, r.Reflection)
	}
	b.WriteString("Emit additional THOUGHT/ACTION steps if the task is not yet satisfied, otherwise emit nothing.")

	resp, err := o.provider.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: plannerSystemPrompt},
			{Role: "user", Content: b.String()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("replanning: %w", err)
	}

	steps := parsePlan(resp.Content)
	o.logger.Info("replan produced", map[string]interface{}{
		"task_id": taskID,
		"steps":   len(steps),
	})
	return steps, nil
}

// parsePlan extracts THOUGHT/ACTION pairs from model output. A dangling
// thought without an action is dropped; an action without a preceding
// thought keeps an empty thought.
func parsePlan(content string) []PlannedStep {
	var steps []PlannedStep
	var thought string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*0123456789. "))
		switch {
		case len(line) >= 8 && strings.EqualFold(line[:8], "THOUGHT:"):
			thought = strings.TrimSpace(line[8:])
		case len(line) >= 7 && strings.EqualFold(line[:7], "ACTION:"):
			action := strings.TrimSpace(line[7:])
			if action == "" {
				continue
			}
			steps = append(steps, PlannedStep{Action: action, Thought: thought})
			thought = ""
		}
	}
	return steps
}

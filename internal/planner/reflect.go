package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentbryce2025/jarvis-ai/internal/executor"
	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/logging"
)

const reflectSystemPrompt = `You judge the outcome of one executed step.
Reply with one or two sentences assessing whether the observation satisfies
the step's intent. If the plan needs additional steps to recover, include the
word REPLAN in your reply.`

// Evaluator produces a reflection judgment and a replan signal for a step
// outcome. Without a provider it applies the conservative default policy:
// replan only on security_violation or timeout. A plain error outcome is
// surfaced in the result stream, not escalated, which keeps one malformed
// step from triggering a replanning storm.
type Evaluator struct {
	provider llm.Provider // nil = default policy only
	logger   *logging.Logger
}

// NewEvaluator creates an evaluator. provider may be nil.
func NewEvaluator(provider llm.Provider) *Evaluator {
	return &Evaluator{
		provider: provider,
		logger:   logging.New().WithComponent("reflection"),
	}
}

// Reflect judges one outcome. It always returns non-empty reflection text.
func (ev *Evaluator) Reflect(ctx context.Context, action string, outcome executor.Outcome) (string, bool) {
	needsReplan := outcome.Status == executor.StatusSecurityViolation ||
		outcome.Status == executor.StatusTimeout

	if ev.provider != nil {
		if text, flagged, err := ev.judge(ctx, action, outcome); err == nil {
			return text, needsReplan || flagged
		} else {
			ev.logger.Warn("reflection judgment failed, using default policy", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return defaultReflection(outcome), needsReplan
}

func (ev *Evaluator) judge(ctx context.Context, action string, outcome executor.Outcome) (string, bool, error) {
	prompt := fmt.Sprintf("Step action: %s\nOutcome status: %s\nObservation:\n%s", action, outcome.Status, outcome.Text())
	resp, err := ev.provider.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: reflectSystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", false, err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", false, fmt.Errorf("empty judgment")
	}
	return text, strings.Contains(text, "REPLAN"), nil
}

func defaultReflection(outcome executor.Outcome) string {
	switch outcome.Status {
	case executor.StatusSuccess:
		return "The step completed successfully and its output was recorded."
	case executor.StatusError:
		return fmt.Sprintf("The command exited with code %d; the failure is recorded for the planner to weigh.", outcome.ReturnCode)
	case executor.StatusTimeout:
		return "The command exceeded its runtime limit and was terminated; the plan likely needs adjusting."
	case executor.StatusSecurityViolation:
		return fmt.Sprintf("The action was rejected by policy (%s); an alternative approach is required.", outcome.Reason)
	default:
		return fmt.Sprintf("Outcome %q was recorded.", outcome.Status)
	}
}

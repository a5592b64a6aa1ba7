package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/agentbryce2025/jarvis-ai/internal/executor"
)

func TestReflect_DefaultPolicy(t *testing.T) {
	ev := NewEvaluator(nil)
	cases := []struct {
		outcome    executor.Outcome
		wantReplan bool
	}{
		{executor.Outcome{Status: executor.StatusSuccess, Stdout: "done"}, false},
		{executor.Outcome{Status: executor.StatusError, ReturnCode: 2}, false},
		{executor.Outcome{Status: executor.StatusTimeout, Reason: "timed out"}, true},
		{executor.Outcome{Status: executor.StatusSecurityViolation, Reason: "blocked"}, true},
	}
	for _, tc := range cases {
		text, needsReplan := ev.Reflect(context.Background(), "some-action", tc.outcome)
		if text == "" {
			t.Errorf("Reflect(%s) returned empty text", tc.outcome.Status)
		}
		if needsReplan != tc.wantReplan {
			t.Errorf("Reflect(%s) needsReplan = %v, want %v", tc.outcome.Status, needsReplan, tc.wantReplan)
		}
	}
}

func TestReflect_OracleJudgment(t *testing.T) {
	ev := NewEvaluator(&mockProvider{responses: []string{
		"The output does not cover the request; REPLAN with a broader listing.",
	}})

	text, needsReplan := ev.Reflect(context.Background(), "ls /tmp", executor.Outcome{
		Status: executor.StatusSuccess,
		Stdout: "partial",
	})
	if !needsReplan {
		t.Error("needsReplan = false, want true when the oracle flags insufficiency")
	}
	if text == "" {
		t.Error("judgment text is empty")
	}
}

func TestReflect_OracleFailureFallsBack(t *testing.T) {
	ev := NewEvaluator(&mockProvider{err: errors.New("unavailable")})

	text, needsReplan := ev.Reflect(context.Background(), "echo hi", executor.Outcome{
		Status: executor.StatusSuccess,
		Stdout: "hi",
	})
	if needsReplan {
		t.Error("needsReplan = true, want default policy on provider failure")
	}
	if text == "" {
		t.Error("fallback reflection text is empty")
	}
}

func TestReflect_OracleCannotClearMandatoryReplan(t *testing.T) {
	// A benign judgment does not override the default replan signal for
	// timeouts and violations.
	ev := NewEvaluator(&mockProvider{responses: []string{"All fine."}})

	_, needsReplan := ev.Reflect(context.Background(), "sleep 99", executor.Outcome{
		Status: executor.StatusTimeout,
		Reason: "timed out",
	})
	if !needsReplan {
		t.Error("needsReplan = false, want true for timeout regardless of judgment")
	}
}

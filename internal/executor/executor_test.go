package executor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agentbryce2025/jarvis-ai/internal/bus"
	"github.com/agentbryce2025/jarvis-ai/internal/policy"
)

func testExecutor(maxRuntime int) *Executor {
	rules := policy.NewRules([]string{"rm"}, []string{"/tmp"}, maxRuntime)
	return New(rules)
}

func TestExecute_Success(t *testing.T) {
	e := testExecutor(10)

	outcome := e.Execute(context.Background(), "echo hello")
	if outcome.Status != StatusSuccess {
		t.Fatalf("Status = %s, want success (stderr: %s)", outcome.Status, outcome.Stderr)
	}
	if outcome.ReturnCode != 0 {
		t.Errorf("ReturnCode = %d, want 0", outcome.ReturnCode)
	}
	if !strings.Contains(outcome.Stdout, "hello") {
		t.Errorf("Stdout = %q, want to contain hello", outcome.Stdout)
	}
}

func TestExecute_CommandError(t *testing.T) {
	e := testExecutor(10)

	outcome := e.Execute(context.Background(), "ls /tmp/definitely-not-a-real-path-xyz")
	if outcome.Status != StatusError {
		t.Fatalf("Status = %s, want error", outcome.Status)
	}
	if outcome.ReturnCode == 0 {
		t.Error("ReturnCode = 0, want nonzero")
	}
}

func TestExecute_UnknownBinary(t *testing.T) {
	e := testExecutor(10)

	outcome := e.Execute(context.Background(), "no-such-binary-zzz")
	if outcome.Status != StatusError {
		t.Fatalf("Status = %s, want error", outcome.Status)
	}
}

func TestExecute_SecurityViolation(t *testing.T) {
	e := testExecutor(10)

	for _, action := range []string{
		"rm -rf / ; echo done",
		"cat /etc/passwd",
		"echo hi > /tmp/out",
		"echo `id`",
		"sleep 60 | tee /tmp/x",
		"",
	} {
		outcome := e.Execute(context.Background(), action)
		if outcome.Status != StatusSecurityViolation {
			t.Errorf("Execute(%q).Status = %s, want security_violation", action, outcome.Status)
		}
		if outcome.Reason == "" {
			t.Errorf("Execute(%q) has empty violation reason", action)
		}
	}
}

func TestExecute_Timeout(t *testing.T) {
	e := testExecutor(1)

	start := time.Now()
	outcome := e.Execute(context.Background(), "sleep 30")
	elapsed := time.Since(start)

	if outcome.Status != StatusTimeout {
		t.Fatalf("Status = %s, want timeout", outcome.Status)
	}
	// SIGTERM lands well before the 30s sleep would finish.
	if elapsed > 10*time.Second {
		t.Errorf("Execute took %v, process was not terminated", elapsed)
	}
	if !strings.Contains(outcome.Reason, "timed out") {
		t.Errorf("Reason = %q, want timeout description", outcome.Reason)
	}
}

func TestExecute_AuditEveryInvocation(t *testing.T) {
	e := testExecutor(10)

	actions := []string{"echo one", "rm /tmp/x", "echo two ; echo three"}
	for _, a := range actions {
		e.Execute(context.Background(), a)
	}

	entries := e.History(0)
	if len(entries) != len(actions) {
		t.Fatalf("History() has %d entries, want %d", len(entries), len(actions))
	}
	for i, entry := range entries {
		if entry.Action != actions[i] {
			t.Errorf("entry[%d].Action = %q, want %q", i, entry.Action, actions[i])
		}
		if entry.Timestamp.IsZero() {
			t.Errorf("entry[%d] has zero timestamp", i)
		}
	}
	if entries[1].Status != StatusSecurityViolation {
		t.Errorf("blocked command audit status = %s, want security_violation", entries[1].Status)
	}

	if got := e.History(1); len(got) != 1 || got[0].Action != actions[2] {
		t.Errorf("History(1) = %+v, want last entry only", got)
	}

	e.Clear()
	if got := e.History(0); len(got) != 0 {
		t.Errorf("History() after Clear has %d entries, want 0", len(got))
	}
}

// failSink always errors; Execute must not care.
type failSink struct{ calls int }

func (s *failSink) Publish(string, bus.Message) error {
	s.calls++
	return context.DeadlineExceeded
}
func (s *failSink) Close() {}

func TestExecute_SinkFailureIgnored(t *testing.T) {
	rules := policy.NewRules(nil, []string{"/tmp"}, 10)
	sink := &failSink{}
	e := New(rules, WithSink(sink))

	outcome := e.Execute(context.Background(), "echo ok")
	if outcome.Status != StatusSuccess {
		t.Fatalf("Status = %s, want success despite sink failure", outcome.Status)
	}
	if sink.calls != 1 {
		t.Errorf("sink called %d times, want 1", sink.calls)
	}
}

func TestExecute_ConcurrentAuditWrites(t *testing.T) {
	e := testExecutor(10)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Execute(context.Background(), "echo concurrent")
		}()
	}
	wg.Wait()

	if got := len(e.History(0)); got != n {
		t.Errorf("History() has %d entries, want %d", got, n)
	}
}

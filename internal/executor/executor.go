// Package executor provides security-gated execution of external commands.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/agentbryce2025/jarvis-ai/internal/bus"
	"github.com/agentbryce2025/jarvis-ai/internal/policy"
	"github.com/vinayprograms/agentkit/logging"
)

// Status classifies the result of one execution attempt.
type Status string

const (
	StatusSuccess           Status = "success"
	StatusError             Status = "error"
	StatusTimeout           Status = "timeout"
	StatusSecurityViolation Status = "security_violation"
)

// Outcome is the result of Execute. Rejections and timeouts are outcomes,
// not errors: the caller records them and moves on.
type Outcome struct {
	Status     Status
	ReturnCode int // meaningful only for success and error
	Stdout     string
	Stderr     string
	Reason     string // set for timeout and security_violation
}

// Text renders the outcome as observation text for a task step.
func (o Outcome) Text() string {
	switch o.Status {
	case StatusSuccess:
		if o.Stdout == "" {
			return "(no output)"
		}
		return o.Stdout
	case StatusError:
		var b strings.Builder
		fmt.Fprintf(&b, "command failed with exit code %d", o.ReturnCode)
		if o.Stderr != "" {
			b.WriteString("\n")
			b.WriteString(o.Stderr)
		}
		if o.Stdout != "" {
			b.WriteString("\n")
			b.WriteString(o.Stdout)
		}
		return b.String()
	default:
		return o.Reason
	}
}

// Source yields the current policy rule snapshot. *policy.Rules and
// *policy.Watcher both satisfy it.
type Source interface {
	Rules() *policy.Rules
}

// Executor validates and runs commands, keeping an append-only audit ledger.
// The audit log is the only mutable state and may be written concurrently by
// multiple tasks.
type Executor struct {
	rules  Source
	sink   bus.Publisher
	logger *logging.Logger

	mu    sync.Mutex
	audit []AuditEntry
}

// Option configures an Executor.
type Option func(*Executor)

// WithSink forwards every audit entry to the given publisher. Forwarding
// failures never fail Execute.
func WithSink(sink bus.Publisher) Option {
	return func(e *Executor) { e.sink = sink }
}

// New creates an executor gated by the given rule source.
func New(rules Source, opts ...Option) *Executor {
	e := &Executor{
		rules:  rules,
		sink:   bus.Nop{},
		logger: logging.New().WithComponent("executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// termGrace is how long a timed-out process gets after SIGTERM before SIGKILL.
const termGrace = 5 * time.Second

// Execute validates the action and, if accepted, runs it as a child process
// with the configured wall-clock limit. Every invocation produces exactly one
// audit entry, recorded before returning.
//
// Validation always precedes launch, and the launch never goes through a
// shell, so the validated tokens cannot be re-interpreted.
func (e *Executor) Execute(ctx context.Context, action string) Outcome {
	ctx, span := e.startExecSpan(ctx, action)

	snapshot := e.rules.Rules()
	outcome := e.execute(ctx, snapshot, action)

	e.record(action, outcome)
	e.endExecSpan(span, outcome)
	return outcome
}

func (e *Executor) execute(ctx context.Context, rules *policy.Rules, action string) Outcome {
	var violation *policy.Violation
	if err := rules.Validate(action); errors.As(err, &violation) {
		e.logger.Warn("action rejected", map[string]interface{}{
			"action": action,
			"reason": violation.Reason,
		})
		return Outcome{Status: StatusSecurityViolation, Reason: violation.Reason}
	}

	// Validate guarantees a non-empty, parseable token list here.
	tokens, err := policy.Tokenize(action)
	if err != nil || len(tokens) == 0 {
		return Outcome{Status: StatusSecurityViolation, Reason: "empty command"}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(tokens[0], tokens[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Outcome{
			Status:     StatusError,
			ReturnCode: -1,
			Stderr:     err.Error(),
		}
	}

	// The process is always waited on, even when the surrounding task is
	// being cancelled, so no child escapes the audit trail.
	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	maxRuntime := time.Duration(rules.MaxRuntime) * time.Second
	timer := time.NewTimer(maxRuntime)
	defer timer.Stop()

	select {
	case waitErr := <-waitCh:
		return finishedOutcome(cmd, waitErr, stdout.String(), stderr.String())
	case <-timer.C:
		e.logger.Warn("command timed out", map[string]interface{}{
			"action":      action,
			"max_runtime": rules.MaxRuntime,
		})
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-waitCh:
		case <-time.After(termGrace):
			_ = cmd.Process.Kill()
			<-waitCh
		}
		return Outcome{
			Status: StatusTimeout,
			Stdout: stdout.String(),
			Stderr: stderr.String(),
			Reason: fmt.Sprintf("command execution timed out after %d seconds", rules.MaxRuntime),
		}
	}
}

func finishedOutcome(cmd *exec.Cmd, waitErr error, stdout, stderr string) Outcome {
	code := cmd.ProcessState.ExitCode()
	status := StatusSuccess
	if waitErr != nil || code != 0 {
		status = StatusError
	}
	return Outcome{
		Status:     status,
		ReturnCode: code,
		Stdout:     stdout,
		Stderr:     stderr,
	}
}

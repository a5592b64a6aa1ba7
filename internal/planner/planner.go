package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agentbryce2025/jarvis-ai/internal/bus"
	"github.com/agentbryce2025/jarvis-ai/internal/executor"
	"github.com/agentbryce2025/jarvis-ai/internal/session"
	"github.com/vinayprograms/agentkit/logging"
)

// Engine-level errors. Step-level problems are never errors; they flow into
// the result stream as data.
var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrRunInProgress = errors.New("task run already in progress")
	ErrReplanLimit   = errors.New("replanning round limit exceeded")
)

// DefaultMaxReplanRounds bounds replanning per task when not configured.
const DefaultMaxReplanRounds = 5

// Runner executes one validated action. *executor.Executor satisfies it.
type Runner interface {
	Execute(ctx context.Context, action string) executor.Outcome
}

// RunStatus is the aggregate result classification of one Run call.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// RunResult aggregates a Run call. Err is set only when Status is failed.
type RunResult struct {
	Status  RunStatus    `json:"status"`
	Results []StepResult `json:"results"`
	Err     string       `json:"error,omitempty"`
}

// Engine orchestrates the per-task state machine: intake, planning, the
// execute/reflect loop with bounded replanning, and completion.
type Engine struct {
	store           *Store
	runner          Runner
	oracle          Oracle
	reflector       *Evaluator
	events          bus.Publisher
	sessions        *session.Manager // nil = no forensic log
	logger          *logging.Logger
	maxReplanRounds int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxReplanRounds bounds replanning rounds over a task's lifetime; a
// resumed Run draws on the same budget.
func WithMaxReplanRounds(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxReplanRounds = n
		}
	}
}

// WithEvents publishes a step event after each processed step and a task
// event at run boundaries.
func WithEvents(pub bus.Publisher) EngineOption {
	return func(e *Engine) { e.events = pub }
}

// WithSessions enables per-run forensic session logs.
func WithSessions(mgr *session.Manager) EngineOption {
	return func(e *Engine) { e.sessions = mgr }
}

// NewEngine wires the engine to its collaborators.
func NewEngine(store *Store, runner Runner, oracle Oracle, reflector *Evaluator, opts ...EngineOption) *Engine {
	e := &Engine{
		store:           store,
		runner:          runner,
		oracle:          oracle,
		reflector:       reflector,
		events:          bus.Nop{},
		logger:          logging.New().WithComponent("engine"),
		maxReplanRounds: DefaultMaxReplanRounds,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create plans a new task from a description and registers it. When the
// oracle fails or yields no steps, no task is registered and the error is a
// *PlanningError.
func (e *Engine) Create(ctx context.Context, description string, taskCtx map[string]interface{}) (string, error) {
	planned, err := e.oracle.GeneratePlan(ctx, description, taskCtx)
	if err != nil {
		e.logger.Error("task creation failed", map[string]interface{}{"error": err.Error()})
		return "", &PlanningError{Err: err}
	}
	if len(planned) == 0 {
		return "", &PlanningError{Err: errors.New("oracle returned zero steps")}
	}

	task := newTask(description, taskCtx, planned)
	e.store.Put(task)
	e.logger.Info("task created", map[string]interface{}{
		"task_id": task.ID,
		"steps":   len(planned),
	})
	return task.ID, nil
}

// Status derives the task status from its steps. It never mutates state and
// is safe to call while a Run is in flight.
func (e *Engine) Status(taskID string) (TaskStatus, error) {
	task, ok := e.store.Get(taskID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return task.Status(), nil
}

// Get returns the task for inspection.
func (e *Engine) Get(taskID string) (*Task, error) {
	task, ok := e.store.Get(taskID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return task, nil
}

// Run processes a task's steps in order, resuming at the first non-completed
// step. Each step is executed through the security gate, observed, reflected
// upon, and marked completed; replanning appends steps and is bounded by the
// configured round limit.
//
// Hard failures are only ErrTaskNotFound and ErrRunInProgress. Everything
// else, including cancellation and the replan bound, comes back inside the
// RunResult with Status failed.
func (e *Engine) Run(ctx context.Context, taskID string) (RunResult, error) {
	task, ok := e.store.Get(taskID)
	if !ok {
		return RunResult{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if !e.store.AcquireRun(taskID) {
		return RunResult{}, fmt.Errorf("%w: %s", ErrRunInProgress, taskID)
	}
	defer e.store.ReleaseRun(taskID)

	ctx, span := e.startRunSpan(ctx, taskID)
	sess := e.beginSession(task)
	result := e.run(ctx, task, sess)
	e.endSession(sess, result)
	e.endRunSpan(span, result)

	e.publish("task.done", map[string]interface{}{
		"task_id": taskID,
		"status":  string(result.Status),
		"steps":   len(result.Results),
	})
	return result, nil
}

func (e *Engine) run(ctx context.Context, task *Task, sess *session.Session) RunResult {
	st := newRunState()
	results := []StepResult{}
	fail := func(err error) RunResult {
		// failed is reachable from every state fail is invoked in.
		_ = st.to(StateFailed)
		e.logger.Error("task run failed", map[string]interface{}{
			"task_id": task.ID,
			"error":   err.Error(),
		})
		return RunResult{Status: RunFailed, Results: results, Err: err.Error()}
	}

	// Intake and plan load. The plan itself was produced at Create time and
	// lives in the store; this run only reads it.
	for _, s := range []RunState{StateAnalyzing, StatePlanning} {
		if err := st.to(s); err != nil {
			return fail(err)
		}
	}

	for {
		// Cancellation is honored between steps only; an in-flight process
		// is always waited on and audited by the executor.
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("run aborted: %w", err))
		}

		idx := task.nextPending()
		if idx < 0 {
			break
		}
		step := task.stepAt(idx)

		if err := st.to(StateExecuting); err != nil {
			return fail(err)
		}
		e.recordStepStart(sess, step.Action)
		start := time.Now()
		outcome := e.runner.Execute(ctx, step.Action)

		if outcome.Status == executor.StatusError {
			// Recovery hop for an execution error that is not a validation
			// failure: back through analysis before the outcome is judged.
			for _, s := range []RunState{StateAnalyzing, StatePlanning, StateExecuting} {
				if err := st.to(s); err != nil {
					return fail(err)
				}
			}
		}

		if err := st.to(StateReflecting); err != nil {
			return fail(err)
		}
		reflection, needsReplan := e.reflector.Reflect(ctx, step.Action, outcome)

		observation := outcome.Text()
		task.completeStep(idx, observation, reflection)
		results = append(results, StepResult{
			Action:      step.Action,
			Thought:     step.Thought,
			Observation: observation,
			Reflection:  reflection,
		})
		e.recordStepEnd(sess, step.Action, outcome, reflection, time.Since(start))
		e.publish("task.step", map[string]interface{}{
			"task_id": task.ID,
			"action":  step.Action,
			"status":  string(outcome.Status),
		})

		if !needsReplan {
			continue
		}

		round := task.nextReplanRound()
		if round > e.maxReplanRounds {
			return fail(fmt.Errorf("%w after %d rounds", ErrReplanLimit, e.maxReplanRounds))
		}
		if err := st.to(StatePlanning); err != nil {
			return fail(err)
		}
		planned, err := e.oracle.Replan(ctx, task.ID, results)
		if err != nil {
			// A failed replan round leaves the existing plan intact; the
			// remaining steps still run.
			e.logger.Warn("replanning failed", map[string]interface{}{
				"task_id": task.ID,
				"error":   err.Error(),
			})
		}
		if len(planned) > 0 {
			task.appendPlanned(planned)
		}
		e.recordReplan(sess, round, len(planned))
	}

	if err := st.to(StateCompleted); err != nil {
		return fail(err)
	}
	e.logger.Info("task completed", map[string]interface{}{
		"task_id": task.ID,
		"steps":   len(results),
	})
	return RunResult{Status: RunSuccess, Results: results}
}

func (e *Engine) publish(subject string, payload map[string]interface{}) {
	if err := e.events.Publish(subject, bus.Message{
		Source:  "engine",
		Type:    subject,
		Payload: payload,
	}); err != nil {
		e.logger.Debug("event publish failed", map[string]interface{}{"error": err.Error()})
	}
}

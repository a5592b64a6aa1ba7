// Package planner drives tasks from intake through planning, execution,
// reflection, and completion.
package planner

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StepStatus tracks whether a step has been processed.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// TaskStatus is derived from step statuses, never stored.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// Step is one atomic action within a task's plan. Observation and Reflection
// are set together when the step is processed; reflection never precedes
// observation.
type Step struct {
	Action      string     `json:"action"`
	Thought     string     `json:"thought"`
	Observation string     `json:"observation,omitempty"`
	Reflection  string     `json:"reflection,omitempty"`
	Status      StepStatus `json:"status"`
}

// Task owns its ordered step list exclusively. Steps are append-only except
// for in-place completion updates; they are never reordered.
type Task struct {
	ID          string
	Description string
	Context     map[string]interface{}
	CreatedAt   time.Time

	mu           sync.Mutex
	steps        []*Step
	replanRounds int // lifetime count; the round bound spans Run calls
}

// newTaskID derives an id from the creation time. The uuid suffix keeps ids
// unique when two tasks are created within the same second.
func newTaskID(now time.Time) string {
	return fmt.Sprintf("task_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:8])
}

func newTask(description string, taskCtx map[string]interface{}, planned []PlannedStep) *Task {
	now := time.Now()
	t := &Task{
		ID:          newTaskID(now),
		Description: description,
		Context:     taskCtx,
		CreatedAt:   now,
	}
	t.appendPlanned(planned)
	return t
}

func (t *Task) appendPlanned(planned []PlannedStep) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range planned {
		t.steps = append(t.steps, &Step{
			Action:  p.Action,
			Thought: p.Thought,
			Status:  StepPending,
		})
	}
}

// nextPending returns the index of the first non-completed step, or -1.
func (t *Task) nextPending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.steps {
		if s.Status != StepCompleted {
			return i
		}
	}
	return -1
}

// stepAt returns a copy of the step at idx for read-only use.
func (t *Task) stepAt(idx int) Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.steps[idx]
}

// completeStep records the processing result for one step. Completion tracks
// "processed", not "succeeded": a step whose action errored is still
// completed once observed and reflected upon.
func (t *Task) completeStep(idx int, observation, reflection string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.steps[idx]
	s.Observation = observation
	s.Reflection = reflection
	s.Status = StepCompleted
}

// nextReplanRound consumes one replanning round from the task's lifetime
// budget and returns the round number. A task that exhausted its rounds in a
// previous Run does not get a fresh budget on resume.
func (t *Task) nextReplanRound() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replanRounds++
	return t.replanRounds
}

// StepCount returns the current number of steps, including replanned ones.
func (t *Task) StepCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.steps)
}

// Steps returns a copy of the step list.
func (t *Task) Steps() []Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Step, len(t.steps))
	for i, s := range t.steps {
		out[i] = *s
	}
	return out
}

// Status derives the task status from its steps.
func (t *Task) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.steps) == 0 {
		return TaskPending
	}
	completed := 0
	for _, s := range t.steps {
		if s.Status == StepCompleted {
			completed++
		}
	}
	switch completed {
	case 0:
		return TaskPending
	case len(t.steps):
		return TaskCompleted
	default:
		return TaskInProgress
	}
}

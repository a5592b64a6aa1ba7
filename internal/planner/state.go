package planner

import "fmt"

// RunState is the engine phase within a single Run call.
type RunState string

const (
	StatePending    RunState = "pending"
	StateAnalyzing  RunState = "analyzing"
	StatePlanning   RunState = "planning"
	StateExecuting  RunState = "executing"
	StateReflecting RunState = "reflecting"
	StateCompleted  RunState = "completed"
	StateFailed     RunState = "failed"
)

// allowedTransitions enumerates the reachable edges. Forward chain plus two
// back edges: reflecting->planning (replan) and executing->analyzing
// (recovery after a non-validation execution error). reflecting->executing
// is the execute loop advancing to the next step; planning->completed covers
// a replan round that appends nothing further.
var allowedTransitions = map[RunState][]RunState{
	StatePending:    {StateAnalyzing},
	StateAnalyzing:  {StatePlanning},
	StatePlanning:   {StateExecuting, StateCompleted},
	StateExecuting:  {StateReflecting, StateAnalyzing},
	StateReflecting: {StateExecuting, StatePlanning, StateCompleted},
}

// runState validates phase transitions for one Run. An invalid transition is
// an engine bug and surfaces as an unrecoverable run failure, never a panic.
type runState struct {
	current RunState
}

func newRunState() *runState {
	return &runState{current: StatePending}
}

func (r *runState) to(next RunState) error {
	if next == StateFailed {
		// failed is terminal and reachable from every non-terminal state.
		if r.current == StateCompleted || r.current == StateFailed {
			return fmt.Errorf("disallowed transition: %s -> %s", r.current, next)
		}
		r.current = StateFailed
		return nil
	}
	for _, allowed := range allowedTransitions[r.current] {
		if allowed == next {
			r.current = next
			return nil
		}
	}
	return fmt.Errorf("disallowed transition: %s -> %s", r.current, next)
}

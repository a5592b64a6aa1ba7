package planner

import "testing"

func TestRunState_ForwardChain(t *testing.T) {
	st := newRunState()
	for _, next := range []RunState{
		StateAnalyzing, StatePlanning, StateExecuting, StateReflecting, StateCompleted,
	} {
		if err := st.to(next); err != nil {
			t.Fatalf("to(%s) error = %v", next, err)
		}
	}
}

func TestRunState_BackEdges(t *testing.T) {
	st := newRunState()
	mustTo(t, st, StateAnalyzing, StatePlanning, StateExecuting)

	// Recovery: executing -> analyzing.
	mustTo(t, st, StateAnalyzing, StatePlanning, StateExecuting, StateReflecting)

	// Replan: reflecting -> planning, then back into the loop.
	mustTo(t, st, StatePlanning, StateExecuting, StateReflecting)

	// Loop advance: reflecting -> executing.
	mustTo(t, st, StateExecuting, StateReflecting, StateCompleted)
}

func TestRunState_DisallowedTransitions(t *testing.T) {
	st := newRunState()
	if err := st.to(StateExecuting); err == nil {
		t.Error("pending -> executing allowed, want error")
	}

	st = newRunState()
	mustTo(t, st, StateAnalyzing, StatePlanning, StateExecuting, StateReflecting, StateCompleted)
	if err := st.to(StateExecuting); err == nil {
		t.Error("completed -> executing allowed, want error")
	}
	if err := st.to(StateFailed); err == nil {
		t.Error("completed -> failed allowed, want error")
	}
}

func TestRunState_FailedFromAnywhere(t *testing.T) {
	for _, setup := range [][]RunState{
		nil,
		{StateAnalyzing},
		{StateAnalyzing, StatePlanning},
		{StateAnalyzing, StatePlanning, StateExecuting},
		{StateAnalyzing, StatePlanning, StateExecuting, StateReflecting},
	} {
		st := newRunState()
		mustTo(t, st, setup...)
		if err := st.to(StateFailed); err != nil {
			t.Errorf("to(failed) from %s error = %v", st.current, err)
		}
	}
}

func TestRunState_PlanningToCompleted(t *testing.T) {
	// A final replan round that appends nothing lands in planning with no
	// pending steps left.
	st := newRunState()
	mustTo(t, st, StateAnalyzing, StatePlanning)
	if err := st.to(StateCompleted); err != nil {
		t.Errorf("planning -> completed error = %v", err)
	}
}

func mustTo(t *testing.T, st *runState, states ...RunState) {
	t.Helper()
	for _, s := range states {
		if err := st.to(s); err != nil {
			t.Fatalf("to(%s) error = %v", s, err)
		}
	}
}

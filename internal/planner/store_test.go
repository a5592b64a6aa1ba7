package planner

import (
	"sync"
	"testing"
)

func storedTask() *Task {
	return newTask("demo", nil, []PlannedStep{{Action: "echo hi", Thought: "t"}})
}

func TestStore_PutGetPurge(t *testing.T) {
	s := NewStore()
	task := storedTask()

	s.Put(task)
	if got, ok := s.Get(task.ID); !ok || got != task {
		t.Fatalf("Get() = (%v, %v), want stored task", got, ok)
	}

	s.Purge(task.ID)
	if _, ok := s.Get(task.ID); ok {
		t.Error("Get() after Purge found the task")
	}
}

func TestStore_RunLock(t *testing.T) {
	s := NewStore()
	task := storedTask()
	s.Put(task)

	if !s.AcquireRun(task.ID) {
		t.Fatal("first AcquireRun() = false")
	}
	if s.AcquireRun(task.ID) {
		t.Error("second AcquireRun() = true, want false while held")
	}
	s.ReleaseRun(task.ID)
	if !s.AcquireRun(task.ID) {
		t.Error("AcquireRun() after release = false")
	}
}

func TestStore_RunLockUnderContention(t *testing.T) {
	s := NewStore()
	task := storedTask()
	s.Put(task)

	var acquired int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.AcquireRun(task.ID) {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != 1 {
		t.Errorf("%d goroutines acquired the run lock, want exactly 1", acquired)
	}
}

func TestTask_StatusDerivation(t *testing.T) {
	task := newTask("derive", nil, []PlannedStep{
		{Action: "a", Thought: "t"},
		{Action: "b", Thought: "t"},
	})

	if got := task.Status(); got != TaskPending {
		t.Errorf("Status() = %s, want pending", got)
	}
	task.completeStep(0, "obs", "refl")
	if got := task.Status(); got != TaskInProgress {
		t.Errorf("Status() = %s, want in_progress", got)
	}
	task.completeStep(1, "obs", "refl")
	if got := task.Status(); got != TaskCompleted {
		t.Errorf("Status() = %s, want completed", got)
	}
}

func TestTask_ObservationAndReflectionSetTogether(t *testing.T) {
	task := storedTask()

	step := task.stepAt(0)
	if step.Observation != "" || step.Reflection != "" {
		t.Fatalf("fresh step has observation/reflection set: %+v", step)
	}

	task.completeStep(0, "obs", "refl")
	step = task.stepAt(0)
	if step.Observation != "obs" || step.Reflection != "refl" || step.Status != StepCompleted {
		t.Errorf("completed step = %+v", step)
	}
}

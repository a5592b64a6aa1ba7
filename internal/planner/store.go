package planner

import "sync"

// Store is the in-memory task registry. It also hands out per-task run locks:
// at most one Run call may hold a task at a time, which is what makes the
// task's step list exclusively owned during execution.
type Store struct {
	mu      sync.Mutex
	tasks   map[string]*Task
	running map[string]bool
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{
		tasks:   make(map[string]*Task),
		running: make(map[string]bool),
	}
}

// Put registers a task.
func (s *Store) Put(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
}

// Get looks up a task by id.
func (s *Store) Get(id string) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Purge removes a task. Eviction is always explicit; the engine never
// deletes tasks on its own.
func (s *Store) Purge(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	delete(s.running, id)
}

// AcquireRun claims the run lock for a task. It returns false when another
// run already holds it.
func (s *Store) AcquireRun(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[id] {
		return false
	}
	s.running[id] = true
	return true
}

// ReleaseRun releases the run lock.
func (s *Store) ReleaseRun(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
}

// Len reports the number of registered tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

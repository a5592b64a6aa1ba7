// Package session records per-run forensic logs for task executions.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status constants for sessions.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Event types for the session log.
const (
	EventTaskStart  = "task_start"
	EventPlan       = "plan"
	EventStepStart  = "step_start"
	EventStepEnd    = "step_end"
	EventReflection = "reflection"
	EventReplan     = "replan"
	EventSecurity   = "security"
	EventTaskEnd    = "task_end"
)

// Session is the forensic record of one Run call.
type Session struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Events      []Event   `json:"events"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	seq uint64
	mu  sync.Mutex
}

// Event is a single entry in the session log.
type Event struct {
	Seq        uint64    `json:"seq"`
	Type       string    `json:"type"`
	Step       string    `json:"step,omitempty"`    // step action for step-scoped events
	Content    string    `json:"content,omitempty"` // observation, reflection, plan text
	Status     string    `json:"status,omitempty"`  // outcome status for step_end
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Append adds an event with the next sequence number.
func (s *Session) Append(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	ev.Seq = s.seq
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	s.Events = append(s.Events, ev)
	s.UpdatedAt = time.Now()
}

// Manager persists sessions as JSON files under a directory.
type Manager struct {
	dir string
}

// NewManager creates the session directory if needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Create starts a new running session for a task.
func (m *Manager) Create(taskID, description string) *Session {
	now := time.Now()
	return &Session{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		Description: description,
		Status:      StatusRunning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Update writes the session to disk. The write goes through a temp file so a
// reader never sees a partially written session.
func (m *Manager) Update(s *Session) error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	path := m.Path(s.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return os.Rename(tmp, path)
}

// Path returns the on-disk location for a session id.
func (m *Manager) Path(id string) string {
	return filepath.Join(m.dir, id+".json")
}

// Load reads a session file.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	return &s, nil
}

// List returns session file paths, newest last.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, err
	}
	type dated struct {
		path string
		mod  time.Time
	}
	var files []dated
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, dated{filepath.Join(m.dir, e.Name()), info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

package executor

import (
	"time"

	"github.com/agentbryce2025/jarvis-ai/internal/bus"
)

// AuditEntry is the immutable record of one execution attempt. Entries are
// kept regardless of outcome; rejected actions are as much a part of the
// trail as executed ones.
type AuditEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	Status     Status    `json:"status"`
	ReturnCode int       `json:"return_code,omitempty"`
	Stdout     string    `json:"stdout,omitempty"`
	Stderr     string    `json:"stderr,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// record appends one audit entry and forwards it to the sink. Appending is
// atomic under the executor mutex; forwarding is best effort.
func (e *Executor) record(action string, outcome Outcome) {
	entry := AuditEntry{
		Timestamp:  time.Now(),
		Action:     action,
		Status:     outcome.Status,
		ReturnCode: outcome.ReturnCode,
		Stdout:     outcome.Stdout,
		Stderr:     outcome.Stderr,
		Reason:     outcome.Reason,
	}

	e.mu.Lock()
	e.audit = append(e.audit, entry)
	e.mu.Unlock()

	if err := e.sink.Publish("audit", bus.Message{
		Source:  "executor",
		Type:    "audit_entry",
		Payload: entry,
	}); err != nil {
		e.logger.Debug("audit forward failed", map[string]interface{}{"error": err.Error()})
	}
}

// History returns the most recent limit entries in order, or all entries when
// limit <= 0. The returned slice is a copy.
func (e *Executor) History(limit int) []AuditEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := 0
	if limit > 0 && limit < len(e.audit) {
		start = len(e.audit) - limit
	}
	out := make([]AuditEntry, len(e.audit)-start)
	copy(out, e.audit[start:])
	return out
}

// Clear discards the audit log. Retention is the caller's concern; the
// executor itself never evicts.
func (e *Executor) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.audit = nil
}

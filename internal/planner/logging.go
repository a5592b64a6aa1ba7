// Session event recording for the engine.
package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentbryce2025/jarvis-ai/internal/executor"
	"github.com/agentbryce2025/jarvis-ai/internal/session"
)

// beginSession opens a forensic session for one run, or returns nil when
// session logging is disabled.
func (e *Engine) beginSession(task *Task) *session.Session {
	if e.sessions == nil {
		return nil
	}
	sess := e.sessions.Create(task.ID, task.Description)
	sess.Append(session.Event{
		Type:    session.EventTaskStart,
		Content: task.Description,
	})
	actions := make([]string, 0, task.StepCount())
	for _, s := range task.Steps() {
		actions = append(actions, s.Action)
	}
	sess.Append(session.Event{
		Type:    session.EventPlan,
		Content: strings.Join(actions, "\n"),
	})
	e.flushSession(sess)
	return sess
}

func (e *Engine) endSession(sess *session.Session, result RunResult) {
	if sess == nil {
		return
	}
	status := session.StatusComplete
	if result.Status == RunFailed {
		status = session.StatusFailed
	}
	sess.Status = status
	sess.Error = result.Err
	sess.Append(session.Event{
		Type:   session.EventTaskEnd,
		Status: string(result.Status),
		Error:  result.Err,
	})
	e.flushSession(sess)
}

func (e *Engine) recordStepStart(sess *session.Session, action string) {
	if sess == nil {
		return
	}
	sess.Append(session.Event{
		Type: session.EventStepStart,
		Step: action,
	})
	e.flushSession(sess)
}

func (e *Engine) recordStepEnd(sess *session.Session, action string, outcome executor.Outcome, reflection string, duration time.Duration) {
	if sess == nil {
		return
	}
	evType := session.EventStepEnd
	if outcome.Status == executor.StatusSecurityViolation {
		evType = session.EventSecurity
	}
	sess.Append(session.Event{
		Type:       evType,
		Step:       action,
		Content:    outcome.Text(),
		Status:     string(outcome.Status),
		DurationMs: duration.Milliseconds(),
	})
	sess.Append(session.Event{
		Type:    session.EventReflection,
		Step:    action,
		Content: reflection,
	})
	e.flushSession(sess)
}

func (e *Engine) recordReplan(sess *session.Session, round, appended int) {
	if sess == nil {
		return
	}
	sess.Append(session.Event{
		Type:    session.EventReplan,
		Content: fmt.Sprintf("round %d appended %d steps", round, appended),
	})
	e.flushSession(sess)
}

func (e *Engine) flushSession(sess *session.Session) {
	if err := e.sessions.Update(sess); err != nil {
		e.logger.Warn("session write failed", map[string]interface{}{"error": err.Error()})
	}
}

// Package replay renders recorded task sessions for forensic review.
package replay

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/muesli/reflow/wordwrap"

	"github.com/agentbryce2025/jarvis-ai/internal/session"
)

// Replayer formats session events into a readable timeline.
type Replayer struct {
	output    io.Writer
	verbosity int // 0=normal, 1=verbose (-v)
	width     int
}

// Option configures a Replayer.
type Option func(*Replayer)

// WithVerbosity raises the detail level.
func WithVerbosity(v int) Option {
	return func(r *Replayer) { r.verbosity = v }
}

// WithWidth sets the wrap width for content blocks.
func WithWidth(w int) Option {
	return func(r *Replayer) {
		if w > 20 {
			r.width = w
		}
	}
}

// New creates a Replayer writing to output.
func New(output io.Writer, opts ...Option) *Replayer {
	r := &Replayer{
		output: output,
		width:  100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the full session timeline.
func (r *Replayer) Render(s *session.Session) error {
	header := fmt.Sprintf("session %s | task %s | %s", s.ID, s.TaskID, s.Status)
	fmt.Fprintln(r.output, titleStyle.Render(header))
	fmt.Fprintln(r.output, dimStyle.Render(s.Description))
	fmt.Fprintln(r.output, divider)

	for _, ev := range s.Events {
		r.renderEvent(ev)
	}

	fmt.Fprintln(r.output, divider)
	summary := fmt.Sprintf("%d events | started %s", len(s.Events), s.CreatedAt.Format("2006-01-02 15:04:05"))
	if s.Error != "" {
		summary += " | " + errorStyle.Render(s.Error)
	}
	fmt.Fprintln(r.output, dimStyle.Render(summary))
	return nil
}

func (r *Replayer) renderEvent(ev session.Event) {
	ts := ev.Timestamp.Format("15:04:05")
	prefix := seqStyle.Render(fmt.Sprintf("%4d", ev.Seq)) + " " + timeStyle.Render(ts) + " "

	switch ev.Type {
	case session.EventTaskStart:
		fmt.Fprintln(r.output, prefix+flowStyle.Render("▶ task started"))
	case session.EventPlan:
		fmt.Fprintln(r.output, prefix+flowStyle.Render("☰ plan"))
		r.renderContent(ev.Content)
	case session.EventTaskEnd:
		style := successStyle
		if ev.Status != "success" {
			style = errorStyle
		}
		fmt.Fprintln(r.output, prefix+style.Render("■ task finished: "+ev.Status))
	case session.EventStepStart:
		fmt.Fprintln(r.output, prefix+stepStyle.Render("→ "+ev.Step))
	case session.EventStepEnd:
		line := fmt.Sprintf("✓ %s (%s, %dms)", ev.Step, ev.Status, ev.DurationMs)
		style := successStyle
		if ev.Status != "success" {
			style = warnStyle
		}
		fmt.Fprintln(r.output, prefix+style.Render(line))
		r.renderContent(ev.Content)
	case session.EventSecurity:
		fmt.Fprintln(r.output, prefix+securityStyle.Render("⛔ "+ev.Step))
		r.renderContent(ev.Content)
	case session.EventReflection:
		if r.verbosity > 0 {
			fmt.Fprintln(r.output, prefix+reflectStyle.Render("✎ "+ev.Content))
		}
	case session.EventReplan:
		fmt.Fprintln(r.output, prefix+replanStyle.Render("↻ replan: "+ev.Content))
	default:
		fmt.Fprintln(r.output, prefix+dimStyle.Render(ev.Type+" "+ev.Content))
	}
}

// renderContent prints an indented, wrapped content block.
func (r *Replayer) renderContent(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	if r.verbosity == 0 && len(content) > 400 {
		// Walk back to a rune boundary so the cut never splits a multi-byte
		// character.
		cut := 400
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut] + "…"
	}
	wrapped := wordwrap.String(content, r.width-16)
	for _, line := range strings.Split(wrapped, "\n") {
		fmt.Fprintln(r.output, strings.Repeat(" ", 14)+contentStyle.Render(line))
	}
}

// RenderFile loads and renders a session file.
func (r *Replayer) RenderFile(path string) error {
	s, err := session.Load(path)
	if err != nil {
		return err
	}
	return r.Render(s)
}

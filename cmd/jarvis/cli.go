// Package main defines the CLI structure using kong.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface.
type CLI struct {
	Run     RunCmd     `cmd:"" help:"Plan and execute a task from a natural-language description"`
	Status  StatusCmd  `cmd:"" help:"Show the recorded status of a task"`
	History HistoryCmd `cmd:"" help:"List recorded task sessions"`
	Replay  ReplayCmd  `cmd:"" help:"Replay a session for forensic analysis"`
	Setup   SetupCmd   `cmd:"" help:"Interactive setup wizard"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// RunCmd plans a task and runs its steps through the security gate.
type RunCmd struct {
	Description  string            `arg:"" help:"What the task should accomplish"`
	Context      map[string]string `short:"c" help:"Task context key=value (repeatable)"`
	Config       string            `help:"Config file path (default: ./jarvis.toml)"`
	Policy       string            `help:"Policy file path (overrides config)"`
	ReplanRounds int               `help:"Replanning round limit (overrides config)"`
	Audit        bool              `help:"Print the command audit trail after the run"`
	JSON         bool              `help:"Emit the run result as JSON"`
}

// StatusCmd reports the latest recorded run status for a task id.
type StatusCmd struct {
	TaskID string `arg:"" help:"Task id (task_YYYYMMDD_HHMMSS_xxxxxxxx)"`
	Config string `help:"Config file path (default: ./jarvis.toml)"`
}

// HistoryCmd lists recorded sessions, newest last.
type HistoryCmd struct {
	Config string `help:"Config file path (default: ./jarvis.toml)"`
}

// ReplayCmd replays a recorded session.
type ReplayCmd struct {
	Session string `arg:"" help:"Session file to replay (path or session id)"`
	Verbose int    `short:"v" type:"counter" help:"Verbosity level (-v, -vv)"`
	Config  string `help:"Config file path (default: ./jarvis.toml)"`
}

// SetupCmd runs the interactive setup wizard.
type SetupCmd struct{}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}

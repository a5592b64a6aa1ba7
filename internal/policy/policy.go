// Package policy validates action strings against the configured security rules.
package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mattn/go-shellwords"
	"gopkg.in/yaml.v3"
)

// Violation is returned when an action is rejected by the rule set.
type Violation struct {
	Reason string
}

func (v *Violation) Error() string {
	return "security violation: " + v.Reason
}

// dangerousPattern pairs a compiled pattern with a human-readable label for
// violation reasons and audit entries.
type dangerousPattern struct {
	re    *regexp.Regexp
	label string
}

// Patterns that allow the shell to escape the validated token list. The raw
// action string is checked, not the token list, because quoting hides
// metacharacters from the tokenizer but not from a downstream shell.
var dangerousPatterns = []dangerousPattern{
	{regexp.MustCompile(`[;&|]`), "command chaining"},
	{regexp.MustCompile(`>[>&]?`), "output redirection"},
	{regexp.MustCompile(`<`), "input redirection"},
	{regexp.MustCompile(`\$\(`), "command substitution"},
	{regexp.MustCompile("`"), "backtick substitution"},
}

// Rules is an immutable snapshot of the security rule set. Validate never
// mutates it, so a single Rules value may be shared across goroutines.
type Rules struct {
	blocklist    map[string]struct{}
	allowedPaths []string
	MaxRuntime   int // seconds; consumed by the executor, not by Validate
}

// RulesFile is the on-disk YAML shape of the rule set.
type RulesFile struct {
	CommandBlocklist []string `yaml:"command_blocklist"`
	AllowedPaths     []string `yaml:"allowed_paths"`
	MaxRuntime       int      `yaml:"max_runtime"`
}

// DefaultMaxRuntime bounds command execution when no limit is configured.
const DefaultMaxRuntime = 300

// NewRules builds a rule set from explicit lists.
func NewRules(blocklist, allowedPaths []string, maxRuntime int) *Rules {
	r := &Rules{
		blocklist:    make(map[string]struct{}, len(blocklist)),
		allowedPaths: allowedPaths,
		MaxRuntime:   maxRuntime,
	}
	for _, cmd := range blocklist {
		r.blocklist[cmd] = struct{}{}
	}
	if len(r.allowedPaths) == 0 {
		r.allowedPaths = []string{"/tmp"}
	}
	if r.MaxRuntime <= 0 {
		r.MaxRuntime = DefaultMaxRuntime
	}
	return r
}

// LoadRules reads a YAML rules file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	var rf RulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing policy file: %w", err)
	}
	return NewRules(rf.CommandBlocklist, rf.AllowedPaths, rf.MaxRuntime), nil
}

// Tokenize splits an action string with shell-word semantics. Quoting is
// respected; no expansion of any kind is performed.
func Tokenize(action string) ([]string, error) {
	p := shellwords.NewParser()
	return p.Parse(action)
}

// Validate checks an action string against the rule set. It returns nil when
// the action may execute and a *Violation describing the rejection otherwise.
func (r *Rules) Validate(action string) error {
	// Pattern checks run on the raw string before tokenization so that a
	// malformed action still gets a precise rejection reason.
	for _, p := range dangerousPatterns {
		if p.re.MatchString(action) {
			return &Violation{Reason: fmt.Sprintf("dangerous pattern detected: %s", p.label)}
		}
	}

	tokens, err := Tokenize(action)
	if err != nil {
		return &Violation{Reason: fmt.Sprintf("unparseable command: %v", err)}
	}
	if len(tokens) == 0 {
		return &Violation{Reason: "empty command"}
	}

	base := filepath.Base(tokens[0])
	if _, blocked := r.blocklist[base]; blocked {
		return &Violation{Reason: fmt.Sprintf("command %q is blocked", base)}
	}

	for _, arg := range tokens[1:] {
		if !strings.HasPrefix(arg, "/") {
			continue
		}
		if !r.pathAllowed(arg) {
			return &Violation{Reason: fmt.Sprintf("path not allowed: %s", arg)}
		}
	}
	return nil
}

func (r *Rules) pathAllowed(path string) bool {
	for _, prefix := range r.allowedPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Rules returns the snapshot itself, so a static rule set satisfies the same
// source interface as a hot-reloading Watcher.
func (r *Rules) Rules() *Rules { return r }

// AllowedPaths returns a copy of the configured path prefixes.
func (r *Rules) AllowedPaths() []string {
	out := make([]string, len(r.allowedPaths))
	copy(out, r.allowedPaths)
	return out
}

// Blocklist returns the blocked command names in unspecified order.
func (r *Rules) Blocklist() []string {
	out := make([]string, 0, len(r.blocklist))
	for cmd := range r.blocklist {
		out = append(out, cmd)
	}
	return out
}

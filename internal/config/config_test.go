package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jarvis.toml")
	content := []byte(`
[security]
command_blocklist = ["rm", "shutdown"]
allowed_paths = ["/tmp", "/var/tmp"]
max_runtime = 60

[planner]
max_replan_rounds = 3

[llm]
provider = "anthropic"
model = "claude-sonnet-4-20250514"

[bus]
url = "nats://localhost:4222"
subject_prefix = "jarvis"
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Security.MaxRuntime != 60 {
		t.Errorf("MaxRuntime = %d, want 60", cfg.Security.MaxRuntime)
	}
	if len(cfg.Security.CommandBlocklist) != 2 {
		t.Errorf("CommandBlocklist = %v", cfg.Security.CommandBlocklist)
	}
	if cfg.Planner.MaxReplanRounds != 3 {
		t.Errorf("MaxReplanRounds = %d, want 3", cfg.Planner.MaxReplanRounds)
	}
	if cfg.Bus.URL == "" {
		t.Error("Bus.URL is empty")
	}
	// Defaults survive partial files.
	if cfg.LLM.MaxTokens != 4096 {
		t.Errorf("MaxTokens = %d, want default 4096", cfg.LLM.MaxTokens)
	}
}

func TestDefaults(t *testing.T) {
	cfg := New()
	if cfg.Security.MaxRuntime != 300 {
		t.Errorf("MaxRuntime = %d, want 300", cfg.Security.MaxRuntime)
	}
	if got := cfg.Security.AllowedPaths; len(got) != 1 || got[0] != "/tmp" {
		t.Errorf("AllowedPaths = %v, want [/tmp]", got)
	}
	if cfg.Planner.MaxReplanRounds != 5 {
		t.Errorf("MaxReplanRounds = %d, want 5", cfg.Planner.MaxReplanRounds)
	}
}

func TestDefaultAPIKeyEnv(t *testing.T) {
	if got := DefaultAPIKeyEnv("anthropic"); got != "ANTHROPIC_API_KEY" {
		t.Errorf("DefaultAPIKeyEnv(anthropic) = %q", got)
	}
	if got := DefaultAPIKeyEnv("unknown"); got != "" {
		t.Errorf("DefaultAPIKeyEnv(unknown) = %q, want empty", got)
	}
}

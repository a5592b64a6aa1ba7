package setup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentbryce2025/jarvis-ai/internal/config"
	"github.com/agentbryce2025/jarvis-ai/internal/policy"
)

func wizardConfig() Config {
	return Config{
		Provider:     ProviderAnthropic,
		Model:        "claude-sonnet-4-5",
		Blocklist:    []string{"rm", "dd"},
		AllowedPaths: []string{"/tmp", "/var/tmp"},
		MaxRuntime:   120,
	}
}

func TestGeneratePolicyYAML_LoadsBackIntact(t *testing.T) {
	m := Model{config: wizardConfig()}

	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(path, []byte(m.generatePolicyYAML()), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := policy.LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}

	// The wizard's blocklist must survive the round trip and actually block.
	for _, action := range []string{"rm /tmp/file", "dd if=/tmp/a of=/tmp/b"} {
		var v *policy.Violation
		if err := rules.Validate(action); !errors.As(err, &v) {
			t.Errorf("Validate(%q) = %v, want *Violation from wizard-written blocklist", action, err)
		}
	}
	if err := rules.Validate("ls /var/tmp"); err != nil {
		t.Errorf("Validate(ls /var/tmp) = %v, want nil for wizard-written allowed path", err)
	}
	if rules.MaxRuntime != 120 {
		t.Errorf("MaxRuntime = %d, want 120", rules.MaxRuntime)
	}
}

func TestGenerateConfigTOML_LoadsBackIntact(t *testing.T) {
	m := Model{config: wizardConfig()}

	dir := t.TempDir()
	path := filepath.Join(dir, "jarvis.toml")
	if err := os.WriteFile(path, []byte(m.generateConfigTOML()), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.LLM.Provider != ProviderAnthropic || cfg.LLM.Model != "claude-sonnet-4-5" {
		t.Errorf("LLM config = %+v", cfg.LLM)
	}
	if cfg.LLM.APIKeyEnv != "ANTHROPIC_API_KEY" {
		t.Errorf("APIKeyEnv = %q, want ANTHROPIC_API_KEY", cfg.LLM.APIKeyEnv)
	}
	if cfg.Security.PolicyFile != "policy.yaml" {
		t.Errorf("PolicyFile = %q, want policy.yaml", cfg.Security.PolicyFile)
	}
	if cfg.Security.MaxRuntime != 120 {
		t.Errorf("MaxRuntime = %d, want 120", cfg.Security.MaxRuntime)
	}
}

// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the assistant configuration.
type Config struct {
	Security  SecurityConfig  `toml:"security"`
	Planner   PlannerConfig   `toml:"planner"`
	LLM       LLMConfig       `toml:"llm"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Bus       BusConfig       `toml:"bus"`
	Storage   StorageConfig   `toml:"storage"`
}

// SecurityConfig governs which actions may execute.
type SecurityConfig struct {
	PolicyFile       string   `toml:"policy_file"`       // YAML rules file; overrides inline lists when set
	CommandBlocklist []string `toml:"command_blocklist"`
	AllowedPaths     []string `toml:"allowed_paths"`
	MaxRuntime       int      `toml:"max_runtime"` // seconds
}

// PlannerConfig bounds the execution engine.
type PlannerConfig struct {
	MaxReplanRounds int `toml:"max_replan_rounds"`
}

// LLMConfig contains planner-oracle provider settings. When Model is empty
// the CLI runs without an oracle and task creation is unavailable.
type LLMConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	MaxTokens int    `toml:"max_tokens"`
	BaseURL   string `toml:"base_url"`
}

// TelemetryConfig contains telemetry settings.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"` // OTLP endpoint (e.g., localhost:4317)
	Protocol string `toml:"protocol"` // grpc (default) or http
}

// BusConfig points at the external message fabric. Empty URL disables
// publishing entirely.
type BusConfig struct {
	URL           string `toml:"url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// StorageConfig contains persistent storage settings.
type StorageConfig struct {
	Path string `toml:"path"` // base directory for session logs
}

// New creates a new config with defaults.
func New() *Config {
	return &Config{
		Security: SecurityConfig{
			AllowedPaths: []string{"/tmp"},
			MaxRuntime:   300,
		},
		Planner: PlannerConfig{
			MaxReplanRounds: 5,
		},
		LLM: LLMConfig{
			MaxTokens: 4096,
		},
		Telemetry: TelemetryConfig{
			Protocol: "noop",
		},
		Storage: StorageConfig{
			Path: "~/.local/jarvis",
		},
	}
}

// LoadFile loads configuration from a TOML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads configuration from jarvis.toml in the current directory,
// falling back to defaults when the file does not exist.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	path := filepath.Join(cwd, "jarvis.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// GetAPIKey returns the API key from the configured environment variable.
// If api_key_env is not set, uses the default env var for the provider.
func (c *Config) GetAPIKey() string {
	envVar := c.LLM.APIKeyEnv
	if envVar == "" {
		envVar = DefaultAPIKeyEnv(c.LLM.Provider)
	}
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

// DefaultAPIKeyEnv returns the default environment variable name for a provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	case "mistral":
		return "MISTRAL_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	default:
		return ""
	}
}

// StoragePath expands a leading ~ in the storage path.
func (c *Config) StoragePath() string {
	path := c.Storage.Path
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	return path
}

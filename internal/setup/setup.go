// Package setup provides an interactive wizard that writes jarvis.toml
// and policy.yaml for a fresh installation.
package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Provider options
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderGroq      = "groq"
	ProviderMistral   = "mistral"
)

// Config holds the setup configuration
type Config struct {
	Provider string
	Model    string
	APIKey   string

	Blocklist    []string
	AllowedPaths []string
	MaxRuntime   int

	EnableTelemetry bool
	BusURL          string
}

// Styling
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// Step represents a wizard step
type Step int

const (
	StepWelcome Step = iota
	StepProvider
	StepModel
	StepAPIKey
	StepBlocklist
	StepAllowedPaths
	StepMaxRuntime
	StepConfirm
	StepComplete
)

// Model is the bubbletea model for the setup wizard
type Model struct {
	step      Step
	config    Config
	cursor    int
	textInput textinput.Model
	err       error
	width     int
	height    int
	editMode  bool

	filesWritten []string
}

// New creates a new setup model
func New() Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 60

	m := Model{
		step:      StepWelcome,
		textInput: ti,
		config: Config{
			Provider:     ProviderAnthropic,
			Blocklist:    []string{"rm", "mkfs", "dd", "shutdown", "reboot"},
			AllowedPaths: []string{"/tmp"},
			MaxRuntime:   300,
		},
	}

	if err := m.loadExistingConfig(); err == nil {
		m.editMode = true
	}

	return m
}

// existingConfig mirrors the structure in internal/config for loading
type existingConfig struct {
	LLM struct {
		Provider string `toml:"provider"`
		Model    string `toml:"model"`
	} `toml:"llm"`
	Security struct {
		CommandBlocklist []string `toml:"command_blocklist"`
		AllowedPaths     []string `toml:"allowed_paths"`
		MaxRuntime       int      `toml:"max_runtime"`
	} `toml:"security"`
	Telemetry struct {
		Enabled bool `toml:"enabled"`
	} `toml:"telemetry"`
	Bus struct {
		URL string `toml:"url"`
	} `toml:"bus"`
}

func (m *Model) loadExistingConfig() error {
	if _, err := os.Stat("jarvis.toml"); os.IsNotExist(err) {
		return err
	}

	var cfg existingConfig
	if _, err := toml.DecodeFile("jarvis.toml", &cfg); err != nil {
		return err
	}

	if cfg.LLM.Provider != "" {
		m.config.Provider = cfg.LLM.Provider
	}
	if cfg.LLM.Model != "" {
		m.config.Model = cfg.LLM.Model
	}
	if len(cfg.Security.CommandBlocklist) > 0 {
		m.config.Blocklist = cfg.Security.CommandBlocklist
	}
	if len(cfg.Security.AllowedPaths) > 0 {
		m.config.AllowedPaths = cfg.Security.AllowedPaths
	}
	if cfg.Security.MaxRuntime > 0 {
		m.config.MaxRuntime = cfg.Security.MaxRuntime
	}
	m.config.EnableTelemetry = cfg.Telemetry.Enabled
	m.config.BusURL = cfg.Bus.URL

	return nil
}

type providerOption struct {
	name string
	desc string
}

func (m Model) getProviders() []providerOption {
	return []providerOption{
		{ProviderAnthropic, "Claude models"},
		{ProviderOpenAI, "GPT models"},
		{ProviderGoogle, "Gemini models"},
		{ProviderGroq, "fast open-weight inference"},
		{ProviderMistral, "Mistral models"},
	}
}

func (m Model) getModels() []string {
	switch m.config.Provider {
	case ProviderAnthropic:
		return []string{"claude-sonnet-4-5", "claude-opus-4-1", "claude-haiku-4-5"}
	case ProviderOpenAI:
		return []string{"gpt-4o", "gpt-4o-mini", "o3-mini"}
	case ProviderGoogle:
		return []string{"gemini-2.5-pro", "gemini-2.5-flash"}
	case ProviderGroq:
		return []string{"llama-3.3-70b-versatile", "mixtral-8x7b-32768"}
	case ProviderMistral:
		return []string{"mistral-large-latest", "mistral-small-latest"}
	}
	return nil
}

type filesWrittenMsg struct {
	files []string
}

type errMsg struct {
	error
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case filesWrittenMsg:
		m.filesWritten = msg.files
		m.step = StepComplete
		return m, nil
	case errMsg:
		m.err = msg.error
		m.step = StepComplete
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Text input steps capture all keys except ctrl+c and enter.
		if m.isTextInputStep() {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "enter":
				return m.handleEnter()
			default:
				var cmd tea.Cmd
				m.textInput, cmd = m.textInput.Update(msg)
				return m, cmd
			}
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.step == StepComplete || m.step == StepWelcome {
				return m, tea.Quit
			}
			if m.step > StepWelcome {
				m.step--
				m.cursor = 0
			}
			return m, nil

		case "enter":
			return m.handleEnter()

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "j":
			if m.cursor < m.maxCursorForStep() {
				m.cursor++
			}
			return m, nil
		}
	}

	return m, nil
}

func (m Model) maxCursorForStep() int {
	switch m.step {
	case StepProvider:
		return len(m.getProviders()) - 1
	case StepModel:
		return len(m.getModels()) - 1
	}
	return 0
}

func (m Model) isTextInputStep() bool {
	switch m.step {
	case StepAPIKey, StepBlocklist, StepAllowedPaths, StepMaxRuntime:
		return true
	}
	return false
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.step {
	case StepWelcome:
		m.step = StepProvider
		m.cursor = 0

	case StepProvider:
		m.config.Provider = m.getProviders()[m.cursor].name
		m.step = StepModel
		m.cursor = 0

	case StepModel:
		m.config.Model = m.getModels()[m.cursor]
		m.step = StepAPIKey
		m.textInput.SetValue("")
		m.textInput.Placeholder = "sk-..."
		m.textInput.EchoMode = textinput.EchoPassword
		m.textInput.Focus()

	case StepAPIKey:
		m.config.APIKey = strings.TrimSpace(m.textInput.Value())
		m.step = StepBlocklist
		m.textInput.SetValue(strings.Join(m.config.Blocklist, ", "))
		m.textInput.Placeholder = "rm, mkfs, dd"
		m.textInput.EchoMode = textinput.EchoNormal

	case StepBlocklist:
		if list := splitList(m.textInput.Value()); len(list) > 0 {
			m.config.Blocklist = list
		}
		m.step = StepAllowedPaths
		m.textInput.SetValue(strings.Join(m.config.AllowedPaths, ", "))
		m.textInput.Placeholder = "/tmp"

	case StepAllowedPaths:
		if list := splitList(m.textInput.Value()); len(list) > 0 {
			m.config.AllowedPaths = list
		}
		m.step = StepMaxRuntime
		m.textInput.SetValue(strconv.Itoa(m.config.MaxRuntime))
		m.textInput.Placeholder = "300"

	case StepMaxRuntime:
		if n, err := strconv.Atoi(strings.TrimSpace(m.textInput.Value())); err == nil && n > 0 {
			m.config.MaxRuntime = n
		}
		m.step = StepConfirm
		m.cursor = 0

	case StepConfirm:
		return m, m.writeFiles()

	case StepComplete:
		return m, tea.Quit
	}

	return m, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (m Model) writeFiles() tea.Cmd {
	return func() tea.Msg {
		var files []string

		if err := os.WriteFile("jarvis.toml", []byte(m.generateConfigTOML()), 0644); err != nil {
			return errMsg{err}
		}
		files = append(files, "jarvis.toml")

		if err := os.WriteFile("policy.yaml", []byte(m.generatePolicyYAML()), 0644); err != nil {
			return errMsg{err}
		}
		files = append(files, "policy.yaml")

		if m.config.APIKey != "" {
			line := fmt.Sprintf("%s=%s\n", defaultEnvVar(m.config.Provider), m.config.APIKey)
			f, err := os.OpenFile(".env", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
			if err != nil {
				return errMsg{err}
			}
			if _, err := f.WriteString(line); err != nil {
				f.Close()
				return errMsg{err}
			}
			f.Close()
			files = append(files, ".env")
		}

		return filesWrittenMsg{files}
	}
}

func (m Model) generateConfigTOML() string {
	var sb strings.Builder

	sb.WriteString("# Jarvis Configuration\n")
	sb.WriteString("# Generated by: jarvis setup\n\n")

	sb.WriteString("[llm]\n")
	sb.WriteString(fmt.Sprintf("provider = %q\n", m.config.Provider))
	sb.WriteString(fmt.Sprintf("model = %q\n", m.config.Model))
	sb.WriteString("max_tokens = 4096\n")
	sb.WriteString(fmt.Sprintf("api_key_env = %q\n\n", defaultEnvVar(m.config.Provider)))

	sb.WriteString("[security]\n")
	sb.WriteString("policy_file = \"policy.yaml\"\n")
	sb.WriteString(fmt.Sprintf("max_runtime = %d\n\n", m.config.MaxRuntime))

	sb.WriteString("[planner]\n")
	sb.WriteString("max_replan_rounds = 5\n\n")

	sb.WriteString("[telemetry]\n")
	sb.WriteString(fmt.Sprintf("enabled = %t\n", m.config.EnableTelemetry))
	if m.config.BusURL != "" {
		sb.WriteString("\n[bus]\n")
		sb.WriteString(fmt.Sprintf("url = %q\n", m.config.BusURL))
	}

	return sb.String()
}

func (m Model) generatePolicyYAML() string {
	var sb strings.Builder

	sb.WriteString("# Command execution policy\n")
	sb.WriteString("command_blocklist:\n")
	for _, cmd := range m.config.Blocklist {
		sb.WriteString(fmt.Sprintf("  - %s\n", cmd))
	}
	sb.WriteString("allowed_paths:\n")
	for _, p := range m.config.AllowedPaths {
		sb.WriteString(fmt.Sprintf("  - %s\n", p))
	}
	sb.WriteString(fmt.Sprintf("max_runtime: %d\n", m.config.MaxRuntime))

	return sb.String()
}

func defaultEnvVar(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	case ProviderGroq:
		return "GROQ_API_KEY"
	case ProviderMistral:
		return "MISTRAL_API_KEY"
	}
	return "LLM_API_KEY"
}

// View renders the current step
func (m Model) View() string {
	var s strings.Builder

	switch m.step {
	case StepWelcome:
		s.WriteString(m.viewWelcome())
	case StepProvider:
		s.WriteString(m.viewProvider())
	case StepModel:
		s.WriteString(m.viewModel())
	case StepAPIKey:
		s.WriteString(m.viewTextInput("API Key",
			"Paste your API key (leave empty to use the environment variable)"))
	case StepBlocklist:
		s.WriteString(m.viewTextInput("Command Blocklist",
			"Comma-separated commands that must never run"))
	case StepAllowedPaths:
		s.WriteString(m.viewTextInput("Allowed Paths",
			"Comma-separated path prefixes absolute arguments may touch"))
	case StepMaxRuntime:
		s.WriteString(m.viewTextInput("Max Runtime",
			"Seconds before a running command is terminated"))
	case StepConfirm:
		s.WriteString(m.viewConfirm())
	case StepComplete:
		s.WriteString(m.viewComplete())
	}

	return s.String()
}

func (m Model) viewWelcome() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("🤖 Jarvis Setup"))
	s.WriteString("\n\n")
	if m.editMode {
		s.WriteString(infoStyle.Render("Found existing configuration: jarvis.toml"))
		s.WriteString("\n\n")
		s.WriteString(normalStyle.Render("This wizard will help you edit your configuration."))
		s.WriteString("\n")
		s.WriteString(normalStyle.Render("Current values will be pre-filled."))
		s.WriteString("\n\n")
	} else {
		s.WriteString(normalStyle.Render("This wizard will configure task planning and command execution."))
		s.WriteString("\n\n")
	}
	s.WriteString(dimStyle.Render("Press Enter to continue, q to quit"))
	return s.String()
}

func (m Model) viewProvider() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("LLM Provider") + "\n")
	s.WriteString(subtitleStyle.Render("Select the provider used for planning and reflection") + "\n\n")

	for i, p := range m.getProviders() {
		cursor := "  "
		style := normalStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedStyle
		}
		s.WriteString(cursor + style.Render(p.name) + " " + dimStyle.Render(p.desc) + "\n")
	}

	s.WriteString("\n" + dimStyle.Render("↑/↓ to move, Enter to select"))
	return s.String()
}

func (m Model) viewModel() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Model Selection") + "\n")
	s.WriteString(subtitleStyle.Render("Select the model to use") + "\n\n")

	for i, model := range m.getModels() {
		cursor := "  "
		style := normalStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedStyle
		}
		s.WriteString(cursor + style.Render(model) + "\n")
	}

	s.WriteString("\n" + dimStyle.Render("↑/↓ to move, Enter to select, q to go back"))
	return s.String()
}

func (m Model) viewTextInput(title, subtitle string) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(title) + "\n")
	s.WriteString(subtitleStyle.Render(subtitle) + "\n\n")
	s.WriteString(m.textInput.View())
	s.WriteString("\n\n" + dimStyle.Render("Enter to continue"))
	return s.String()
}

func (m Model) viewConfirm() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Review Configuration") + "\n\n")
	s.WriteString(normalStyle.Render("Provider:      ") + infoStyle.Render(m.config.Provider) + "\n")
	s.WriteString(normalStyle.Render("Model:         ") + infoStyle.Render(m.config.Model) + "\n")
	s.WriteString(normalStyle.Render("Blocklist:     ") + dimStyle.Render(strings.Join(m.config.Blocklist, ", ")) + "\n")
	s.WriteString(normalStyle.Render("Allowed paths: ") + dimStyle.Render(strings.Join(m.config.AllowedPaths, ", ")) + "\n")
	s.WriteString(normalStyle.Render("Max runtime:   ") + dimStyle.Render(fmt.Sprintf("%ds", m.config.MaxRuntime)) + "\n")
	s.WriteString("\n" + dimStyle.Render("Enter to write jarvis.toml and policy.yaml, q to go back"))
	return s.String()
}

func (m Model) viewComplete() string {
	var s strings.Builder
	if m.err != nil {
		s.WriteString(errorStyle.Render("Setup failed: " + m.err.Error()))
		s.WriteString("\n\n" + dimStyle.Render("Press q to exit"))
		return s.String()
	}
	s.WriteString(successStyle.Render("✓ Setup complete") + "\n\n")
	for _, f := range m.filesWritten {
		s.WriteString(normalStyle.Render("  wrote ") + infoStyle.Render(f) + "\n")
	}
	s.WriteString("\n" + normalStyle.Render("Run a task with: jarvis run \"your task\""))
	s.WriteString("\n\n" + dimStyle.Render("Press q to exit"))
	return s.String()
}

// Run starts the setup wizard
func Run() error {
	p := tea.NewProgram(New())
	_, err := p.Run()
	return err
}

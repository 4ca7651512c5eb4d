// ABOUTME: Interactive TUI wizard for connecting jotter to an insight provider.
// ABOUTME: Picks proxy or openai, collects endpoint, model, and key, then checks the connection.
package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/jotter/internal/config"
	"github.com/2389-research/jotter/internal/insight"
)

// Default endpoints offered for each provider.
const (
	DefaultAPIURL    = config.DefaultAPIURL
	DefaultOpenAIURL = "https://api.openai.com/v1"
)

// Step represents the current wizard step.
type Step int

const (
	StepProvider Step = iota
	StepEndpoint
	StepModel
	StepAPIKey
	StepChecking
	StepSaved
	StepFailed
)

// inputSteps is the number of steps the user fills in.
const inputSteps = 4

// Settings are the insight values the wizard reads and returns.
type Settings struct {
	Provider string
	APIURL   string
	Model    string
	APIKey   string
}

// ValidateFn is the function signature for connection validation.
type ValidateFn func(ctx context.Context, apiURL, apiKey string) error

type provider struct {
	name        string
	blurb       string
	url         string
	modelHint   string
	keyRequired bool
}

var providers = []provider{
	{
		name:      insight.ProviderProxy,
		blurb:     "self-hosted insight proxy",
		url:       DefaultAPIURL,
		modelHint: "server default",
	},
	{
		name:        insight.ProviderOpenAI,
		blurb:       "OpenAI or any compatible chat API",
		url:         DefaultOpenAIURL,
		modelHint:   insight.DefaultOpenAIModel,
		keyRequired: true,
	},
}

// checkResultMsg carries the outcome of a connection check.
type checkResultMsg struct {
	err error
}

// cancelHolder shares a cancel function across bubbletea model copies.
// It must be a pointer field so value-receiver methods can set it.
type cancelHolder struct {
	cancel context.CancelFunc
}

// SetupModel is the bubbletea model for the setup wizard.
type SetupModel struct {
	step     Step
	choice   int
	endpoint textinput.Model
	model    textinput.Model
	apiKey   textinput.Model
	spinner  spinner.Model
	checks   map[string]ValidateFn
	cancel   *cancelHolder
	notice   string
	checkErr error
	quitting bool
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	brandStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// NewSetupModel creates a wizard pre-filled from the current settings.
func NewSetupModel(current Settings) SetupModel {
	m := SetupModel{
		step:     StepProvider,
		endpoint: newInput(current.APIURL, false),
		model:    newInput(current.Model, false),
		apiKey:   newInput(current.APIKey, true),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		checks: map[string]ValidateFn{
			insight.ProviderProxy:  ValidateEndpoint,
			insight.ProviderOpenAI: ValidateOpenAI,
		},
		cancel: &cancelHolder{},
	}
	for i, p := range providers {
		if strings.EqualFold(p.name, current.Provider) {
			m.choice = i
		}
	}
	m.applyPlaceholders()
	return m
}

func newInput(value string, secret bool) textinput.Model {
	in := textinput.New()
	in.Width = 50
	if secret {
		in.EchoMode = textinput.EchoPassword
	}
	in.SetValue(value)
	return in
}

// WithValidator returns a copy of the model that checks the named provider with fn.
func (m SetupModel) WithValidator(providerName string, fn ValidateFn) SetupModel {
	checks := make(map[string]ValidateFn, len(m.checks))
	for k, v := range m.checks {
		checks[k] = v
	}
	checks[providerName] = fn
	m.checks = checks
	return m
}

func (m SetupModel) provider() provider {
	return providers[m.choice]
}

func (m *SetupModel) applyPlaceholders() {
	p := m.provider()
	m.endpoint.Placeholder = p.url
	m.model.Placeholder = p.modelHint
	if p.keyRequired {
		m.apiKey.Placeholder = "required"
	} else {
		m.apiKey.Placeholder = "optional"
	}
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEscape:
			m.quitting = true
			if m.cancel.cancel != nil {
				m.cancel.cancel()
			}
			return m, tea.Quit
		}

		switch m.step {
		case StepProvider:
			return m.updateProvider(msg)
		case StepEndpoint, StepModel, StepAPIKey:
			return m.updateInput(msg)
		case StepFailed:
			return m.updateFailed(msg)
		}

	case checkResultMsg:
		m.cancel.cancel = nil
		if msg.err == nil {
			m.step = StepSaved
			return m, tea.Quit
		}
		m.checkErr = msg.err
		m.step = StepFailed
		return m, nil

	case spinner.TickMsg:
		if m.step == StepChecking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) updateProvider(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k", "shift+tab":
		m.choice = (m.choice + len(providers) - 1) % len(providers)
	case "down", "j", "tab":
		m.choice = (m.choice + 1) % len(providers)
	case "enter":
		m.chooseProvider()
		return m.moveTo(StepEndpoint)
	}
	return m, nil
}

// chooseProvider swaps in the chosen provider's endpoint when the current
// one is empty or another provider's default.
func (m *SetupModel) chooseProvider() {
	p := m.provider()
	current := strings.TrimRight(strings.TrimSpace(m.endpoint.Value()), "/")
	if current == "" || isDefaultURL(current) {
		m.endpoint.SetValue(p.url)
	}
	m.applyPlaceholders()
}

func isDefaultURL(u string) bool {
	for _, p := range providers {
		if u == p.url {
			return true
		}
	}
	return false
}

func (m SetupModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "shift+tab":
		return m.moveTo(m.step - 1)
	case "enter":
		if notice := m.commit(); notice != "" {
			m.notice = notice
			return m, nil
		}
		if m.step == StepAPIKey {
			return m.startCheck()
		}
		return m.moveTo(m.step + 1)
	}

	m.notice = ""
	in := m.active()
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return m, cmd
}

// commit normalizes the active input and returns a notice if it cannot be accepted.
func (m *SetupModel) commit() string {
	p := m.provider()
	switch m.step {
	case StepEndpoint:
		raw := strings.TrimRight(strings.TrimSpace(m.endpoint.Value()), "/")
		if raw == "" {
			raw = p.url
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "enter an http:// or https:// URL"
		}
		m.endpoint.SetValue(raw)
	case StepModel:
		m.model.SetValue(strings.TrimSpace(m.model.Value()))
	case StepAPIKey:
		m.apiKey.SetValue(strings.TrimSpace(m.apiKey.Value()))
		if p.keyRequired && m.apiKey.Value() == "" {
			return fmt.Sprintf("%s needs an API key", p.name)
		}
	}
	return ""
}

func (m *SetupModel) active() *textinput.Model {
	switch m.step {
	case StepModel:
		return &m.model
	case StepAPIKey:
		return &m.apiKey
	default:
		return &m.endpoint
	}
}

func (m SetupModel) moveTo(step Step) (tea.Model, tea.Cmd) {
	m.endpoint.Blur()
	m.model.Blur()
	m.apiKey.Blur()
	m.notice = ""
	m.step = step
	if step < StepEndpoint || step > StepAPIKey {
		return m, nil
	}
	cmd := m.active().Focus()
	return m, cmd
}

func (m SetupModel) updateFailed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m.startCheck()
	case "e":
		m.checkErr = nil
		return m.moveTo(StepEndpoint)
	case "s":
		m.step = StepSaved
		return m, tea.Quit
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m SetupModel) startCheck() (tea.Model, tea.Cmd) {
	m.apiKey.Blur()
	m.step = StepChecking
	m.checkErr = nil

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel.cancel = cancel
	fn := m.checks[m.provider().name]
	apiURL, apiKey := m.endpoint.Value(), m.apiKey.Value()
	check := func() tea.Msg {
		if fn == nil {
			return checkResultMsg{}
		}
		return checkResultMsg{err: fn(ctx, apiURL, apiKey)}
	}
	return m, tea.Batch(check, m.spinner.Tick)
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   JOTTER"))
	b.WriteString(titleStyle.Render(" - Setup"))
	b.WriteString("\n\n")
	b.WriteString("Connect your journal to an AI insight provider.\n\n")

	p := m.provider()
	switch m.step {
	case StepProvider:
		b.WriteString(stepHeader(m.step, "Provider", "up/down to choose, Enter to confirm"))
		for i, c := range providers {
			marker := "  "
			name := c.name
			if i == m.choice {
				marker = cursorStyle.Render("› ")
				name = cursorStyle.Render(name)
			}
			b.WriteString(fmt.Sprintf("%s%-8s %s\n", marker, name, hintStyle.Render(c.blurb)))
		}

	case StepEndpoint:
		m.writeSummary(&b)
		b.WriteString(stepHeader(m.step, "Endpoint URL", "press Enter for "+p.url))
		b.WriteString(m.endpoint.View())
		b.WriteString("\n")

	case StepModel:
		m.writeSummary(&b)
		b.WriteString(stepHeader(m.step, "Model", "leave empty for "+p.modelHint))
		b.WriteString(m.model.View())
		b.WriteString("\n")

	case StepAPIKey:
		m.writeSummary(&b)
		hint := "optional for a local proxy"
		if p.keyRequired {
			hint = "required for " + p.name
		}
		b.WriteString(stepHeader(m.step, "API Key", hint))
		b.WriteString(m.apiKey.View())
		b.WriteString("\n")

	case StepChecking:
		m.writeSummary(&b)
		b.WriteString(m.spinner.View())
		b.WriteString(fmt.Sprintf(" Checking %s endpoint...\n", p.name))

	case StepSaved:
		b.WriteString(successStyle.Render(fmt.Sprintf("✓ Connected to %s", m.endpoint.Value())))
		b.WriteString("\n")

	case StepFailed:
		reason := "unknown error"
		if m.checkErr != nil {
			reason = m.checkErr.Error()
		}
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ Could not reach %s: %s", m.endpoint.Value(), reason)))
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("[r]etry  [e]dit  [s]ave anyway  [q]uit"))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(errorStyle.Render(m.notice))
		b.WriteString("\n")
	}
	return b.String()
}

func stepHeader(step Step, title, hint string) string {
	return fmt.Sprintf("%s\n%s\n",
		stepStyle.Render(fmt.Sprintf("Step %d of %d: %s", int(step)+1, inputSteps, title)),
		hintStyle.Render("("+hint+")"))
}

// writeSummary lists the values confirmed before the current step.
func (m SetupModel) writeSummary(b *strings.Builder) {
	p := m.provider()
	b.WriteString(fmt.Sprintf("  Provider: %s\n", p.name))
	if m.step > StepEndpoint {
		b.WriteString(fmt.Sprintf("  Endpoint: %s\n", m.endpoint.Value()))
	}
	if m.step > StepModel {
		model := m.model.Value()
		if model == "" {
			model = "(" + p.modelHint + ")"
		}
		b.WriteString(fmt.Sprintf("  Model:    %s\n", model))
	}
	if m.step > StepAPIKey {
		b.WriteString(fmt.Sprintf("  API Key:  %s\n", strings.Repeat("*", len(m.apiKey.Value()))))
	}
	b.WriteString("\n")
}

// Result returns the settings the wizard collected.
func (m SetupModel) Result() Settings {
	return Settings{
		Provider: m.provider().name,
		APIURL:   m.endpoint.Value(),
		Model:    m.model.Value(),
		APIKey:   m.apiKey.Value(),
	}
}

// ShouldSave returns true if the wizard finished (connected or "save anyway")
// and the user did not cancel with Ctrl+C, Escape, or 'q'.
func (m SetupModel) ShouldSave() bool {
	return m.step == StepSaved && !m.quitting
}

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/transferwindow/internal/tui/styles"
)

// Backend performs the actions behind the UI's keys. Both calls must
// return promptly; outcomes arrive later as LineMsg and StatusMsg.
type Backend interface {
	Claim(actor string) error
	Reset()
}

// LineMsg delivers one notification line to the log pane.
type LineMsg string

// StatusMsg replaces the status label.
type StatusMsg string

// DecisionMsg replaces the summary of the most recent decision.
type DecisionMsg string

// DefaultMaxLines bounds the log pane when no limit is configured.
const DefaultMaxLines = 500

const (
	headerHeight = 3 // title, status, blank
	footerHeight = 2 // help bar with margin
	borderSize   = 2
)

// Model is the bubbletea model for the claim console.
type Model struct {
	backend  Backend
	title    string
	actors   []string
	keys     keyMap
	viewport viewport.Model

	lines    []string
	maxLines int
	status   string
	last     string

	width  int
	height int
	ready  bool
}

// NewModel creates a Model. actors beyond the ninth get no key.
func NewModel(backend Backend, opts Options) Model {
	maxLines := opts.MaxLines
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return Model{
		backend:  backend,
		title:    opts.Title,
		actors:   opts.Actors,
		keys:     newKeyMap(opts.Actors),
		viewport: viewport.New(80, 20),
		maxLines: maxLines,
		status:   opts.Status,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(msg.Width-borderSize, 10)
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight-borderSize, 3)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case LineMsg:
		m.appendLine(string(msg))
		return m, nil

	case StatusMsg:
		m.status = string(msg)
		return m, nil

	case DecisionMsg:
		m.last = string(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Reset):
		m.backend.Reset()
		return m, nil
	}

	for i, binding := range m.keys.Clubs {
		if key.Matches(msg, binding) {
			if err := m.backend.Claim(m.actors[i]); err != nil {
				m.appendLine("-> FAILED: " + err.Error())
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if over := len(m.lines) - m.maxLines; over > 0 {
		m.lines = append(m.lines[:0:0], m.lines[over:]...)
	}
	m.refresh()
}

func (m *Model) refresh() {
	rendered := make([]string, len(m.lines))
	for i, l := range m.lines {
		rendered[i] = styles.RenderLine(l)
	}
	m.viewport.SetContent(strings.Join(rendered, "\n"))
	m.viewport.GotoBottom()
}

// Lines returns the log pane contents.
func (m Model) Lines() []string {
	return append([]string(nil), m.lines...)
}

// Status returns the status label text.
func (m Model) Status() string {
	return m.status
}

// LastDecision returns the summary of the most recent decision.
func (m Model) LastDecision() string {
	return m.last
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	status := "Status: " + styles.RenderStatus(m.status)
	if m.last != "" {
		status += "   Last: " + styles.Subtitle.Render(m.last)
	}
	header := lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("transferwindow")+" "+styles.Subtitle.Render(m.title),
		status,
	)
	body := styles.OutputArea.Render(m.viewport.View())

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, m.helpView())
}

func (m Model) helpView() string {
	parts := make([]string, 0, len(m.keys.all()))
	for _, b := range m.keys.all() {
		h := b.Help()
		parts = append(parts, styles.HelpKey.Render(h.Key)+" "+h.Desc)
	}
	return styles.HelpBar.Render(strings.Join(parts, "  "))
}

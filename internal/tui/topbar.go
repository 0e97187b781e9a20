package tui

import (
	"strings"
	"time"

	"stock-intel/internal/present"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TopBarModel holds the free-text query box and the last-updated clock.
type TopBarModel struct {
	services    Services
	input       textinput.Model
	loading     bool
	lastUpdated *time.Time
	width       int
}

// NewTopBarModel creates a new top bar model.
func NewTopBarModel(svc Services) TopBarModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about a stock (e.g. 'How is NVDA performing today?')"
	ti.CharLimit = 500
	ti.Width = 60
	ti.Prompt = "⌕ "

	return TopBarModel{
		services: svc,
		input:    ti,
	}
}

// Update handles typing and submission. The query text is kept after submit.
func (m TopBarModel) Update(msg tea.Msg) (TopBarModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEnter {
		if !m.input.Focused() {
			return m, nil
		}
		question := strings.TrimSpace(m.input.Value())
		if question == "" {
			return m, nil
		}
		return m, queryCmd(m.services, question)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the top bar. spin is the current spinner frame.
func (m TopBarModel) View(spin string) string {
	left := m.input.View()
	if m.loading {
		left += " " + spin
	}

	right := LabelStyle.Render("Last Updated ") + SubtextStyle.Render(present.LastUpdated(m.lastUpdated))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *TopBarModel) SetState(loading bool, lastUpdated *time.Time) {
	m.loading = loading
	m.lastUpdated = lastUpdated
}

// SetSize updates the model dimensions.
func (m *TopBarModel) SetSize(w int) {
	m.width = w
	m.input.Width = max(w-32, 10)
}

func (m *TopBarModel) Focus() tea.Cmd { return m.input.Focus() }
func (m *TopBarModel) Blur()          { m.input.Blur() }

// Value returns the current query text (for testing).
func (m TopBarModel) Value() string { return m.input.Value() }

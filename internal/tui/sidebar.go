package tui

import (
	"context"
	"fmt"
	"strings"

	"stock-intel/internal/domain"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Sidebar message types.
type watchlistDoneMsg struct {
	action string
	ticker string
	err    error
}

type healthState int

const (
	healthUnknown healthState = iota
	healthUp
	healthDown
)

// SidebarModel shows the watchlist, the add-ticker box and system status.
type SidebarModel struct {
	services      Services
	entries       []domain.WatchlistEntry
	current       string
	cursor        int
	input         textinput.Model
	adding        bool
	submitting    bool
	pendingRemove string
	health        healthState
	focused       bool
	width         int
	height        int
}

// NewSidebarModel creates a new sidebar model.
func NewSidebarModel(svc Services) SidebarModel {
	ti := textinput.New()
	ti.Placeholder = "Add ticker..."
	ti.CharLimit = domain.MaxTickerLen
	ti.Width = 16

	return SidebarModel{
		services: svc,
		input:    ti,
	}
}

// Update handles watchlist navigation and mutations while focused.
func (m SidebarModel) Update(msg tea.Msg) (SidebarModel, tea.Cmd) {
	switch msg := msg.(type) {
	case watchlistDoneMsg:
		if msg.action == "add" {
			m.submitting = false
			if msg.err == nil {
				m.input.SetValue("")
			}
		}
		return m, nil

	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		if m.pendingRemove != "" {
			return m.updateConfirm(msg)
		}
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.updateList(msg)
	}

	if m.adding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m SidebarModel) updateList(msg tea.KeyMsg) (SidebarModel, tea.Cmd) {
	switch {
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case key.Matches(msg, DefaultKeyMap.Select):
		if t := m.selected(); t != "" {
			return m, searchCmd(m.services, t)
		}
	case key.Matches(msg, DefaultKeyMap.Add):
		m.adding = true
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, DefaultKeyMap.Remove):
		m.pendingRemove = m.selected()
	}
	return m, nil
}

func (m SidebarModel) updateConfirm(msg tea.KeyMsg) (SidebarModel, tea.Cmd) {
	switch {
	case key.Matches(msg, DefaultKeyMap.Confirm):
		ticker := m.pendingRemove
		m.pendingRemove = ""
		return m, m.watchlistCmd("remove", ticker)
	case key.Matches(msg, DefaultKeyMap.Cancel):
		m.pendingRemove = ""
	}
	return m, nil
}

func (m SidebarModel) updateAdding(msg tea.KeyMsg) (SidebarModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		ticker := strings.TrimSpace(m.input.Value())
		if ticker == "" || m.submitting {
			return m, nil
		}
		m.submitting = true
		return m, m.watchlistCmd("add", ticker)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.input.SetValue(strings.ToUpper(m.input.Value()))
	return m, cmd
}

// SetState syncs the watchlist and highlighted ticker.
func (m *SidebarModel) SetState(st domain.SessionState) {
	m.entries = st.Watchlist
	m.current = st.CurrentTicker
	if m.cursor >= len(m.entries) {
		m.cursor = max(len(m.entries)-1, 0)
	}
}

func (m *SidebarModel) SetHealth(ok bool) {
	if ok {
		m.health = healthUp
	} else {
		m.health = healthDown
	}
}

// SetSize updates the model dimensions.
func (m *SidebarModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.input.Width = max(w-6, 4)
}

func (m *SidebarModel) Focus() { m.focused = true }

func (m *SidebarModel) Blur() {
	m.focused = false
	m.adding = false
	m.pendingRemove = ""
	m.input.Blur()
}

// Typing reports whether the add-ticker box is capturing keys.
func (m SidebarModel) Typing() bool { return m.adding }

// Cursor returns the highlighted row (for testing).
func (m SidebarModel) Cursor() int { return m.cursor }

// PendingRemove returns the ticker awaiting confirmation (for testing).
func (m SidebarModel) PendingRemove() string { return m.pendingRemove }

// Submitting reports whether an add is in flight (for testing).
func (m SidebarModel) Submitting() bool { return m.submitting }

// View renders the sidebar.
func (m SidebarModel) View() string {
	var lines []string
	lines = append(lines, BrandStyle.Render("◆ StockIntel"))
	if m.services.Username != "" {
		lines = append(lines, SubtextStyle.Render("@"+m.services.Username))
	}
	lines = append(lines, "")
	lines = append(lines, SubtextStyle.Render("WATCHLIST"))

	if len(m.entries) == 0 {
		lines = append(lines, SubtextStyle.Render("  (empty)"))
	}
	for i, e := range m.entries {
		marker := "  "
		if m.focused && i == m.cursor && !m.adding {
			marker = CursorStyle.Render("› ")
		}
		label := fmt.Sprintf("%-*s", max(m.width-8, 6), e.Ticker)
		if e.Ticker == m.current {
			label = SelectedRowStyle.Render(label)
		} else {
			label = RowStyle.Render(label)
		}
		lines = append(lines, marker+label+" "+SentimentDot(e.Sentiment))
	}

	if m.pendingRemove != "" {
		lines = append(lines, "", ErrorStyle.Render(fmt.Sprintf("Remove %s from watchlist?", m.pendingRemove)), SubtextStyle.Render("y confirm • esc cancel"))
	}

	lines = append(lines, "")
	switch {
	case m.submitting:
		lines = append(lines, "+ "+m.input.View(), SubtextStyle.Render("  adding..."))
	case m.adding:
		lines = append(lines, "+ "+m.input.View())
	default:
		lines = append(lines, SubtextStyle.Render("a  add ticker"))
	}

	lines = append(lines, "")
	switch m.health {
	case healthUp:
		lines = append(lines, LiveStyle.Render("● System Live"))
	case healthDown:
		lines = append(lines, ErrorStyle.Render("● Backend Unreachable"))
	default:
		lines = append(lines, SubtextStyle.Render("● Checking..."))
	}
	lines = append(lines, SubtextStyle.Render("Index ingestion active"))

	return strings.Join(lines, "\n")
}

func (m SidebarModel) selected() string {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return ""
	}
	return m.entries[m.cursor].Ticker
}

func (m SidebarModel) watchlistCmd(action, ticker string) tea.Cmd {
	store := m.services.Store
	return func() tea.Msg {
		var err error
		if action == "add" {
			err = store.AddToWatchlist(context.Background(), ticker)
		} else {
			err = store.RemoveFromWatchlist(context.Background(), ticker)
		}
		return watchlistDoneMsg{action: action, ticker: ticker, err: err}
	}
}

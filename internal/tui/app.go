package tui

import (
	"context"
	"time"

	"stock-intel/internal/domain"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Pane is a focusable region of the screen.
type Pane int

const (
	PaneSidebar Pane = iota
	PaneQuery
	PaneDashboard
)

const paneCount = 3

const sidebarWidth = 26

// App message types.
type stateMsg domain.SessionState
type actionDoneMsg struct{ err error }
type healthMsg bool
type healthTickMsg time.Time

// AppModel is the root Bubble Tea model that lays out the sidebar, top bar
// and dashboard around one session store.
type AppModel struct {
	services    Services
	focus       Pane
	sidebar     SidebarModel
	topbar      TopBarModel
	dashboard   DashboardModel
	spinner     spinner.Model
	spinning    bool
	state       domain.SessionState
	changes     <-chan struct{}
	unsubscribe func()
	width       int
	height      int
	quitting    bool
}

// NewAppModel creates the root model and subscribes to the store.
func NewAppModel(svc Services) AppModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(SpinnerColor)

	m := AppModel{
		services:  svc,
		focus:     PaneSidebar,
		sidebar:   NewSidebarModel(svc),
		topbar:    NewTopBarModel(svc),
		dashboard: NewDashboardModel(svc),
		spinner:   sp,
	}
	m.changes, m.unsubscribe = svc.Store.Subscribe()
	m.sidebar.Focus()
	m.applyState(svc.Store.Snapshot())
	return m
}

// Init starts the session bootstrap, the store subscription and health polling.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		bootstrapCmd(m.services),
		m.waitForChange(),
		healthCmd(m.services),
		healthTickCmd(m.services),
		textinput.Blink,
	)
}

// Update handles incoming messages, routing keys to the focused pane.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case stateMsg:
		m.applyState(domain.SessionState(msg))
		cmds := []tea.Cmd{m.waitForChange()}
		if m.state.Loading && !m.spinning {
			m.spinning = true
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !m.state.Loading {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case healthMsg:
		m.sidebar.SetHealth(bool(msg))
		return m, nil

	case healthTickMsg:
		return m, tea.Batch(healthCmd(m.services), healthTickCmd(m.services))

	case actionDoneMsg:
		return m, nil

	case watchlistDoneMsg:
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if handled, cmd := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case PaneSidebar:
		m.sidebar, cmd = m.sidebar.Update(msg)
	case PaneQuery:
		m.topbar, cmd = m.topbar.Update(msg)
	case PaneDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	}
	return m, cmd
}

func (m *AppModel) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return true, m.quit()
	}

	switch {
	case key.Matches(msg, DefaultKeyMap.Tab):
		return true, m.setFocus(Pane((int(m.focus) + 1) % paneCount))
	case key.Matches(msg, DefaultKeyMap.ShiftTab):
		return true, m.setFocus(Pane((int(m.focus) + paneCount - 1) % paneCount))
	}

	if m.typing() {
		if msg.Type == tea.KeyEsc && m.focus == PaneQuery {
			return true, m.setFocus(PaneSidebar)
		}
		return false, nil
	}

	switch {
	case key.Matches(msg, DefaultKeyMap.Quit):
		return true, m.quit()
	case key.Matches(msg, DefaultKeyMap.Query):
		return true, m.setFocus(PaneQuery)
	case key.Matches(msg, DefaultKeyMap.Refresh):
		if m.state.CurrentTicker != "" {
			return true, searchCmd(m.services, m.state.CurrentTicker)
		}
		return true, bootstrapCmd(m.services)
	}
	return false, nil
}

// View renders the full layout.
func (m AppModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	spin := m.spinner.View()

	sidebarStyle := PaneStyle
	if m.focus == PaneSidebar {
		sidebarStyle = FocusedPaneStyle
	}
	topStyle := PaneStyle
	if m.focus == PaneQuery {
		topStyle = FocusedPaneStyle
	}
	dashStyle := PaneStyle
	if m.focus == PaneDashboard {
		dashStyle = FocusedPaneStyle
	}

	bodyHeight := max(m.height-1, 3)
	mainWidth := max(m.width-sidebarWidth, 20)

	left := sidebarStyle.Width(sidebarWidth - 2).Height(bodyHeight - 2).Render(m.sidebar.View())
	top := topStyle.Width(mainWidth - 2).Render(m.topbar.View(spin))
	dash := dashStyle.Width(mainWidth - 2).Height(max(bodyHeight-5, 1)).Render(m.dashboard.View(spin))
	right := lipgloss.JoinVertical(lipgloss.Left, top, dash)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	help := HelpStyle.Render(" tab pane • / ask • enter analyze • a add • d remove • R refresh • q quit")
	return lipgloss.JoinVertical(lipgloss.Left, body, help)
}

// SetSize updates dimensions on the root model and propagates to children.
func (m *AppModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	mainWidth := max(w-sidebarWidth, 20)
	bodyHeight := max(h-1, 3)
	m.sidebar.SetSize(sidebarWidth-2, bodyHeight-2)
	m.topbar.SetSize(mainWidth - 4)
	m.dashboard.SetSize(mainWidth-4, max(bodyHeight-7, 1))
}

// Close releases the store subscription.
func (m AppModel) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Focus returns the focused pane (for testing).
func (m AppModel) Focus() Pane { return m.focus }

// State returns the last rendered session state (for testing).
func (m AppModel) State() domain.SessionState { return m.state }

func (m *AppModel) applyState(st domain.SessionState) {
	m.state = st
	m.sidebar.SetState(st)
	m.topbar.SetState(st.Loading, st.LastUpdated)
	m.dashboard.SetState(st)
}

func (m *AppModel) setFocus(p Pane) tea.Cmd {
	m.sidebar.Blur()
	m.topbar.Blur()
	m.dashboard.Blur()
	m.focus = p

	switch p {
	case PaneSidebar:
		m.sidebar.Focus()
	case PaneQuery:
		return m.topbar.Focus()
	case PaneDashboard:
		m.dashboard.Focus()
	}
	return nil
}

func (m *AppModel) quit() tea.Cmd {
	m.quitting = true
	m.Close()
	return tea.Quit
}

func (m AppModel) typing() bool {
	return m.focus == PaneQuery || (m.focus == PaneSidebar && m.sidebar.Typing())
}

func (m AppModel) waitForChange() tea.Cmd {
	ch := m.changes
	store := m.services.Store
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return stateMsg(store.Snapshot())
	}
}

func bootstrapCmd(svc Services) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: svc.Store.Bootstrap(context.Background())}
	}
}

func searchCmd(svc Services, ticker string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: svc.Store.SearchStock(context.Background(), ticker)}
	}
}

func queryCmd(svc Services, question string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: svc.Store.QueryRAG(context.Background(), question)}
	}
}

func healthCmd(svc Services) tea.Cmd {
	if svc.Health == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return healthMsg(svc.Health.HealthCheck(ctx))
	}
}

func healthTickCmd(svc Services) tea.Cmd {
	if svc.Health == nil {
		return nil
	}
	return tea.Tick(svc.healthInterval(), func(t time.Time) tea.Msg {
		return healthTickMsg(t)
	})
}

package tui

import (
	"strings"

	"stock-intel/internal/domain"
	"stock-intel/internal/present"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DashboardModel renders the analysis for the displayed result.
type DashboardModel struct {
	services Services
	state    domain.SessionState
	viewport viewport.Model
	focused  bool
	width    int
	height   int
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel(svc Services) DashboardModel {
	return DashboardModel{
		services: svc,
		viewport: viewport.New(0, 0),
	}
}

// Update forwards scrolling keys to the viewport while focused.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok && !m.focused {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// SetState replaces the rendered state. The scroll position resets when the
// displayed result changes.
func (m *DashboardModel) SetState(st domain.SessionState) {
	prev, _ := m.state.Displayed()
	m.state = st
	next, _ := st.Displayed()
	m.viewport.SetContent(m.renderContent())
	if prev != next {
		m.viewport.GotoTop()
	}
}

// View renders the dashboard. spin is the current spinner frame.
func (m DashboardModel) View(spin string) string {
	var banner string
	if m.state.Error != "" && !m.state.Loading {
		banner = ErrorStyle.Render("! "+m.state.Error) + "\n\n"
	}

	if m.state.Loading {
		return m.center(spin + " " + present.LoadingMessage(m.state.CurrentTicker))
	}
	if res, _ := m.state.Displayed(); res == nil {
		return banner + m.center(SubtextStyle.Render(present.EmptyMessage))
	}
	return banner + m.viewport.View()
}

// SetSize updates the model dimensions.
func (m *DashboardModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h
	m.viewport.SetContent(m.renderContent())
}

func (m *DashboardModel) Focus() { m.focused = true }
func (m *DashboardModel) Blur()  { m.focused = false }

// Content returns the full rendered analysis (for testing).
func (m DashboardModel) Content() string { return m.renderContent() }

func (m DashboardModel) center(s string) string {
	return lipgloss.Place(m.width, m.height/2, lipgloss.Center, lipgloss.Center, s)
}

func (m DashboardModel) renderContent() string {
	res, ticker := m.state.Displayed()
	if res == nil {
		return ""
	}

	mainWidth := m.width
	newsWidth := 0
	if m.width >= 100 {
		mainWidth = m.width * 2 / 3
		newsWidth = m.width - mainWidth - 2
	}

	var main []string
	if info := RenderStockInfo(m.state.StockDetails, mainWidth-4); info != "" {
		main = append(main, PaneStyle.Width(mainWidth-2).Render(info))
	}
	main = append(main, PaneStyle.Width(mainWidth-2).Render(RenderAnswer(res, ticker, mainWidth-4)))
	left := strings.Join(main, "\n")

	news := RenderNews(res.News, m.services.now(), max(newsWidth, mainWidth)-4)
	if news == "" {
		return left
	}
	if newsWidth == 0 {
		return left + "\n" + PaneStyle.Width(mainWidth-2).Render(news)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", PaneStyle.Width(newsWidth-2).Render(news))
}

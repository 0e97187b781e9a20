package tui

import (
	"stock-intel/internal/present"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Brand
	BrandStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F1F5F9"))
	AccentColor = lipgloss.Color("#10B981")

	// Pane borders
	PaneStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#334155"))
	FocusedPaneStyle = PaneStyle.BorderForeground(AccentColor)

	// Watchlist rows
	SelectedRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#1E293B"))
	RowStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	CursorStyle      = lipgloss.NewStyle().Foreground(AccentColor).Bold(true)

	// Price colors
	PriceUpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))
	PriceDownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FB7185"))

	// General styles
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	SubtextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
	LabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FB7185"))
	LiveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))
	SourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))
	SpinnerColor = AccentColor
	HelpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#475569"))
)

var toneColors = map[present.Tone]lipgloss.Color{
	present.TonePositive: lipgloss.Color("#34D399"),
	present.ToneMixed:    lipgloss.Color("#FBBF24"),
	present.ToneNegative: lipgloss.Color("#FB7185"),
	present.ToneNeutral:  lipgloss.Color("#94A3B8"),
	present.ToneHigh:     lipgloss.Color("#818CF8"),
	present.ToneMedium:   lipgloss.Color("#94A3B8"),
	present.ToneLow:      lipgloss.Color("#FB7185"),
}

// ToneStyle returns the foreground style for a presentation tone.
func ToneStyle(t present.Tone) lipgloss.Style {
	c, ok := toneColors[t]
	if !ok {
		c = toneColors[present.ToneNeutral]
	}
	return lipgloss.NewStyle().Foreground(c)
}

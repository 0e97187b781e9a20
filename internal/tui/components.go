package tui

import (
	"fmt"
	"strings"
	"time"

	"stock-intel/internal/domain"
	"stock-intel/internal/present"

	"github.com/charmbracelet/lipgloss"
)

// RenderSentimentBadge renders the sentiment label with its arrow in the
// sentiment's color.
func RenderSentimentBadge(s domain.Sentiment) string {
	style := present.SentimentCategory(s)
	label := strings.ToUpper(string(s))
	if label == "" {
		label = strings.ToUpper(string(domain.SentimentNeutral))
	}
	return ToneStyle(style.Tone).Bold(true).Render(style.Arrow + " " + label)
}

// SentimentDot is the small colored marker shown next to watchlist tickers.
func SentimentDot(s domain.Sentiment) string {
	return ToneStyle(present.SentimentCategory(s).Tone).Render("●")
}

func RenderConfidence(c domain.Confidence) string {
	return LabelStyle.Render("Confidence: ") + ToneStyle(present.ConfidenceCategory(c)).Bold(true).Render(string(c))
}

// RenderStockInfo renders the price headline and metric grid. Missing
// details render nothing.
func RenderStockInfo(d *domain.StockDetails, width int) string {
	if d == nil {
		return ""
	}
	p := present.Price(*d)

	changeStyle := PriceDownStyle
	arrow := "▼"
	if p.Up {
		changeStyle = PriceUpStyle
		arrow = "▲"
	}

	headline := fmt.Sprintf("%s  %s   %s %s",
		LabelStyle.Render("Current Price"),
		HeaderStyle.Render(p.Price),
		changeStyle.Render(arrow+" "+p.Change),
		SubtextStyle.Render("Mkt Cap "+p.MarketCap),
	)

	cellWidth := 22
	cols := width / cellWidth
	if cols < 1 {
		cols = 1
	}

	var rows []string
	var row []string
	metrics := present.Metrics(*d)
	for i, mt := range metrics {
		cell := lipgloss.NewStyle().Width(cellWidth).Render(
			LabelStyle.Render(strings.ToUpper(mt.Label)) + "\n" + HeaderStyle.Render(mt.Value),
		)
		row = append(row, cell)
		if (i+1)%cols == 0 || i == len(metrics)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}

	return headline + "\n\n" + strings.Join(rows, "\n")
}

// RenderAnswer renders the analysis card. ticker is empty for query results.
func RenderAnswer(res *domain.DisplayResult, ticker string, width int) string {
	if res == nil {
		return ""
	}
	if width < 20 {
		width = 20
	}

	var lines []string
	lines = append(lines, HeaderStyle.Render("✦ "+present.AnalysisTitle(ticker))+"   "+RenderSentimentBadge(res.Sentiment))
	lines = append(lines, RenderConfidence(res.Confidence))
	lines = append(lines, "")
	lines = append(lines, lipgloss.NewStyle().Width(width).Render(res.Answer))

	if len(res.Evidence) > 0 {
		lines = append(lines, "")
		lines = append(lines, LabelStyle.Bold(true).Render("Key Evidence & Sources"))
		for _, ev := range res.Evidence {
			lines = append(lines, lipgloss.NewStyle().Width(width).Render("• "+ev.Summary))
			if ev.SourceURL != "" {
				lines = append(lines, SubtextStyle.Render("  "+ev.SourceURL))
			}
		}
	}

	return strings.Join(lines, "\n")
}

// RenderNews renders the news feed. An empty feed renders nothing.
func RenderNews(items []domain.NewsItem, now time.Time, width int) string {
	if len(items) == 0 {
		return ""
	}
	if width < 20 {
		width = 20
	}

	lines := []string{HeaderStyle.Render("Live News") + " " + LiveStyle.Render("●")}
	for _, item := range items {
		lines = append(lines, "")
		lines = append(lines, SourceStyle.Render(item.Source)+SubtextStyle.Render(" • "+present.TimeAgo(item.Timestamp, now)))
		lines = append(lines, lipgloss.NewStyle().Width(width).Render(item.Title))
		if item.URL != "" {
			lines = append(lines, SubtextStyle.Render(item.URL))
		}
	}
	lines = append(lines, "", SubtextStyle.Italic(true).Render("Streaming updates..."))
	return strings.Join(lines, "\n")
}

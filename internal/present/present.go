// Package present holds the display rules shared by every dashboard surface.
package present

import (
	"fmt"
	"math"
	"strings"
	"time"

	"stock-intel/internal/domain"

	"github.com/dustin/go-humanize"
)

const (
	Missing = "-"

	LoadingPrefix = "Analyzing market signals"
	EmptyMessage  = "Select a stock or search to begin analysis"
	NoNewsMessage = "No recent news"
	NeverUpdated  = "—"
)

// Tone is the visual category a sentiment or confidence maps to.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneMixed    Tone = "mixed"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"

	ToneHigh   Tone = "high"
	ToneMedium Tone = "medium"
	ToneLow    Tone = "low"
)

type SentimentStyle struct {
	Tone  Tone
	Arrow string
}

var sentimentStyles = map[domain.Sentiment]SentimentStyle{
	domain.SentimentPositive: {Tone: TonePositive, Arrow: "▲"},
	domain.SentimentMixed:    {Tone: ToneMixed, Arrow: "■"},
	domain.SentimentNegative: {Tone: ToneNegative, Arrow: "▼"},
	domain.SentimentNeutral:  {Tone: ToneNeutral, Arrow: "■"},
}

// SentimentCategory looks s up; anything unrecognised renders as Neutral.
func SentimentCategory(s domain.Sentiment) SentimentStyle {
	if style, ok := sentimentStyles[s]; ok {
		return style
	}
	return sentimentStyles[domain.SentimentNeutral]
}

// ConfidenceCategory maps c to its treatment; unknown values get Low.
func ConfidenceCategory(c domain.Confidence) Tone {
	switch c {
	case domain.ConfidenceHigh:
		return ToneHigh
	case domain.ConfidenceMedium:
		return ToneMedium
	default:
		return ToneLow
	}
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 and the zone-less ISO forms; zone-less
// values are read in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TimeAgo renders ts relative to now. Timestamps a day or more old render as
// a M/D/YYYY date; unparsable input is returned unchanged.
func TimeAgo(ts string, now time.Time) string {
	t, ok := ParseTimestamp(ts, now.Location())
	if !ok {
		return ts
	}
	secs := int64(math.Floor(now.Sub(t).Seconds()))
	switch {
	case secs < 60:
		return "Just now"
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	}
	return t.In(now.Location()).Format("1/2/2006")
}

// LastUpdated renders the HH:MM:SS clock of t, or a dash when unset.
func LastUpdated(t *time.Time) string {
	if t == nil {
		return NeverUpdated
	}
	return t.Format("15:04:05")
}

// LoadingMessage is shown while a request is in flight.
func LoadingMessage(ticker string) string {
	if ticker == "" {
		return LoadingPrefix + "..."
	}
	return LoadingPrefix + " for " + ticker + "..."
}

// AnalysisTitle heads the answer card; query results carry no ticker.
func AnalysisTitle(ticker string) string {
	if ticker == "" {
		return "AI Analysis"
	}
	return "AI Analysis: " + ticker
}

// FormatNumber groups thousands with commas and keeps at most two
// fraction digits.
func FormatNumber(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0
	}
	return humanize.Commaf(r)
}

func FormatOptional(v *float64) string {
	if v == nil {
		return Missing
	}
	return FormatNumber(*v)
}

// FormatLargeNumber abbreviates to T/B/M with two decimals. Zero and missing
// values render as a dash.
func FormatLargeNumber(v *float64) string {
	if v == nil || *v == 0 || math.IsNaN(*v) {
		return Missing
	}
	n := *v
	switch {
	case n >= 1e12:
		return fmt.Sprintf("%.2fT", n/1e12)
	case n >= 1e9:
		return fmt.Sprintf("%.2fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	}
	return FormatNumber(n)
}

// FormatPercent renders a ratio such as 0.153 as "15.30%".
func FormatPercent(v *float64) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func CurrencySymbol(currency string) string {
	if currency == "INR" {
		return "₹"
	}
	return "$"
}

// Metric is one labelled cell of the stock info card.
type Metric struct {
	Label string
	Value string
}

// PriceLine is the headline of the stock info card.
type PriceLine struct {
	Price     string
	Change    string
	Up        bool
	MarketCap string
}

func Price(d domain.StockDetails) PriceLine {
	return PriceLine{
		Price:     CurrencySymbol(d.Currency) + FormatOptional(d.Price),
		Change:    fmt.Sprintf("%s (%s%%)", FormatNumber(d.Change), FormatNumber(d.ChangePercent)),
		Up:        d.Change >= 0,
		MarketCap: FormatLargeNumber(d.MarketCap),
	}
}

func Metrics(d domain.StockDetails) []Metric {
	return []Metric{
		{Label: "Day Range", Value: fmt.Sprintf("L: %s | H: %s", FormatOptional(d.Low), FormatOptional(d.High))},
		{Label: "Volume", Value: FormatLargeNumber(d.Volume)},
		{Label: "P/E Ratio", Value: FormatOptional(d.PERatio)},
		{Label: "ROE", Value: FormatPercent(d.ROE)},
		{Label: "Margin", Value: FormatPercent(d.ProfitMargin)},
	}
}

package notifier

import (
	"fmt"
	"strings"
	"time"

	"MAWatch/internal/model"
	"MAWatch/internal/strategy"
)

// Header returns the title line of the alert message for a rule.
func Header(kind model.RuleKind, spans model.Spans) string {
	switch kind {
	case model.RuleNearLongEMA:
		return fmt.Sprintf("Near EMA%d", spans.Long)
	case model.RuleNearSMA200:
		return fmt.Sprintf("Near SMA%d", model.SMASlow)
	case model.RuleNearMediumEMA:
		return fmt.Sprintf("Near EMA%d", spans.Medium)
	default:
		return string(kind)
	}
}

// FormatAlertGroup builds the consolidated message of one rule: the header, then one line per match.
func FormatAlertGroup(kind model.RuleKind, spans model.Spans, matches []model.RuleMatch) string {
	lines := make([]string, 0, len(matches)+1)
	lines = append(lines, Header(kind, spans))
	for _, m := range matches {
		lines = append(lines, strategy.FormatLine(m))
	}
	return strings.Join(lines, "\n")
}

// ChartCaption is the photo caption sent with a symbol's chart.
func ChartCaption(symbol string) string {
	return fmt.Sprintf("%s daily candles, last 1 year (with MAs)", symbol)
}

// FormatRunSummary formats the outcome of a detection pass as a command reply.
func FormatRunSummary(report *model.RunReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 Scan finished | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Symbols: %d | Alerts: %d | Failed: %d\n",
		len(report.Results), len(report.Alerted), len(report.Failed())))
	for _, res := range report.Failed() {
		b.WriteString(fmt.Sprintf("  %s (%s): %v\n", res.Symbol, res.Stage, res.Err))
	}
	if len(report.Alerted) == 0 {
		b.WriteString("No symbol is near a watched moving average.")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatWatchlist lists the configured symbols and rule parameters.
func FormatWatchlist(symbols []string, spans model.Spans, nearPercent float64) string {
	var b strings.Builder
	b.WriteString("👀 Watchlist\n\n")
	b.WriteString(strings.Join(symbols, ", "))
	b.WriteString(fmt.Sprintf("\n\nEMA long/medium: %d/%d\n", spans.Long, spans.Medium))
	b.WriteString(fmt.Sprintf("EMA long-lower/short: %d/%d\n", spans.LongLower, spans.Short))
	b.WriteString(fmt.Sprintf("Threshold: %.2f%%", nearPercent*100))
	return b.String()
}

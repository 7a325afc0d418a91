package strategy

import (
	"fmt"
	"math"

	"MAWatch/internal/model"
)

// FormatLine renders one match as a single report line.
func FormatLine(m model.RuleMatch) string {
	pct := m.DiffPct * 100
	// float noise around zero would otherwise print as -0.00
	if math.Abs(pct) < 0.005 {
		pct = 0
	}
	return fmt.Sprintf("%s%s price %.2f distance %.2f%%", m.Trend, m.Symbol, m.Price, pct)
}

package strategy

import (
	"math"

	"MAWatch/internal/calculator"
	"MAWatch/internal/model"
)

// DefaultNearPercent is the proximity threshold used when none is configured.
const DefaultNearPercent = 0.01

// boundaryTolerance absorbs float rounding so a price exactly at the threshold still matches.
const boundaryTolerance = 1e-9

// Rule pairs a rule kind with the indicator it measures the price against.
type Rule struct {
	Kind      model.RuleKind
	Reference func(model.Snapshot) float64
}

// Rules defines the proximity checks in priority order. The first match wins.
var Rules = []Rule{
	{model.RuleNearLongEMA, func(s model.Snapshot) float64 { return s.EMALong }},
	{model.RuleNearSMA200, func(s model.Snapshot) float64 { return s.SMA200 }},
	{model.RuleNearMediumEMA, func(s model.Snapshot) float64 { return s.EMAMedium }},
}

// Classifier decides which proximity rule, if any, a snapshot triggers.
type Classifier struct {
	NearPercent float64
	Rules       []Rule
}

// NewClassifier creates a Classifier using the default rule table.
func NewClassifier(nearPercent float64) *Classifier {
	if nearPercent <= 0 {
		nearPercent = DefaultNearPercent
	}
	return &Classifier{NearPercent: nearPercent, Rules: Rules}
}

// Classify evaluates the rules in order and returns the first match, or nil.
// Rules whose reference indicator is undefined are skipped.
func (c *Classifier) Classify(symbol string, snap model.Snapshot) *model.RuleMatch {
	for _, r := range c.Rules {
		ref := r.Reference(snap)
		diff, ok := c.near(snap.Price, ref)
		if !ok {
			continue
		}
		return &model.RuleMatch{
			Symbol:    symbol,
			Kind:      r.Kind,
			Price:     snap.Price,
			Reference: ref,
			DiffPct:   diff,
			Trend:     TrendEmoji(snap),
		}
	}
	return nil
}

// near returns the signed relative distance of price from ref and whether it is within threshold.
func (c *Classifier) near(price, ref float64) (float64, bool) {
	if !calculator.Defined(ref) || ref == 0 || math.IsNaN(price) {
		return 0, false
	}
	diff := (price - ref) / ref
	return diff, math.Abs(diff) <= c.NearPercent+boundaryTolerance
}

// TrendEmoji compares SMA50 against SMA200: red when below, green when above.
func TrendEmoji(snap model.Snapshot) string {
	if !calculator.Defined(snap.SMA50) || !calculator.Defined(snap.SMA200) {
		return ""
	}
	switch {
	case snap.SMA50 < snap.SMA200:
		return "🔴"
	case snap.SMA50 > snap.SMA200:
		return "🟢"
	default:
		return ""
	}
}

package model

// RuleKind identifies which proximity rule fired.
type RuleKind string

const (
	RuleNearLongEMA   RuleKind = "NEAR_LONG_EMA"
	RuleNearSMA200    RuleKind = "NEAR_SMA200"
	RuleNearMediumEMA RuleKind = "NEAR_MEDIUM_EMA"
)

// RuleKinds lists every rule in priority order. Alert groups are dispatched in this order.
var RuleKinds = []RuleKind{RuleNearLongEMA, RuleNearSMA200, RuleNearMediumEMA}

// RuleMatch is the classifier output for one symbol.
type RuleMatch struct {
	Symbol    string
	Kind      RuleKind
	Price     float64
	Reference float64
	DiffPct   float64 // signed, (price-reference)/reference
	Trend     string
}

// AlertGroup buckets matches by rule, each bucket in watchlist order.
type AlertGroup map[RuleKind][]RuleMatch

// Add appends a match to the bucket of its rule.
func (g AlertGroup) Add(m RuleMatch) {
	g[m.Kind] = append(g[m.Kind], m)
}

// Stage names where a per-symbol operation failed.
type Stage string

const (
	StageFetch      Stage = "fetch"
	StageIndicators Stage = "indicators"
	StageClassify   Stage = "classify"
	StageRender     Stage = "render"
	StageSend       Stage = "send"
)

// SymbolResult is the detection outcome of one watchlist symbol.
type SymbolResult struct {
	Symbol string
	Match  *RuleMatch
	Err    error
	Stage  Stage // set only when Err != nil
}

// OK reports whether the symbol was evaluated without error.
func (r SymbolResult) OK() bool { return r.Err == nil }

// ChartResult is the outcome of rendering and sending one alerted symbol's chart.
type ChartResult struct {
	Symbol string
	Path   string
	Err    error
	Stage  Stage
}

// RunReport summarizes one detection pass.
type RunReport struct {
	Results        []SymbolResult
	Groups         AlertGroup
	Alerted        []string
	MessagesSent   int
	MessagesFailed int
	Charts         []ChartResult
}

// Failed returns the symbols whose detection failed.
func (r *RunReport) Failed() []SymbolResult {
	var out []SymbolResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

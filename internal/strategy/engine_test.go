package strategy

import (
	"math"
	"testing"

	"MAWatch/internal/model"
)

func snapshot(price float64) model.Snapshot {
	nan := math.NaN()
	return model.Snapshot{
		Price: price,
		IndicatorSet: model.IndicatorSet{
			EMALong: nan, EMAMedium: nan, EMALongLower: nan, EMAShort: nan,
			SMA10: nan, SMA50: nan, SMA200: nan,
		},
	}
}

func TestClassify_PriorityLongEMAWins(t *testing.T) {
	snap := snapshot(100)
	snap.EMALong = 100.5
	snap.SMA200 = 99.7
	snap.EMAMedium = 100.1

	m := NewClassifier(0.01).Classify("AAPL", snap)
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.Kind != model.RuleNearLongEMA {
		t.Errorf("expected %s, got %s", model.RuleNearLongEMA, m.Kind)
	}
	if m.Reference != 100.5 {
		t.Errorf("reference: got %f, want 100.5", m.Reference)
	}
}

func TestClassify_FallsThroughInOrder(t *testing.T) {
	tests := []struct {
		name    string
		emaLong float64
		sma200  float64
		emaMed  float64
		want    model.RuleKind
	}{
		{"sma200 when long ema far", 150, 100.5, 100.2, model.RuleNearSMA200},
		{"medium ema when others far", 150, 50, 99.5, model.RuleNearMediumEMA},
		{"long ema undefined skips to sma200", math.NaN(), 100.9, 100, model.RuleNearSMA200},
	}
	c := NewClassifier(0.01)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(100)
			snap.EMALong, snap.SMA200, snap.EMAMedium = tt.emaLong, tt.sma200, tt.emaMed
			m := c.Classify("MSFT", snap)
			if m == nil {
				t.Fatal("expected a match")
			}
			if m.Kind != tt.want {
				t.Errorf("got %s, want %s", m.Kind, tt.want)
			}
		})
	}
}

func TestClassify_NoMatch(t *testing.T) {
	snap := snapshot(100)
	snap.EMALong, snap.SMA200, snap.EMAMedium = 120, 80, 90
	if m := NewClassifier(0.01).Classify("AMD", snap); m != nil {
		t.Errorf("expected no match, got %+v", m)
	}
}

func TestClassify_AllUndefined(t *testing.T) {
	if m := NewClassifier(0.01).Classify("NEW", snapshot(100)); m != nil {
		t.Errorf("expected no match for undefined indicators, got %+v", m)
	}
}

func TestClassify_ThresholdBoundaryInclusive(t *testing.T) {
	c := NewClassifier(0.01)
	for _, price := range []float64{100 * 1.01, 100 * 0.99} {
		snap := snapshot(price)
		snap.EMALong = 100
		if m := c.Classify("X", snap); m == nil {
			t.Errorf("price %.4f at the boundary should match", price)
		}
	}
	for _, price := range []float64{101.01, 98.99} {
		snap := snapshot(price)
		snap.EMALong = 100
		if m := c.Classify("X", snap); m != nil {
			t.Errorf("price %.4f beyond the boundary should not match", price)
		}
	}
}

func TestClassify_SignedDiff(t *testing.T) {
	snap := snapshot(99.5)
	snap.EMALong = 100
	m := NewClassifier(0.01).Classify("COST", snap)
	if m == nil {
		t.Fatal("expected a match")
	}
	if math.Abs(m.DiffPct-(-0.005)) > 1e-12 {
		t.Errorf("diff: got %f, want -0.005", m.DiffPct)
	}
	if got, want := FormatLine(*m), "COST price 99.50 distance -0.50%"; got != want {
		t.Errorf("line: got %q, want %q", got, want)
	}
}

func TestClassify_ConstantPriceDistanceZero(t *testing.T) {
	snap := model.Snapshot{Price: 42, IndicatorSet: model.IndicatorSet{
		EMALong: 42, EMAMedium: 42, EMALongLower: 42, EMAShort: 42, SMA10: 42, SMA50: 42, SMA200: 42,
	}}
	m := NewClassifier(0.01).Classify("FLAT", snap)
	if m == nil || m.Kind != model.RuleNearLongEMA {
		t.Fatalf("expected NearLongEMA, got %+v", m)
	}
	if m.DiffPct != 0 || m.Trend != "" {
		t.Errorf("expected zero distance and no trend marker, got %+v", m)
	}
	if got := FormatLine(*m); got != "FLAT price 42.00 distance 0.00%" {
		t.Errorf("unexpected line %q", got)
	}
}

func TestTrendEmoji(t *testing.T) {
	tests := []struct {
		name          string
		sma50, sma200 float64
		want          string
	}{
		{"bearish", 100, 110, "🔴"},
		{"bullish", 120, 110, "🟢"},
		{"equal", 110, 110, ""},
		{"sma200 undefined", 100, math.NaN(), ""},
		{"sma50 undefined", math.NaN(), 110, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(1)
			snap.SMA50, snap.SMA200 = tt.sma50, tt.sma200
			if got := TrendEmoji(snap); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_TrendOnLine(t *testing.T) {
	snap := snapshot(200)
	snap.SMA200 = 201
	snap.SMA50 = 180
	m := NewClassifier(0.01).Classify("META", snap)
	if m == nil {
		t.Fatal("expected a match")
	}
	if got, want := FormatLine(*m), "🔴META price 200.00 distance -0.50%"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"MAWatch/internal/model"
)

var testSpans = model.Spans{Long: 576, Medium: 169, LongLower: 676, Short: 144}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func makeSeries(closes []float64) *model.PriceSeries {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time: start.AddDate(0, 0, i), Open: c, High: c * 1.01, Low: c * 0.99, Close: c, Volume: 1000,
		}
	}
	return &model.PriceSeries{Symbol: "TEST", Bars: bars}
}

func constant(n int, p float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func TestEMA_DecayingWeights(t *testing.T) {
	// span 3 => alpha 0.5, weights 1, 0.5, 0.25 from the newest close back.
	got := EMA([]float64{1, 2, 3}, 3)
	assertClose(t, "bar 0", got[0], 1, 1e-12)
	assertClose(t, "bar 1", got[1], 2.5/1.5, 1e-12)
	assertClose(t, "bar 2", got[2], 4.25/1.75, 1e-12)
}

func TestEMA_ConstantPrice(t *testing.T) {
	for i, v := range EMA(constant(50, 42), 20) {
		assertClose(t, "constant EMA", v, 42, 1e-9)
		if !Defined(v) {
			t.Fatalf("bar %d: EMA should be defined from the first bar", i)
		}
	}
}

func TestSMA_Period3(t *testing.T) {
	got := SMA([]float64{100, 102, 104, 103, 105}, 3)
	if Defined(got[0]) || Defined(got[1]) {
		t.Fatalf("leading values should be undefined, got %v", got[:2])
	}
	assertClose(t, "bar 2", got[2], 102, 1e-9)
	assertClose(t, "bar 3", got[3], 103, 1e-9)
	assertClose(t, "bar 4", got[4], 104, 1e-9)
}

func TestSMA_ShorterThanSpan(t *testing.T) {
	for i, v := range SMA([]float64{1, 2, 3}, 10) {
		if Defined(v) {
			t.Errorf("bar %d: expected undefined, got %f", i, v)
		}
	}
}

func TestComputeIndicators_ConstantConverges(t *testing.T) {
	series := makeSeries(constant(250, 87.5))
	sets, err := ComputeIndicators(series, testSpans)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, err := SnapshotOf(series, sets)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	for name, v := range map[string]float64{
		"EMALong": snap.EMALong, "EMAMedium": snap.EMAMedium, "EMALongLower": snap.EMALongLower,
		"EMAShort": snap.EMAShort, "SMA10": snap.SMA10, "SMA50": snap.SMA50, "SMA200": snap.SMA200,
	} {
		assertClose(t, name, v, 87.5, 1e-9)
	}
	assertClose(t, "price", snap.Price, 87.5, 0)
}

func TestComputeIndicators_ShortSeries(t *testing.T) {
	series := makeSeries(constant(150, 10))
	sets, err := ComputeIndicators(series, testSpans)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := sets[len(sets)-1]
	if Defined(last.SMA200) {
		t.Errorf("SMA200 should be undefined with 150 bars, got %f", last.SMA200)
	}
	if !Defined(last.SMA50) || !Defined(last.EMALong) {
		t.Error("SMA50 and EMALong should be defined with 150 bars")
	}
}

func TestComputeIndicators_Empty(t *testing.T) {
	_, err := ComputeIndicators(&model.PriceSeries{Symbol: "X"}, testSpans)
	if !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}

func TestComputeIndicators_DoesNotMutate(t *testing.T) {
	series := makeSeries([]float64{5, 6, 7, 8})
	before := series.Clone()
	if _, err := ComputeIndicators(series, testSpans); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range before.Bars {
		if before.Bars[i] != series.Bars[i] {
			t.Fatalf("bar %d changed: %+v -> %+v", i, before.Bars[i], series.Bars[i])
		}
	}
}

func TestHighLow(t *testing.T) {
	series := makeSeries([]float64{10, 30, 5, 30, 20})
	high, low, err := HighLow(series.Bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if high.Index != 1 {
		t.Errorf("high index: got %d, want 1 (earliest of ties)", high.Index)
	}
	assertClose(t, "high", high.Value, 30.3, 1e-9)
	if low.Index != 2 {
		t.Errorf("low index: got %d, want 2", low.Index)
	}
	assertClose(t, "low", low.Value, 4.95, 1e-9)

	if _, _, err := HighLow(nil); err == nil {
		t.Error("expected error for empty bars")
	}
}

func TestLastDefined(t *testing.T) {
	v, ok := LastDefined([]float64{1, 2, math.NaN()})
	if !ok || v != 2 {
		t.Errorf("got %v %v, want 2 true", v, ok)
	}
	if AnyDefined([]float64{math.NaN(), math.NaN()}) {
		t.Error("expected no defined values")
	}
}

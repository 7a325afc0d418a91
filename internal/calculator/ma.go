package calculator

import (
	"errors"
	"math"

	"MAWatch/internal/model"

	"github.com/markcheno/go-talib"
)

// ErrEmptySeries is returned when indicators are requested for a series without bars.
var ErrEmptySeries = errors.New("empty price series")

// Defined reports whether an indicator value is present. Undefined values are NaN.
func Defined(v float64) bool { return !math.IsNaN(v) }

// EMA computes the exponentially weighted moving average with alpha = 2/(span+1).
// Weights decay geometrically from the latest close back to the first one and are
// normalized by their sum, so the average is defined from the first bar on.
func EMA(prices []float64, span int) []float64 {
	out := make([]float64, len(prices))
	if span <= 0 {
		fillNaN(out)
		return out
	}
	decay := 1 - 2.0/float64(span+1)
	var num, den float64
	for i, p := range prices {
		num = p + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// SMA computes the trailing simple moving average. The first span-1 values are NaN.
func SMA(prices []float64, span int) []float64 {
	if span <= 0 || len(prices) < span {
		out := make([]float64, len(prices))
		fillNaN(out)
		return out
	}
	out := talib.Sma(prices, span)
	for i := 0; i < span-1; i++ {
		out[i] = math.NaN()
	}
	return out
}

// ComputeIndicators derives the full IndicatorSet for every bar of the series.
// The series itself is left untouched.
func ComputeIndicators(series *model.PriceSeries, spans model.Spans) ([]model.IndicatorSet, error) {
	if series.Empty() {
		return nil, ErrEmptySeries
	}
	closes := series.Closes()

	emaLong := EMA(closes, spans.Long)
	emaMedium := EMA(closes, spans.Medium)
	emaLongLower := EMA(closes, spans.LongLower)
	emaShort := EMA(closes, spans.Short)
	sma10 := SMA(closes, model.SMAFast)
	sma50 := SMA(closes, model.SMAMedium)
	sma200 := SMA(closes, model.SMASlow)

	sets := make([]model.IndicatorSet, len(closes))
	for i := range sets {
		sets[i] = model.IndicatorSet{
			EMALong:      emaLong[i],
			EMAMedium:    emaMedium[i],
			EMALongLower: emaLongLower[i],
			EMAShort:     emaShort[i],
			SMA10:        sma10[i],
			SMA50:        sma50[i],
			SMA200:       sma200[i],
		}
	}
	return sets, nil
}

// SnapshotOf returns the indicator state at the last bar.
func SnapshotOf(series *model.PriceSeries, sets []model.IndicatorSet) (model.Snapshot, error) {
	if series.Empty() || len(sets) != series.Len() {
		return model.Snapshot{}, ErrEmptySeries
	}
	last := series.Last()
	return model.Snapshot{
		Time:         last.Time,
		Price:        last.Close,
		IndicatorSet: sets[len(sets)-1],
	}, nil
}

func fillNaN(vals []float64) {
	for i := range vals {
		vals[i] = math.NaN()
	}
}

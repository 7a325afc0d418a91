package calculator

import (
	"errors"
	"math"

	"MAWatch/internal/model"
)

// Extreme is the highest high or lowest low of a bar window and where it occurred.
type Extreme struct {
	Value float64
	Index int
}

// HighLow scans the bars and returns the highest high and the lowest low.
// Ties resolve to the earliest bar.
func HighLow(bars []model.OHLCV) (high, low Extreme, err error) {
	if len(bars) == 0 {
		return Extreme{}, Extreme{}, errors.New("no bars provided")
	}
	high = Extreme{Value: math.Inf(-1)}
	low = Extreme{Value: math.Inf(1)}
	for i, b := range bars {
		if b.High > high.Value {
			high = Extreme{Value: b.High, Index: i}
		}
		if b.Low < low.Value {
			low = Extreme{Value: b.Low, Index: i}
		}
	}
	return high, low, nil
}

// LastDefined returns the most recent defined value of an indicator column.
func LastDefined(vals []float64) (float64, bool) {
	for i := len(vals) - 1; i >= 0; i-- {
		if Defined(vals[i]) {
			return vals[i], true
		}
	}
	return math.NaN(), false
}

// AnyDefined reports whether at least one value of the column is defined.
func AnyDefined(vals []float64) bool {
	_, ok := LastDefined(vals)
	return ok
}

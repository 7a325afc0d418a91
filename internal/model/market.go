package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the daily bars of one symbol, ordered by Time.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Empty reports whether the series carries no bars.
func (s *PriceSeries) Empty() bool { return s.Len() == 0 }

// Last returns the most recent bar. Callers must check Empty first.
func (s *PriceSeries) Last() OHLCV { return s.Bars[len(s.Bars)-1] }

// Closes extracts the close prices in bar order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Clone returns a deep copy so callers can window or reorder bars freely.
func (s *PriceSeries) Clone() *PriceSeries {
	bars := make([]OHLCV, len(s.Bars))
	copy(bars, s.Bars)
	return &PriceSeries{Symbol: s.Symbol, Bars: bars, FetchedAt: s.FetchedAt}
}

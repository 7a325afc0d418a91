package model

import "time"

// Spans configures the EMA periods used by the detector and the chart.
type Spans struct {
	Long      int `yaml:"long"`
	Medium    int `yaml:"medium"`
	LongLower int `yaml:"long_lower"`
	Short     int `yaml:"short"`
}

// SMA periods are fixed.
const (
	SMAFast   = 10
	SMAMedium = 50
	SMASlow   = 200
)

// IndicatorSet holds the derived values of one bar. Undefined values are NaN.
type IndicatorSet struct {
	EMALong      float64
	EMAMedium    float64
	EMALongLower float64
	EMAShort     float64
	SMA10        float64
	SMA50        float64
	SMA200       float64
}

// Snapshot is the indicator state at the last bar of a series.
type Snapshot struct {
	Time  time.Time
	Price float64
	IndicatorSet
}

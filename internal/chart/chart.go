// Package chart builds the one-year candlestick chart attached to every alert:
// moving-average overlays, high/low reference segments, a dashed last-close
// line and margin labels with the latest values.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"MAWatch/internal/calculator"
	"MAWatch/internal/model"
)

// ErrEmptyWindow is returned when no bar falls inside the one-year window.
var ErrEmptyWindow = errors.New("empty chart window")

var (
	colorLongEMA   = color.RGBA{R: 0x00, G: 0xF5, B: 0xFF, A: 0xFF}
	colorMediumEMA = color.RGBA{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF}
	colorSMA10     = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	colorSMA50     = color.RGBA{R: 0x00, G: 0xA3, B: 0xFF, A: 0xFF}
	colorSMA200    = color.RGBA{R: 0x39, G: 0xFF, B: 0x14, A: 0xFF}
	colorRange     = color.RGBA{R: 0x8E, G: 0xCA, B: 0xE6, A: 0xFF}
	colorText      = color.RGBA{R: 0xCB, G: 0xD5, B: 0xE1, A: 0xFF}
	colorUp        = color.RGBA{R: 0x26, G: 0xA6, B: 0x9A, A: 0xFF}
	colorDown      = color.RGBA{R: 0xEF, G: 0x53, B: 0x50, A: 0xFF}
	colorBG        = color.RGBA{R: 0x0A, G: 0x0A, B: 0x0A, A: 0xFF}
)

// Line is one indicator overlay aligned with Chart.Bars. Undefined points are NaN.
type Line struct {
	Name   string
	Color  color.RGBA
	Values []float64
}

// Last returns the most recent defined value of the line.
func (l Line) Last() float64 {
	v, _ := calculator.LastDefined(l.Values)
	return v
}

// Segment is a horizontal reference from bar From to the right edge.
type Segment struct {
	Value float64
	From  int
}

// Label is a margin annotation at price level Y.
type Label struct {
	Name      string
	NameColor color.RGBA
	Text      string
	Y         float64
	Color     color.RGBA
}

// Chart is everything needed to draw one symbol's chart.
type Chart struct {
	Symbol      string
	Title       string
	Bars        []model.OHLCV
	Lines       []Line
	High        Segment
	Low         Segment
	LastClose   float64
	RightLabels []Label
	LeftLabel   Label
}

// overlay describes one indicator line in drawing order.
type overlay struct {
	name  string
	color color.RGBA
	value func(model.IndicatorSet) float64
}

func overlays(spans model.Spans) []overlay {
	return []overlay{
		{fmt.Sprintf("EMA%d", spans.Long), colorLongEMA, func(s model.IndicatorSet) float64 { return s.EMALong }},
		{fmt.Sprintf("EMA%d", spans.LongLower), colorLongEMA, func(s model.IndicatorSet) float64 { return s.EMALongLower }},
		{fmt.Sprintf("EMA%d", spans.Short), colorMediumEMA, func(s model.IndicatorSet) float64 { return s.EMAShort }},
		{fmt.Sprintf("EMA%d", spans.Medium), colorMediumEMA, func(s model.IndicatorSet) float64 { return s.EMAMedium }},
		{"SMA10", colorSMA10, func(s model.IndicatorSet) float64 { return s.SMA10 }},
		{"SMA50", colorSMA50, func(s model.IndicatorSet) float64 { return s.SMA50 }},
		{"SMA200", colorSMA200, func(s model.IndicatorSet) float64 { return s.SMA200 }},
	}
}

// WindowStart returns the index of the first bar within one year of the last bar.
func WindowStart(bars []model.OHLCV) int {
	if len(bars) == 0 {
		return 0
	}
	start := bars[len(bars)-1].Time.AddDate(-1, 0, 0)
	for i, b := range bars {
		if !b.Time.Before(start) {
			return i
		}
	}
	return len(bars)
}

// Build computes indicators over the whole series and cuts the trailing one-year window.
// Overlay values therefore include pre-window history. The series is not modified.
func Build(series *model.PriceSeries, spans model.Spans) (*Chart, error) {
	if series.Empty() {
		return nil, ErrEmptyWindow
	}
	sets, err := calculator.ComputeIndicators(series, spans)
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}

	from := WindowStart(series.Bars)
	if from >= series.Len() {
		return nil, ErrEmptyWindow
	}
	bars := make([]model.OHLCV, series.Len()-from)
	copy(bars, series.Bars[from:])
	window := sets[from:]

	c := &Chart{
		Symbol:    series.Symbol,
		Title:     fmt.Sprintf("%s - Last 1 Year", series.Symbol),
		Bars:      bars,
		LastClose: bars[len(bars)-1].Close,
	}

	for _, o := range overlays(spans) {
		vals := make([]float64, len(window))
		for i, s := range window {
			vals[i] = o.value(s)
		}
		if !calculator.AnyDefined(vals) {
			continue
		}
		line := Line{Name: o.name, Color: o.color, Values: vals}
		c.Lines = append(c.Lines, line)
		last := line.Last()
		c.RightLabels = append(c.RightLabels, Label{
			Name: o.name, NameColor: colorSMA10, Text: fmt.Sprintf("%.2f", last), Y: last, Color: o.color,
		})
	}

	high, low, err := calculator.HighLow(bars)
	if err != nil {
		return nil, fmt.Errorf("high/low: %w", err)
	}
	c.High = Segment{Value: high.Value, From: high.Index}
	c.Low = Segment{Value: low.Value, From: low.Index}
	c.RightLabels = append(c.RightLabels,
		Label{Name: "HIGH", NameColor: colorRange, Text: fmt.Sprintf("%.2f", high.Value), Y: high.Value, Color: colorRange},
		Label{Name: "LOW", NameColor: colorRange, Text: fmt.Sprintf("%.2f", low.Value), Y: low.Value, Color: colorRange},
	)
	c.LeftLabel = Label{Text: fmt.Sprintf("%.2f", c.LastClose), Y: c.LastClose, Color: colorText}
	return c, nil
}

// LineByName returns the overlay with the given name.
func (c *Chart) LineByName(name string) (Line, bool) {
	for _, l := range c.Lines {
		if l.Name == name {
			return l, true
		}
	}
	return Line{}, false
}

// priceRange returns the min and max of bars and defined overlay values.
func (c *Chart) priceRange() (lo, hi float64) {
	lo, hi = c.Low.Value, c.High.Value
	for _, l := range c.Lines {
		for _, v := range l.Values {
			if calculator.Defined(v) {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	return lo, hi
}

package chart

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"MAWatch/internal/calculator"
	"MAWatch/internal/model"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Default output size: 12x7.5 in at 150 dpi.
const (
	DefaultWidth  = 12 * vg.Inch
	DefaultHeight = 7.5 * vg.Inch
	DefaultDPI    = 150
)

const (
	leftMargin  = 0.7 * vg.Inch
	rightMargin = 1.4 * vg.Inch
	valueOffset = 0.5 * vg.Inch
)

// Renderer draws charts to PNG and stores them under Dir.
type Renderer struct {
	Dir    string
	Spans  model.Spans
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// NewRenderer creates a Renderer writing into dir (the OS temp dir when empty).
func NewRenderer(dir string, spans model.Spans) *Renderer {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Renderer{Dir: dir, Spans: spans, Width: DefaultWidth, Height: DefaultHeight, DPI: DefaultDPI}
}

// Artifact is a rendered chart kept on disk for the duration of dispatch.
type Artifact struct {
	Symbol string
	Path   string
	PNG    []byte
	Chart  *Chart
}

// Filename returns the base name of the artifact file.
func (a *Artifact) Filename() string { return filepath.Base(a.Path) }

// Save builds, renders and writes the chart of a series. A previous file of the
// same symbol is overwritten.
func (r *Renderer) Save(series *model.PriceSeries) (*Artifact, error) {
	c, err := Build(series, r.Spans)
	if err != nil {
		return nil, err
	}
	png, err := r.Render(c)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", series.Symbol, err)
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	path := filepath.Join(r.Dir, fileSafe(series.Symbol)+"_1y.png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return nil, fmt.Errorf("write chart: %w", err)
	}
	return &Artifact{Symbol: series.Symbol, Path: path, PNG: png, Chart: c}, nil
}

// Render draws the chart and returns PNG bytes.
func (r *Renderer) Render(c *Chart) ([]byte, error) {
	p, err := r.newPlot(c)
	if err != nil {
		return nil, err
	}

	img := vgimg.NewWith(vgimg.UseWH(r.Width, r.Height), vgimg.UseDPI(r.DPI))
	dc := draw.New(img)
	dc.SetColor(colorBG)
	dc.Fill(dc.Rectangle.Path())

	area := draw.Crop(dc, leftMargin, -rightMargin, 0, 0)
	p.Draw(area)
	drawLabels(p, area, c)

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) newPlot(c *Chart) (*plot.Plot, error) {
	p := plot.New()
	p.BackgroundColor = colorBG
	p.Title.Text = c.Title
	p.Title.TextStyle.Color = colorText
	p.Y.Label.Text = "Price"
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.LineStyle.Color = colorText
		ax.Label.TextStyle.Color = colorText
		ax.Tick.Label.Color = colorText
		ax.Tick.LineStyle.Color = colorText
	}
	p.X.Tick.Marker = monthTicks(c.Bars)

	p.Add(&candles{bars: c.Bars})

	for _, l := range c.Lines {
		for _, seg := range definedRuns(l.Values) {
			line, err := plotter.NewLine(seg)
			if err != nil {
				return nil, fmt.Errorf("line %s: %w", l.Name, err)
			}
			line.LineStyle.Color = l.Color
			line.LineStyle.Width = vg.Points(1)
			p.Add(line)
		}
	}

	last := float64(len(c.Bars) - 1)
	for _, s := range []Segment{c.High, c.Low} {
		line, err := plotter.NewLine(plotter.XYs{{X: float64(s.From), Y: s.Value}, {X: last, Y: s.Value}})
		if err != nil {
			return nil, fmt.Errorf("range segment: %w", err)
		}
		line.LineStyle.Color = colorRange
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
	}

	closeLine, err := plotter.NewLine(plotter.XYs{{X: -1, Y: c.LastClose}, {X: last + 1, Y: c.LastClose}})
	if err != nil {
		return nil, fmt.Errorf("last close line: %w", err)
	}
	closeLine.LineStyle.Color = colorText
	closeLine.LineStyle.Width = vg.Points(0.8)
	closeLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(closeLine)

	lo, hi := c.priceRange()
	pad := (hi - lo) * 0.03
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.01, 1e-6)
	}
	p.X.Min, p.X.Max = -1, last+1
	p.Y.Min, p.Y.Max = lo-pad, hi+pad
	return p, nil
}

// drawLabels writes the margin annotations next to the data area.
func drawLabels(p *plot.Plot, area draw.Canvas, c *Chart) {
	data := p.DataCanvas(area)
	_, trY := p.Transforms(&data)

	sty := p.Y.Tick.Label
	sty.Font.Size = vg.Points(8)
	sty.YAlign = text.YCenter

	sty.XAlign = text.XLeft
	for _, l := range c.RightLabels {
		y := trY(l.Y)
		sty.Color = l.NameColor
		data.FillText(sty, vg.Point{X: data.Max.X + vg.Points(4), Y: y}, l.Name)
		sty.Color = l.Color
		data.FillText(sty, vg.Point{X: data.Max.X + vg.Points(4) + valueOffset, Y: y}, l.Text)
	}

	sty.XAlign = text.XRight
	sty.Color = c.LeftLabel.Color
	data.FillText(sty, vg.Point{X: area.Min.X - vg.Points(2), Y: trY(c.LeftLabel.Y)}, c.LeftLabel.Text)
}

// definedRuns splits a column into contiguous runs of defined values.
func definedRuns(vals []float64) []plotter.XYs {
	var runs []plotter.XYs
	var cur plotter.XYs
	for i, v := range vals {
		if !calculator.Defined(v) {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(i), Y: v})
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

// candles draws OHLC bars at x = bar index, so non-trading days leave no gaps.
type candles struct {
	bars []model.OHLCV
}

func (cs *candles) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	n := len(cs.bars)
	if n == 0 {
		return
	}
	half := (c.Max.X - c.Min.X) / vg.Length(n+2) * 0.35
	for i, b := range cs.bars {
		col := colorUp
		if b.Close < b.Open {
			col = colorDown
		}
		x := trX(float64(i))
		wick := draw.LineStyle{Color: col, Width: vg.Points(0.6)}
		c.StrokeLine2(wick, x, trY(b.Low), x, trY(b.High))

		top, bottom := trY(math.Max(b.Open, b.Close)), trY(math.Min(b.Open, b.Close))
		if top-bottom < vg.Points(0.5) {
			c.StrokeLine2(wick, x-half, top, x+half, top)
			continue
		}
		c.FillPolygon(col, []vg.Point{
			{X: x - half, Y: bottom}, {X: x + half, Y: bottom},
			{X: x + half, Y: top}, {X: x - half, Y: top},
		})
	}
}

func (cs *candles) DataRange() (xmin, xmax, ymin, ymax float64) {
	ymin, ymax = math.Inf(1), math.Inf(-1)
	for _, b := range cs.bars {
		ymin = math.Min(ymin, b.Low)
		ymax = math.Max(ymax, b.High)
	}
	return -1, float64(len(cs.bars)), ymin, ymax
}

// monthTicks labels the first bar of each month on the index axis.
type monthTicks []model.OHLCV

func (m monthTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	var prev time.Month
	for i, b := range m {
		if float64(i) < min || float64(i) > max {
			continue
		}
		if i > 0 && b.Time.Month() == prev {
			continue
		}
		prev = b.Time.Month()
		label := b.Time.Format("Jan")
		if b.Time.Month() == time.January || len(ticks) == 0 {
			label = b.Time.Format("Jan 2006")
		}
		ticks = append(ticks, plot.Tick{Value: float64(i), Label: label})
	}
	return ticks
}

func fileSafe(symbol string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, symbol)
}

var _ plot.DataRanger = (*candles)(nil)

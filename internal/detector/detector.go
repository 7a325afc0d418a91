// Package detector runs the watchlist through the indicator engine and the
// proximity classifier, sends one message per triggered rule and a chart for
// every alerted symbol. A failure on one symbol never stops the pass.
package detector

import (
	"context"
	"fmt"
	"log"

	"MAWatch/internal/calculator"
	"MAWatch/internal/chart"
	"MAWatch/internal/model"
	"MAWatch/internal/notifier"
	"MAWatch/internal/strategy"
)

// Source returns the daily price history of a symbol.
type Source interface {
	Collect(ctx context.Context, symbol string) (*model.PriceSeries, error)
}

// Notifier delivers alert text and chart images.
type Notifier interface {
	Send(ctx context.Context, text string) error
	SendPhoto(ctx context.Context, png []byte, filename, caption string) error
}

// ChartRenderer renders and stores the chart of a series.
type ChartRenderer interface {
	Save(series *model.PriceSeries) (*chart.Artifact, error)
}

// Detector executes detection passes. It holds no state between runs.
type Detector struct {
	Source     Source
	Notifier   Notifier
	Classifier *strategy.Classifier
	Charts     ChartRenderer
	Spans      model.Spans
}

// New creates a Detector.
func New(src Source, n Notifier, cls *strategy.Classifier, charts ChartRenderer, spans model.Spans) *Detector {
	return &Detector{Source: src, Notifier: n, Classifier: cls, Charts: charts, Spans: spans}
}

// Run evaluates every symbol in order, dispatches the alert groups and then the
// charts of the alerted symbols. Failures are logged and reported, never returned.
func (d *Detector) Run(ctx context.Context, symbols []string) *model.RunReport {
	report := &model.RunReport{Groups: make(model.AlertGroup)}
	alerted := make(map[string]bool)

	for _, symbol := range symbols {
		res := d.Evaluate(ctx, symbol)
		report.Results = append(report.Results, res)
		if res.Err != nil {
			log.Printf("[WARN] %s: %s failed: %v", symbol, res.Stage, res.Err)
			continue
		}
		if res.Match == nil {
			continue
		}
		report.Groups.Add(*res.Match)
		if !alerted[symbol] {
			alerted[symbol] = true
			report.Alerted = append(report.Alerted, symbol)
		}
	}

	d.sendGroups(ctx, report)

	for _, symbol := range report.Alerted {
		cr := d.sendChart(ctx, symbol)
		if cr.Err != nil {
			log.Printf("[ERROR] %s: chart %s failed: %v", symbol, cr.Stage, cr.Err)
		}
		report.Charts = append(report.Charts, cr)
	}

	log.Printf("[INFO] detection finished: %d symbols, %d alerted, %d failed",
		len(report.Results), len(report.Alerted), len(report.Failed()))
	return report
}

// Evaluate fetches one symbol, computes its indicators and classifies the last bar.
// Panics are recovered and reported as a failure of the current stage.
func (d *Detector) Evaluate(ctx context.Context, symbol string) (res model.SymbolResult) {
	res.Symbol = symbol
	stage := model.StageFetch
	defer func() {
		if r := recover(); r != nil {
			res.Match = nil
			res.Err = fmt.Errorf("panic: %v", r)
			res.Stage = stage
		}
	}()

	series, err := d.Source.Collect(ctx, symbol)
	if err != nil {
		res.Err, res.Stage = err, stage
		return res
	}

	stage = model.StageIndicators
	sets, err := calculator.ComputeIndicators(series, d.Spans)
	if err != nil {
		res.Err, res.Stage = err, stage
		return res
	}
	snap, err := calculator.SnapshotOf(series, sets)
	if err != nil {
		res.Err, res.Stage = err, stage
		return res
	}

	stage = model.StageClassify
	res.Match = d.Classifier.Classify(symbol, snap)
	return res
}

// sendGroups sends one consolidated message per rule that matched, in rule priority order.
func (d *Detector) sendGroups(ctx context.Context, report *model.RunReport) {
	for _, kind := range model.RuleKinds {
		matches := report.Groups[kind]
		if len(matches) == 0 {
			continue
		}
		msg := notifier.FormatAlertGroup(kind, d.Spans, matches)
		log.Printf("[INFO] alert:\n%s", msg)
		if err := d.Notifier.Send(ctx, msg); err != nil {
			report.MessagesFailed++
			log.Printf("[ERROR] send %s alert: %v", kind, err)
			continue
		}
		report.MessagesSent++
	}
}

// sendChart re-fetches the symbol so the chart shows the latest data, renders it and sends it.
func (d *Detector) sendChart(ctx context.Context, symbol string) (cr model.ChartResult) {
	cr.Symbol = symbol
	cr.Stage = model.StageFetch
	defer func() {
		if r := recover(); r != nil {
			cr.Err = fmt.Errorf("panic: %v", r)
		}
	}()

	series, err := d.Source.Collect(ctx, symbol)
	if err != nil {
		cr.Err = err
		return cr
	}

	cr.Stage = model.StageRender
	art, err := d.Charts.Save(series)
	if err != nil {
		cr.Err = err
		return cr
	}
	cr.Path = art.Path

	cr.Stage = model.StageSend
	if err := d.Notifier.SendPhoto(ctx, art.PNG, art.Filename(), notifier.ChartCaption(symbol)); err != nil {
		cr.Err = err
		return cr
	}
	cr.Stage = ""
	return cr
}

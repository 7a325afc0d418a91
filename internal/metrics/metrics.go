// Package metrics exposes Prometheus counters describing detection runs.
// One-shot runs push them to a Pushgateway; the daemon serves them over HTTP.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"MAWatch/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName labels pushed metrics.
const JobName = "mawatch_detector"

// Metrics holds all Prometheus metrics of the detector.
type Metrics struct {
	Registry *prometheus.Registry

	RunsTotal        prometheus.Counter
	RunDuration      prometheus.Histogram
	LastRunTimestamp prometheus.Gauge
	SymbolsTotal     *prometheus.CounterVec // labels: outcome=matched|clear|failed
	FailuresTotal    *prometheus.CounterVec // labels: stage
	MatchesTotal     *prometheus.CounterVec // labels: rule
	MessagesTotal    *prometheus.CounterVec // labels: outcome=sent|failed
	ChartsTotal      *prometheus.CounterVec // labels: outcome=sent|failed
}

// New registers and returns all metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mawatch_runs_total",
			Help: "Total detection passes",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mawatch_run_duration_seconds",
			Help:    "Duration of a full detection pass including charts",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mawatch_last_run_timestamp_seconds",
			Help: "Unix time the last detection pass finished",
		}),
		SymbolsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mawatch_symbols_total",
			Help: "Symbols evaluated by outcome",
		}, []string{"outcome"}),
		FailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mawatch_failures_total",
			Help: "Per-symbol failures by stage",
		}, []string{"stage"}),
		MatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mawatch_matches_total",
			Help: "Proximity matches by rule",
		}, []string{"rule"}),
		MessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mawatch_messages_total",
			Help: "Alert group messages by delivery outcome",
		}, []string{"outcome"}),
		ChartsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mawatch_charts_total",
			Help: "Chart images by delivery outcome",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(
		m.RunsTotal, m.RunDuration, m.LastRunTimestamp,
		m.SymbolsTotal, m.FailuresTotal, m.MatchesTotal,
		m.MessagesTotal, m.ChartsTotal,
	)
	return m
}

// ObserveRun records the outcome of one detection pass.
func (m *Metrics) ObserveRun(report *model.RunReport, took time.Duration) {
	m.RunsTotal.Inc()
	m.RunDuration.Observe(took.Seconds())
	m.LastRunTimestamp.SetToCurrentTime()

	for _, res := range report.Results {
		switch {
		case res.Err != nil:
			m.SymbolsTotal.WithLabelValues("failed").Inc()
			m.FailuresTotal.WithLabelValues(string(res.Stage)).Inc()
		case res.Match != nil:
			m.SymbolsTotal.WithLabelValues("matched").Inc()
			m.MatchesTotal.WithLabelValues(string(res.Match.Kind)).Inc()
		default:
			m.SymbolsTotal.WithLabelValues("clear").Inc()
		}
	}
	m.MessagesTotal.WithLabelValues("sent").Add(float64(report.MessagesSent))
	m.MessagesTotal.WithLabelValues("failed").Add(float64(report.MessagesFailed))
	for _, c := range report.Charts {
		if c.Err != nil {
			m.ChartsTotal.WithLabelValues("failed").Inc()
			m.FailuresTotal.WithLabelValues(string(c.Stage)).Inc()
			continue
		}
		m.ChartsTotal.WithLabelValues("sent").Inc()
	}
}

// Push sends the current values to a Prometheus Pushgateway.
func (m *Metrics) Push(ctx context.Context, gatewayURL string) error {
	if err := push.New(gatewayURL, JobName).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

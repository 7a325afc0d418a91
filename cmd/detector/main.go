package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MAWatch/internal/chart"
	"MAWatch/internal/collector"
	"MAWatch/internal/config"
	"MAWatch/internal/detector"
	"MAWatch/internal/metrics"
	"MAWatch/internal/notifier"
	"MAWatch/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s, watchlist: %v", fetcher.Name(), cfg.Watchlist)

	spans := cfg.Spans()
	det := detector.New(
		collector.NewCollector(fetcher, cfg.DataSource.LookbackYears),
		notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy),
		strategy.NewClassifier(cfg.Rules.NearPercent),
		chart.NewRenderer(cfg.Chart.Dir, spans),
		spans,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	report := det.Run(ctx, cfg.Watchlist)
	took := time.Since(start)

	log.Printf("[INFO] scan finished in %s: %d symbols, %d alerted, %d failed, %d messages sent",
		took.Round(time.Millisecond), len(report.Results), len(report.Alerted), len(report.Failed()), report.MessagesSent)

	if cfg.Metrics.PushgatewayURL != "" {
		m := metrics.New()
		m.ObserveRun(report, took)
		if err := m.Push(ctx, cfg.Metrics.PushgatewayURL); err != nil {
			log.Printf("[WARN] push metrics: %v", err)
		}
	}
}

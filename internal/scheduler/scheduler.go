package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"MAWatch/internal/metrics"
	"MAWatch/internal/model"
	"MAWatch/internal/notifier"

	"github.com/robfig/cron/v3"
)

// Runner executes one detection pass over a watchlist.
type Runner interface {
	Run(ctx context.Context, symbols []string) *model.RunReport
}

// Scheduler triggers detection passes from cron and from chat commands.
// At most one pass runs at a time.
type Scheduler struct {
	Cron        *cron.Cron
	Runner      Runner
	Metrics     *metrics.Metrics
	Watchlist   []string
	Spans       model.Spans
	NearPercent float64
	Ctx         context.Context

	mu sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner Runner, m *metrics.Metrics, watchlist []string, spans model.Spans, nearPercent float64) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		Runner:      runner,
		Metrics:     m,
		Watchlist:   watchlist,
		Spans:       spans,
		NearPercent: nearPercent,
		Ctx:         ctx,
	}
}

// Register adds the scan task on a six-field cron expression (seconds first).
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes a detection pass immediately. It returns nil when another pass is in progress.
func (s *Scheduler) RunNow() *model.RunReport {
	if !s.mu.TryLock() {
		log.Println("[WARN] detection already running, skipping")
		return nil
	}
	defer s.mu.Unlock()

	start := time.Now()
	report := s.Runner.Run(s.Ctx, s.Watchlist)
	if s.Metrics != nil {
		s.Metrics.ObserveRun(report, time.Since(start))
	}
	return report
}

func (s *Scheduler) scanTask() {
	log.Println("[INFO] running scheduled scan")
	s.RunNow()
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	// Group chats append the bot name: /scan@my_bot
	cmd, _, _ := strings.Cut(strings.ToLower(command), "@")
	switch cmd {
	case "/scan":
		report := s.RunNow()
		if report == nil {
			return "⏳ A scan is already running."
		}
		return notifier.FormatRunSummary(report)
	case "/watchlist":
		return notifier.FormatWatchlist(s.Watchlist, s.Spans, s.NearPercent)
	default:
		return "Available commands:\n• /scan\n• /watchlist"
	}
}

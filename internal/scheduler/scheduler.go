package scheduler

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"StockScout/internal/batch"
	"StockScout/internal/collector"
	"StockScout/internal/notifier"
	"StockScout/internal/recorder"
)

// Sender delivers a formatted report.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// TickerSource returns the tickers to score. It is called on every run so the
// list can change without a restart.
type TickerSource func() ([]string, error)

// Scheduler manages the cron batch job and answers bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Runner    *batch.Runner
	Notifier  Sender
	Recorder  recorder.Recorder
	Tickers   TickerSource
	Ctx       context.Context

	mu      sync.Mutex
	last    []batch.Result
	lastAt  time.Time
	running bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, runner *batch.Runner, sender Sender, rec recorder.Recorder, tickers TickerSource) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Runner:    runner,
		Notifier:  sender,
		Recorder:  rec,
		Tickers:   tickers,
		Ctx:       ctx,
	}
}

// RegisterAll registers the batch scoring task.
func (s *Scheduler) RegisterAll(batchCron string) error {
	if _, err := s.Cron.AddFunc(batchCron, s.batchTask); err != nil {
		return fmt.Errorf("register batch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunBatchNow executes the batch task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunBatchNow() {
	s.batchTask()
}

func (s *Scheduler) batchTask() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("[WARN] batch already running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	log.Println("[INFO] running batch task")
	tickers, err := s.Tickers()
	if err != nil {
		log.Printf("[ERROR] load tickers: %v", err)
		s.trySend("❌ Batch failed to load tickers: " + html.EscapeString(err.Error()))
		return
	}

	started := time.Now()
	results := s.Runner.Run(s.Ctx, tickers)
	finished := time.Now()

	s.mu.Lock()
	s.last, s.lastAt = results, finished
	s.mu.Unlock()

	if err := s.Recorder.RecordBatch(recorder.NewBatchRun(results, started, finished)); err != nil {
		log.Printf("[ERROR] record batch: %v", err)
	}
	s.trySend(notifier.FormatBatchReport(results, finished))
}

// LastResults returns the most recent batch, falling back to the recorder
// after a restart.
func (s *Scheduler) LastResults() ([]batch.Result, time.Time, bool) {
	s.mu.Lock()
	results, at := s.last, s.lastAt
	s.mu.Unlock()
	if results != nil {
		return results, at, true
	}

	run, err := s.Recorder.LastBatch()
	if err != nil {
		log.Printf("[WARN] load last batch: %v", err)
		return nil, time.Time{}, false
	}
	if run == nil {
		return nil, time.Time{}, false
	}
	return run.Results(), run.FinishedAt, true
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch strings.ToLower(fields[0]) {
	case "/score":
		if len(fields) < 2 {
			return "Usage: /score TICKER"
		}
		return s.scoreTicker(ctx, fields[1])
	case "/best":
		results, at, ok := s.LastResults()
		if !ok {
			return "No batch has run yet."
		}
		return notifier.FormatBatchReport(results, at)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) scoreTicker(ctx context.Context, ticker string) string {
	series, err := s.Collector.Series(ctx, ticker)
	if err != nil {
		log.Printf("[ERROR] /score %s: %v", ticker, err)
		return "❌ " + html.EscapeString(err.Error())
	}
	a, err := s.Collector.AnalyzeSeries(ctx, series)
	if err != nil {
		log.Printf("[ERROR] /score %s: %v", ticker, err)
		return "❌ " + html.EscapeString(err.Error())
	}
	if err := s.Recorder.RecordAnalysis(&recorder.AnalysisRecord{
		RunID:    recorder.NewRunID(),
		Profile:  batch.ProfileLong,
		Analysis: a,
	}); err != nil {
		log.Printf("[ERROR] record analysis: %v", err)
	}
	return notifier.FormatScoreReport(a)
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

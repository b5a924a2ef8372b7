package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"StockScout/internal/batch"
	"StockScout/internal/collector"
	"StockScout/internal/config"
	"StockScout/internal/export"
	"StockScout/internal/metrics"
	"StockScout/internal/notifier"
	"StockScout/internal/recorder"
	"StockScout/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	tickersFlag := flag.String("tickers", "", "ticker list, one per line (default from config)")
	outFlag := flag.String("out", "", "results CSV path (default from config)")
	daemon := flag.Bool("daemon", false, "run the batch on the configured cron and serve bot commands")
	flag.Parse()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	validate := cfg.Validate
	if *daemon {
		validate = cfg.ValidateDaemon
	}
	if err := validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	if *tickersFlag != "" {
		cfg.Batch.TickersFile = *tickersFlag
	}
	if *outFlag != "" {
		cfg.Batch.OutputFile = *outFlag
	}

	m := metrics.NewMetrics(prometheus.NewRegistry())

	// Init fetcher
	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.PolygonAPIKey, cfg.Proxy, m)
	if err != nil {
		log.Fatalf("[FATAL] init fetcher: %v", err)
	}
	var overview collector.FundamentalsFetcher
	if cfg.DataSource.AlphaVantageAPIKey != "" {
		overview = collector.NewAlphaVantageFundamentals(cfg.DataSource.AlphaVantageAPIKey, cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init collector
	col := collector.NewCollector(fetcher, overview)
	col.Lookback = cfg.DataSource.LookbackDays
	col.Metrics = m

	runner := &batch.Runner{
		Fetch:        col.Series,
		Fundamentals: col.FetchFundamentals,
		Profiles:     batch.DefaultProfiles(),
		Workers:      cfg.Batch.Workers,
		Metrics:      m,
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	loadTickers := func() ([]string, error) {
		f, err := os.Open(cfg.Batch.TickersFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return batch.ReadTickers(f)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !*daemon {
		runOnce(ctx, runner, rec, loadTickers, cfg.Batch.OutputFile)
		return
	}

	log.Println("[INFO] StockScout batch daemon starting...")

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, runner, tn, rec, loadTickers)
	if err := sched.RegisterAll(cfg.Schedule.BatchCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
	log.Printf("[INFO] metrics listening on %s", cfg.Metrics.Addr)

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing batch now")
		go sched.RunBatchNow()
	}

	log.Println("[INFO] StockScout is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] metrics server shutdown: %v", err)
	}
	log.Println("[INFO] StockScout stopped")
}

// runOnce scores every ticker, writes the CSV and prints the best performers.
func runOnce(ctx context.Context, runner *batch.Runner, rec recorder.Recorder, loadTickers scheduler.TickerSource, outPath string) {
	tickers, err := loadTickers()
	if err != nil {
		log.Fatalf("[FATAL] load tickers: %v", err)
	}

	started := time.Now()
	results := runner.Run(ctx, tickers)
	if err := rec.RecordBatch(recorder.NewBatchRun(results, started, time.Now())); err != nil {
		log.Printf("[ERROR] record batch: %v", err)
	}

	if err := export.WriteFile(outPath, func(w io.Writer) error {
		return export.WriteBatchCSV(w, results)
	}); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	log.Printf("[INFO] wrote %d results to %s", len(results), outPath)

	fmt.Print(notifier.FormatBestPerformers(results))
}

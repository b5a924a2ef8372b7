package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockScout/internal/batch"
	"StockScout/internal/collector"
	"StockScout/internal/config"
	"StockScout/internal/export"
	"StockScout/internal/notifier"
	"StockScout/internal/recorder"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	startFlag := flag.String("start", "2023-01-01", "first date to download (YYYY-MM-DD)")
	endFlag := flag.String("end", "2023-12-31", "last date to download (YYYY-MM-DD)")
	csvPath := flag.String("csv", "", "write the full indicator table to this CSV file")
	showScore := flag.Bool("score", false, "print the short-term score and its breakdown")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] TICKER\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	ticker := flag.Arg(0)

	start, err := time.Parse(time.DateOnly, *startFlag)
	if err != nil {
		log.Fatalf("[FATAL] invalid --start: %v", err)
	}
	end, err := time.Parse(time.DateOnly, *endFlag)
	if err != nil {
		log.Fatalf("[FATAL] invalid --end: %v", err)
	}

	// Load config
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

	// Init fetcher
	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.PolygonAPIKey, cfg.Proxy, nil)
	if err != nil {
		log.Fatalf("[FATAL] init fetcher: %v", err)
	}
	var overview collector.FundamentalsFetcher
	if cfg.DataSource.AlphaVantageAPIKey != "" {
		overview = collector.NewAlphaVantageFundamentals(cfg.DataSource.AlphaVantageAPIKey, cfg.Proxy)
	}
	col := collector.NewCollector(fetcher, overview)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := col.Analyze(ctx, ticker, start, end)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	if *csvPath != "" {
		if err := export.WriteFile(*csvPath, func(w io.Writer) error {
			return export.WriteIndicatorsCSV(w, a.Series, a.Rows)
		}); err != nil {
			log.Fatalf("[FATAL] %v", err)
		}
		log.Printf("[INFO] wrote %d rows to %s", len(a.Rows), *csvPath)
	} else {
		fmt.Print(notifier.FormatIndicatorTable(a.Rows, 5))
	}

	if *showScore {
		fmt.Println()
		fmt.Print(notifier.FormatScoreBreakdown(a.Score))
	}

	// Record to SQLite
	if cfg.Database.SQLitePath != "" {
		rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, skipping record: %v", err)
			return
		}
		defer rec.Close()
		if err := rec.RecordAnalysis(&recorder.AnalysisRecord{
			RunID:    recorder.NewRunID(),
			Profile:  batch.ProfileLong,
			Analysis: a,
		}); err != nil {
			log.Printf("[ERROR] record analysis: %v", err)
		}
	}
}

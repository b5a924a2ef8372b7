// Package batch scores a list of tickers in parallel under one or more
// indicator profiles.
package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"StockScout/internal/calculator"
	"StockScout/internal/metrics"
	"StockScout/internal/model"
	"StockScout/internal/strategy"
)

// FetchFunc downloads the price series of one ticker.
type FetchFunc func(ctx context.Context, symbol string) (model.PriceSeries, error)

// FundamentalsFunc returns fundamental metrics; it may return nil, nil.
type FundamentalsFunc func(ctx context.Context, symbol string) (model.Fundamentals, error)

// Profile names an indicator parameter set a ticker is scored under.
type Profile struct {
	Name   string
	Params calculator.Params
}

const (
	ProfileShort = "5d"
	ProfileLong  = "20d"
)

// DefaultProfiles returns the 5-day and 20-day profiles.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: ProfileShort, Params: calculator.ShortTermParams()},
		{Name: ProfileLong, Params: calculator.MidTermParams()},
	}
}

// Result is the outcome for one ticker. Scores is nil when Err is set.
type Result struct {
	Ticker string
	Scores map[string]model.Score
	Close  float64
	Err    error
}

// Score returns the score under the named profile.
func (r Result) Score(profile string) (model.Score, bool) {
	s, ok := r.Scores[profile]
	return s, ok
}

// Runner scores tickers concurrently.
type Runner struct {
	Fetch        FetchFunc
	Fundamentals FundamentalsFunc // optional
	Profiles     []Profile
	Workers      int
	Metrics      *metrics.Metrics
}

// minimumKinds must be defined at the last bar for a ticker to be scored.
var minimumKinds = []calculator.Kind{calculator.KindSMAShort, calculator.KindBollinger, calculator.KindRSI}

// Dedup trims and upper-cases tickers and drops repeats, keeping the order of
// first occurrence. Blank entries are dropped.
func Dedup(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Run scores every unique ticker. One entry per unique ticker is returned in
// input order; a failing ticker only sets its own Err.
func (r *Runner) Run(ctx context.Context, tickers []string) []Result {
	began := time.Now()
	unique := Dedup(tickers)
	results := make([]Result, len(unique))

	profiles := r.Profiles
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, ticker := range unique {
		i, ticker := i, ticker
		g.Go(func() error {
			results[i] = r.scoreOne(gctx, ticker, profiles)
			return nil
		})
	}
	_ = g.Wait()

	r.Metrics.ObserveBatch(time.Since(began))
	log.Printf("[INFO] batch scored %d tickers in %s", len(unique), time.Since(began).Round(time.Millisecond))
	return results
}

func (r *Runner) scoreOne(ctx context.Context, ticker string, profiles []Profile) Result {
	res := Result{Ticker: ticker}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	series, err := r.Fetch(ctx, ticker)
	if err != nil {
		return r.fail(res, "fetch", err)
	}
	if err := series.Validate(); err != nil {
		return r.fail(res, "invalid_series", err)
	}

	for _, p := range profiles {
		if err := p.Params.Validate(); err != nil {
			return r.fail(res, "params", fmt.Errorf("profile %s: %w", p.Name, err))
		}
		if _, err := calculator.Summarize(series, p.Params, minimumKinds...); err != nil {
			return r.fail(res, "insufficient_data", err)
		}
	}

	// Only scorable tickers spend a fundamentals call.
	var fund model.Fundamentals
	if r.Fundamentals != nil {
		if fund, err = r.Fundamentals(ctx, ticker); err != nil {
			log.Printf("[WARN] fundamentals for %s unavailable: %v", ticker, err)
			fund = nil
		}
	}

	scores := make(map[string]model.Score, len(profiles))
	for _, p := range profiles {
		in, ok := strategy.InputFromRows(calculator.Compute(series, p.Params), fund)
		if !ok {
			return r.fail(res, "insufficient_data", &model.InsufficientDataError{Indicator: "close", Need: 1, Have: 0})
		}
		scores[p.Name] = strategy.Evaluate(in)
		res.Close = in.Close
	}

	res.Scores = scores
	for name, s := range scores {
		r.Metrics.ObserveScore(ticker, name, s.Value)
	}
	return res
}

func (r *Runner) fail(res Result, reason string, err error) Result {
	log.Printf("[WARN] Error scoring %s: %v", res.Ticker, err)
	r.Metrics.ObserveFailure(reason)
	res.Err = err
	return res
}

// Best returns the successful result with the highest score under profile.
// Ties keep the earlier ticker.
func Best(results []Result, profile string) (Result, bool) {
	var best Result
	found := false
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		s, ok := r.Score(profile)
		if !ok {
			continue
		}
		if b, _ := best.Score(profile); !found || s.Value > b.Value {
			best = r
			found = true
		}
	}
	return best, found
}

// Succeeded counts results without an error.
func Succeeded(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// ReadTickers reads one symbol per line. Blank lines and lines starting with
// '#' are skipped.
func ReadTickers(r io.Reader) ([]string, error) {
	var tickers []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tickers = append(tickers, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tickers: %w", err)
	}
	if len(tickers) == 0 {
		return nil, errors.New("no tickers found")
	}
	return tickers, nil
}

package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"StockScout/internal/batch"
	"StockScout/internal/collector"
	"StockScout/internal/model"
	"StockScout/internal/recorder"
)

type fakeSender struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
	return nil
}

func newTestScheduler(t *testing.T, rec recorder.Recorder, tickers ...string) (*Scheduler, *fakeSender) {
	t.Helper()
	mock := &collector.MockFetcher{
		Price: 100,
		Days:  90,
		Fail:  map[string]error{"BOGUS": collector.ErrNoData},
	}
	col := collector.NewCollector(mock, nil)
	runner := &batch.Runner{Fetch: col.Series, Fundamentals: col.FetchFundamentals, Workers: 1}
	sender := &fakeSender{}
	s := NewScheduler(context.Background(), col, runner, sender, rec, func() ([]string, error) {
		return tickers, nil
	})
	return s, sender
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t, recorder.NewNoopRecorder())
	if err := s.RegisterAll("0 30 22 * * 1-5"); err != nil {
		t.Fatalf("valid cron rejected: %v", err)
	}
	if err := s.RegisterAll("not a cron"); err == nil {
		t.Error("expected error for invalid cron")
	}
}

func TestRunBatchNow(t *testing.T) {
	s, sender := newTestScheduler(t, recorder.NewNoopRecorder(), "AAPL", "BOGUS", "MSFT")

	if reply := s.HandleCommand(context.Background(), "/best"); reply != "No batch has run yet." {
		t.Errorf("unexpected /best before any batch: %q", reply)
	}

	s.RunBatchNow()

	if len(sender.msgs) != 1 {
		t.Fatalf("expected one batch report, got %d", len(sender.msgs))
	}
	if !strings.Contains(sender.msgs[0], "Scored: 2/3") || !strings.Contains(sender.msgs[0], "BOGUS") {
		t.Errorf("unexpected report:\n%s", sender.msgs[0])
	}
	results, _, ok := s.LastResults()
	if !ok || len(results) != 3 {
		t.Fatalf("expected 3 cached results, got %d", len(results))
	}
	if reply := s.HandleCommand(context.Background(), "/best"); !strings.Contains(reply, "Best 20-day") {
		t.Errorf("unexpected /best reply:\n%s", reply)
	}
}

func TestRunBatch_TickerLoadFailure(t *testing.T) {
	s, sender := newTestScheduler(t, recorder.NewNoopRecorder())
	s.Tickers = func() ([]string, error) { return nil, errors.New("open <tickers.txt>: no such file") }
	s.RunBatchNow()
	if len(sender.msgs) != 1 || !strings.Contains(sender.msgs[0], "failed to load tickers") {
		t.Fatalf("expected failure notice, got %v", sender.msgs)
	}
	if !strings.Contains(sender.msgs[0], "&lt;tickers.txt&gt;") {
		t.Errorf("error text must be HTML-escaped: %q", sender.msgs[0])
	}
}

func TestHandleCommand_EscapesProviderErrors(t *testing.T) {
	s, _ := newTestScheduler(t, recorder.NewNoopRecorder())
	mock := s.Collector.Fetcher.(*collector.MockFetcher)
	mock.Fail["DOWN"] = errors.New("yahoo: status 502, body: <html>Bad Gateway</html>")

	reply := s.HandleCommand(context.Background(), "/score DOWN")
	if strings.Contains(reply, "<html>") {
		t.Errorf("raw HTML leaked into reply: %s", reply)
	}
	if !strings.Contains(reply, "&lt;html&gt;Bad Gateway") {
		t.Errorf("expected escaped body in reply: %s", reply)
	}
}

func TestLastResults_FromRecorder(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Close()

	prior := []batch.Result{{Ticker: "NVDA", Scores: map[string]model.Score{
		batch.ProfileShort: {Value: 77, Rating: model.RatingBuy},
		batch.ProfileLong:  {Value: 66, Rating: model.RatingBuy},
	}}}
	if err := rec.RecordBatch(recorder.NewBatchRun(prior, time.Now(), time.Now())); err != nil {
		t.Fatal(err)
	}

	s, _ := newTestScheduler(t, rec)
	reply := s.HandleCommand(context.Background(), "/best")
	if !strings.Contains(reply, "NVDA") || !strings.Contains(reply, "77/100") {
		t.Errorf("expected recorded batch in reply:\n%s", reply)
	}
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(t, recorder.NewNoopRecorder())
	ctx := context.Background()

	tests := []struct {
		cmd  string
		want string
	}{
		{"/score aapl", "<b>AAPL</b>"},
		{"/score", "Usage: /score TICKER"},
		{"/score BOGUS", "No data returned for BOGUS"},
		{"/help", "Available commands"},
		{"", "Available commands"},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			if reply := s.HandleCommand(ctx, tt.cmd); !strings.Contains(reply, tt.want) {
				t.Errorf("%q: expected reply containing %q, got:\n%s", tt.cmd, tt.want, reply)
			}
		})
	}
}

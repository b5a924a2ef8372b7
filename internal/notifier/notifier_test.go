package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"StockScout/internal/batch"
	"StockScout/internal/model"
)

// fakeTelegram records sendMessage payloads and serves canned updates.
type fakeTelegram struct {
	mu      sync.Mutex
	sent    []map[string]string
	updates string
	status  int
}

func (f *fakeTelegram) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]string
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode payload: %v", err)
			}
			f.mu.Lock()
			f.sent = append(f.sent, payload)
			f.mu.Unlock()
			if f.status != 0 {
				w.WriteHeader(f.status)
			}
			fmt.Fprint(w, `{"ok":true}`)
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			fmt.Fprint(w, f.updates)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
}

func newTestNotifier(t *testing.T, f *fakeTelegram) *TelegramNotifier {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.BaseURL = srv.URL
	return n
}

func TestSend(t *testing.T) {
	f := &fakeTelegram{}
	n := newTestNotifier(t, f)
	if err := n.Send(context.Background(), "<b>hi</b>"); err != nil {
		t.Fatal(err)
	}
	if len(f.sent) != 1 || f.sent[0]["chat_id"] != "42" || f.sent[0]["parse_mode"] != "HTML" {
		t.Errorf("unexpected payload %v", f.sent)
	}
}

func TestSendWithRetry_GivesUp(t *testing.T) {
	f := &fakeTelegram{status: http.StatusBadRequest}
	n := newTestNotifier(t, f)
	err := n.SendWithRetry(context.Background(), "x", 0)
	if err == nil || !strings.Contains(err.Error(), "retries exhausted") {
		t.Errorf("expected exhausted error, got %v", err)
	}
	if len(f.sent) != 1 {
		t.Errorf("expected a single attempt, got %d", len(f.sent))
	}
}

func TestPollOnce(t *testing.T) {
	f := &fakeTelegram{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":" /score aapl ","chat":{"id":42}}},
		{"update_id":8,"message":{"text":"/best","chat":{"id":99}}},
		{"update_id":9}]}`}
	n := newTestNotifier(t, f)

	var got []string
	next, err := n.pollOnce(context.Background(), n.Client, 0, 0, func(_ context.Context, cmd string) string {
		got = append(got, cmd)
		return "reply to " + cmd
	})
	if err != nil {
		t.Fatal(err)
	}
	if next != 10 {
		t.Errorf("expected next offset 10, got %d", next)
	}
	if len(got) != 1 || got[0] != "/score aapl" {
		t.Errorf("expected only the configured chat's command, got %v", got)
	}
	if len(f.sent) != 1 || f.sent[0]["text"] != "reply to /score aapl" {
		t.Errorf("unexpected replies %v", f.sent)
	}
}

func TestPollOnce_NotOK(t *testing.T) {
	f := &fakeTelegram{updates: `{"ok":false,"description":"Unauthorized"}`}
	n := newTestNotifier(t, f)
	next, err := n.pollOnce(context.Background(), n.Client, 5, 0, func(context.Context, string) string { return "" })
	if err == nil {
		t.Error("expected error")
	}
	if next != 5 {
		t.Errorf("offset should not move on error, got %d", next)
	}
}

func sampleAnalysis() *model.Analysis {
	d := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	return &model.Analysis{
		Series: model.PriceSeries{Symbol: "AAPL", Bars: []model.Bar{{Date: d, Close: 192.53}}},
		Rows:   []model.IndicatorRow{{Date: d, Close: 192.53, RSI: model.Float(54.25)}},
		Score: model.Score{
			Value:  61,
			Total:  22.5,
			Rating: model.RatingBuy,
			Factors: []model.FactorScore{
				{Name: "Trend", RawScore: 1, Weight: 20, Weighted: 20, Commentary: "uptrend"},
				{Name: "P/E", RawScore: 0.25, Weight: 10, Weighted: 2.5, Commentary: "P/E <25"},
			},
			Warning: "RSI above 85: extremely overbought",
		},
		High: 199.62,
		Low:  124.17,
	}
}

func TestFormatScoreReport(t *testing.T) {
	msg := FormatScoreReport(sampleAnalysis())
	for _, want := range []string{"<b>AAPL</b>", "2023-12-29", "61/100", "BUY", "Trend (uptrend)", "P/E &lt;25", "⚠️", "Range: 124.17 - 199.62 (91% of range)"} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatScoreBreakdown(t *testing.T) {
	out := FormatScoreBreakdown(sampleAnalysis().Score)
	if !strings.HasPrefix(out, "Short-term score: 61/100\n") {
		t.Errorf("unexpected first line:\n%s", out)
	}
	if !strings.Contains(out, "Trend") || !strings.Contains(out, "Warning:") {
		t.Errorf("breakdown incomplete:\n%s", out)
	}
}

func TestFormatIndicatorTable(t *testing.T) {
	d := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	var rows []model.IndicatorRow
	for i := 0; i < 8; i++ {
		rows = append(rows, model.IndicatorRow{Date: d.AddDate(0, 0, i), Close: float64(100 + i)})
	}
	rows[7].RSI = model.Float(61.234)

	out := FormatIndicatorTable(rows, 5)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected header + 5 rows, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "2023-01-04") {
		t.Errorf("expected table to start at the 4th row, got %q", lines[1])
	}
	if !strings.Contains(lines[5], "61.23") || !strings.Contains(lines[5], "-") {
		t.Errorf("unexpected last line %q", lines[5])
	}
}

func TestFormatBestPerformers(t *testing.T) {
	results := []batch.Result{
		{Ticker: "AAPL", Scores: map[string]model.Score{batch.ProfileShort: {Value: 72}, batch.ProfileLong: {Value: 40}}},
		{Ticker: "MSFT", Scores: map[string]model.Score{batch.ProfileShort: {Value: 50}, batch.ProfileLong: {Value: 81}}},
	}
	want := "Best 5-day performer : AAPL  →  72/100\nBest 20-day performer: MSFT  →  81/100\n"
	if got := FormatBestPerformers(results); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	failed := []batch.Result{{Ticker: "X", Err: errors.New("boom")}}
	if got := FormatBestPerformers(failed); got != "No tickers scored successfully.\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestFormatBatchReport(t *testing.T) {
	results := []batch.Result{
		{Ticker: "AAPL", Scores: map[string]model.Score{batch.ProfileShort: {Value: 72}, batch.ProfileLong: {Value: 40}}},
		{Ticker: "BOGUS", Err: errors.New("no data")},
	}
	msg := FormatBatchReport(results, time.Date(2024, 1, 2, 22, 30, 0, 0, time.UTC))
	for _, want := range []string{"Scored: 1/2", "Best 5-day: <b>AAPL</b> 72/100", "Failed: BOGUS"} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q:\n%s", want, msg)
		}
	}
}

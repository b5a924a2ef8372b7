package notifier

import (
	"fmt"
	"html"
	"strings"
	"text/tabwriter"
	"time"

	"StockScout/internal/batch"
	"StockScout/internal/calculator"
	"StockScout/internal/model"
)

func lastDate(a *model.Analysis) string {
	if last, ok := a.Series.Last(); ok {
		return last.Date.Format(time.DateOnly)
	}
	return "-"
}

// FormatScoreReport formats a single-ticker analysis into a Telegram message.
func FormatScoreReport(a *model.Analysis) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(a.Series.Symbol), lastDate(a)))
	if last, ok := a.Series.Last(); ok {
		b.WriteString(fmt.Sprintf("Close: %.2f\n", last.Close))
		if pos, err := calculator.LocateInRange(last.Close, a.High, a.Low); err == nil {
			b.WriteString(fmt.Sprintf("Range: %.2f - %.2f (%s)\n", a.Low, a.High, pos))
		}
	}
	b.WriteString(fmt.Sprintf("Score: <b>%d/100</b> (%s)\n\n", a.Score.Value, a.Score.Rating))

	b.WriteString("📈 <b>Factors:</b>\n")
	for _, f := range a.Score.Factors {
		b.WriteString(fmt.Sprintf("  %s (%s): %+.2f ×%.0f = %+.1f\n",
			html.EscapeString(f.Name), html.EscapeString(f.Commentary), f.RawScore, f.Weight, f.Weighted))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Total: %+.1f\n", a.Score.Total))

	if a.Score.Warning != "" {
		b.WriteString(fmt.Sprintf("\n⚠️ %s\n", html.EscapeString(a.Score.Warning)))
	}
	return b.String()
}

// FormatBatchReport summarises a batch run for Telegram.
func FormatBatchReport(results []batch.Result, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Batch scoring</b> | %s\n\n", at.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Scored: %d/%d\n", batch.Succeeded(results), len(results)))

	if best, ok := batch.Best(results, batch.ProfileShort); ok {
		s, _ := best.Score(batch.ProfileShort)
		b.WriteString(fmt.Sprintf("🏆 Best 5-day: <b>%s</b> %d/100 (%s)\n", html.EscapeString(best.Ticker), s.Value, s.Rating))
	}
	if best, ok := batch.Best(results, batch.ProfileLong); ok {
		s, _ := best.Score(batch.ProfileLong)
		b.WriteString(fmt.Sprintf("🏆 Best 20-day: <b>%s</b> %d/100 (%s)\n", html.EscapeString(best.Ticker), s.Value, s.Rating))
	}

	var failed []string
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, html.EscapeString(r.Ticker))
		}
	}
	if len(failed) > 0 {
		b.WriteString(fmt.Sprintf("\n❌ Failed: %s\n", strings.Join(failed, ", ")))
	}
	return b.String()
}

// FormatBestPerformers prints the best 5-day and 20-day tickers as plain text.
func FormatBestPerformers(results []batch.Result) string {
	best5, ok5 := batch.Best(results, batch.ProfileShort)
	best20, ok20 := batch.Best(results, batch.ProfileLong)
	if !ok5 && !ok20 {
		return "No tickers scored successfully.\n"
	}
	var b strings.Builder
	if ok5 {
		s, _ := best5.Score(batch.ProfileShort)
		b.WriteString(fmt.Sprintf("Best 5-day performer : %s  →  %d/100\n", best5.Ticker, s.Value))
	}
	if ok20 {
		s, _ := best20.Score(batch.ProfileLong)
		b.WriteString(fmt.Sprintf("Best 20-day performer: %s  →  %d/100\n", best20.Ticker, s.Value))
	}
	return b.String()
}

func cell(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatIndicatorTable renders the last n rows as an aligned text table.
func FormatIndicatorTable(rows []model.IndicatorRow, n int) string {
	if n > 0 && len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Date\tClose\tSMA short\tSMA long\tBB upper\tBB mid\tBB lower\tRSI\tMACD\tSignal\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Date.Format(time.DateOnly), r.Close,
			cell(r.SMAShort), cell(r.SMALong),
			cell(r.BollingerUpper), cell(r.BollingerMid), cell(r.BollingerLower),
			cell(r.RSI), cell(r.MACD), cell(r.MACDSignal))
	}
	w.Flush()
	return b.String()
}

// FormatScoreBreakdown renders a score and its factors as plain text.
func FormatScoreBreakdown(s model.Score) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Short-term score: %d/100\n", s.Value))
	b.WriteString(fmt.Sprintf("Rating: %s\n", s.Rating))
	for _, f := range s.Factors {
		b.WriteString(fmt.Sprintf("  %-16s %+6.1f / %-3.0f %s\n", f.Name, f.Weighted, f.Weight, f.Commentary))
	}
	if s.Warning != "" {
		b.WriteString(fmt.Sprintf("Warning: %s\n", s.Warning))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "Available commands:\n• /score TICKER - score one ticker now\n• /best - best performers of the last batch"
}

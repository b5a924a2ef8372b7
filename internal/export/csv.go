// Package export writes indicator tables and batch results as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"StockScout/internal/batch"
	"StockScout/internal/model"
)

var indicatorHeader = []string{
	"date", "open", "high", "low", "close", "volume",
	"sma_20", "sma_50", "bb_upper", "bb_mid", "bb_lower",
	"rsi", "macd", "macd_signal",
}

var batchHeader = []string{"ticker", "score_5", "score_20", "error"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOpt(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// WriteIndicatorsCSV writes one row per bar. Undefined indicators are empty
// cells. rows must be aligned with series.Bars.
func WriteIndicatorsCSV(w io.Writer, series model.PriceSeries, rows []model.IndicatorRow) error {
	if len(rows) != len(series.Bars) {
		return fmt.Errorf("indicator rows (%d) not aligned with bars (%d)", len(rows), len(series.Bars))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(indicatorHeader); err != nil {
		return err
	}
	for i, b := range series.Bars {
		r := rows[i]
		record := []string{
			b.Date.Format(time.DateOnly),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
			formatOpt(r.SMAShort),
			formatOpt(r.SMALong),
			formatOpt(r.BollingerUpper),
			formatOpt(r.BollingerMid),
			formatOpt(r.BollingerLower),
			formatOpt(r.RSI),
			formatOpt(r.MACD),
			formatOpt(r.MACDSignal),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBatchCSV writes ticker,score_5,score_20,error. Failed tickers have
// empty score cells and the error message.
func WriteBatchCSV(w io.Writer, results []batch.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(batchHeader); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{r.Ticker, "", "", ""}
		if r.Err != nil {
			record[3] = r.Err.Error()
		} else {
			if s, ok := r.Score(batch.ProfileShort); ok {
				record[1] = strconv.Itoa(s.Value)
			}
			if s, ok := r.Score(batch.ProfileLong); ok {
				record[2] = strconv.Itoa(s.Value)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path and hands it to write.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

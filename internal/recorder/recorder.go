package recorder

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"StockScout/internal/batch"
	"StockScout/internal/model"
)

// AnalysisRecord is one single-ticker analysis: the score and the indicator
// table it was computed from.
type AnalysisRecord struct {
	RunID    string
	Profile  string
	Analysis *model.Analysis
}

// BatchEntry is one ticker's outcome within a batch run.
type BatchEntry struct {
	Ticker string
	Close  float64
	Scores map[string]model.Score // by profile name
	Err    string
}

// BatchRun holds all entries of one batch scoring run.
type BatchRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Entries    []BatchEntry
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// NewBatchRun converts batch results into a run record with a fresh ID.
func NewBatchRun(results []batch.Result, started, finished time.Time) *BatchRun {
	run := &BatchRun{ID: NewRunID(), StartedAt: started, FinishedAt: finished}
	for _, r := range results {
		e := BatchEntry{Ticker: r.Ticker, Close: r.Close, Scores: r.Scores}
		if r.Err != nil {
			e.Err = r.Err.Error()
			e.Scores = nil
		}
		run.Entries = append(run.Entries, e)
	}
	return run
}

// Results converts the run back into batch results, e.g. to answer /best.
func (run *BatchRun) Results() []batch.Result {
	out := make([]batch.Result, len(run.Entries))
	for i, e := range run.Entries {
		out[i] = batch.Result{Ticker: e.Ticker, Close: e.Close, Scores: e.Scores}
		if e.Err != "" {
			out[i].Err = errors.New(e.Err)
		}
	}
	return out
}

// Recorder persists score history for analysis.
type Recorder interface {
	RecordAnalysis(rec *AnalysisRecord) error
	RecordBatch(run *BatchRun) error
	LastBatch() (*BatchRun, error)
	Close() error
}

package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"StockScout/internal/model"
)

// SQLiteRecorder persists score history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a batch writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			tickers     INTEGER,
			failures    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS scores (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			ticker    TEXT NOT NULL,
			profile   TEXT,
			score     INTEGER,
			total     REAL,
			rating    TEXT,
			close     REAL,
			warning   TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_run ON scores(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_ticker ON scores(ticker, profile)`,

		`CREATE TABLE IF NOT EXISTS factors (
			score_id   INTEGER NOT NULL,
			name       TEXT NOT NULL,
			raw        REAL,
			weight     REAL,
			weighted   REAL,
			commentary TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_factors_score ON factors(score_id)`,

		`CREATE TABLE IF NOT EXISTS indicator_rows (
			run_id      TEXT NOT NULL,
			ticker      TEXT NOT NULL,
			date        TEXT NOT NULL,
			close       REAL,
			sma_short   REAL,
			sma_long    REAL,
			bb_upper    REAL,
			bb_mid      REAL,
			bb_lower    REAL,
			rsi         REAL,
			macd        REAL,
			macd_signal REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rows_run ON indicator_rows(run_id, ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertScore(tx execer, runID, ticker, profile string, price float64, s *model.Score, errMsg string) error {
	var (
		value   any
		total   any
		rating  any
		warning any
	)
	if s != nil {
		value, total, rating, warning = s.Value, s.Total, string(s.Rating), s.Warning
	}
	res, err := tx.Exec(`INSERT INTO scores
		(run_id, ticker, profile, score, total, rating, close, warning, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		runID, ticker, profile, value, total, rating, price, warning, errMsg,
	)
	if err != nil || s == nil {
		return err
	}
	scoreID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for _, f := range s.Factors {
		if _, err := tx.Exec(`INSERT INTO factors
			(score_id, name, raw, weight, weighted, commentary)
			VALUES (?,?,?,?,?,?)`,
			scoreID, f.Name, f.RawScore, f.Weight, f.Weighted, f.Commentary,
		); err != nil {
			return err
		}
	}
	return nil
}

func insertRun(tx execer, id, kind string, started, finished time.Time, tickers, failures int) error {
	_, err := tx.Exec(`INSERT INTO runs (id, kind, started_at, finished_at, tickers, failures)
		VALUES (?,?,?,?,?,?)`,
		id, kind, started.Unix(), finished.Unix(), tickers, failures,
	)
	return err
}

// RecordAnalysis stores a single-ticker score with its factors and the full
// indicator table. Undefined indicators are stored as NULL.
func (r *SQLiteRecorder) RecordAnalysis(rec *AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := rec.Analysis
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if err := insertRun(tx, rec.RunID, "analysis", now, now, 1, 0); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	var price float64
	if last, ok := a.Series.Last(); ok {
		price = last.Close
	}
	if err := insertScore(tx, rec.RunID, a.Series.Symbol, rec.Profile, price, &a.Score, ""); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	for _, row := range a.Rows {
		if _, err := tx.Exec(`INSERT INTO indicator_rows
			(run_id, ticker, date, close, sma_short, sma_long, bb_upper, bb_mid, bb_lower, rsi, macd, macd_signal)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
			rec.RunID, a.Series.Symbol, row.Date.Format(time.DateOnly), row.Close,
			row.SMAShort, row.SMALong, row.BollingerUpper, row.BollingerMid, row.BollingerLower,
			row.RSI, row.MACD, row.MACDSignal,
		); err != nil {
			return fmt.Errorf("insert indicator row: %w", err)
		}
	}
	return tx.Commit()
}

// RecordBatch stores every entry of a batch run. Failed tickers are kept
// with their error message.
func (r *SQLiteRecorder) RecordBatch(run *BatchRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	failures := 0
	for _, e := range run.Entries {
		if e.Err != "" {
			failures++
		}
	}
	if err := insertRun(tx, run.ID, "batch", run.StartedAt, run.FinishedAt, len(run.Entries), failures); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, e := range run.Entries {
		if e.Err != "" {
			if err := insertScore(tx, run.ID, e.Ticker, "", e.Close, nil, e.Err); err != nil {
				return fmt.Errorf("insert failed entry %s: %w", e.Ticker, err)
			}
			continue
		}
		for profile, s := range e.Scores {
			if err := insertScore(tx, run.ID, e.Ticker, profile, e.Close, &s, ""); err != nil {
				return fmt.Errorf("insert score %s/%s: %w", e.Ticker, profile, err)
			}
		}
	}
	return tx.Commit()
}

// LastBatch loads the most recent batch run with its scores. Factors are not
// loaded. It returns nil when no batch has been recorded.
func (r *SQLiteRecorder) LastBatch() (*BatchRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := &BatchRun{}
	var started, finished int64
	err := r.db.QueryRow(`SELECT id, started_at, finished_at FROM runs
		WHERE kind = 'batch' ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(&run.ID, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	run.StartedAt = time.Unix(started, 0)
	run.FinishedAt = time.Unix(finished, 0)

	rows, err := r.db.Query(`SELECT ticker, profile, score, total, rating, close, warning, error
		FROM scores WHERE run_id = ? ORDER BY id`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	index := map[string]int{}
	for rows.Next() {
		var (
			ticker, profile string
			value           sql.NullInt64
			total, price    sql.NullFloat64
			rating, warning sql.NullString
			errMsg          sql.NullString
		)
		if err := rows.Scan(&ticker, &profile, &value, &total, &rating, &price, &warning, &errMsg); err != nil {
			return nil, err
		}
		i, ok := index[ticker]
		if !ok {
			i = len(run.Entries)
			index[ticker] = i
			run.Entries = append(run.Entries, BatchEntry{Ticker: ticker, Close: price.Float64, Err: errMsg.String})
		}
		if !value.Valid {
			continue
		}
		if run.Entries[i].Scores == nil {
			run.Entries[i].Scores = map[string]model.Score{}
		}
		run.Entries[i].Scores[profile] = model.Score{
			Value:   int(value.Int64),
			Total:   total.Float64,
			Rating:  model.Rating(rating.String),
			Warning: warning.String,
		}
	}
	return run, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

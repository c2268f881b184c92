// Package store persists review scores and run summaries between
// invocations so scores survive process restarts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// RunSummary captures one pipeline invocation for auditing.
type RunSummary struct {
	ID          string    `json:"id"`
	Sources     int       `json:"sources"`
	Completed   int       `json:"completed"`
	Failed      int       `json:"failed"`
	Records     int       `json:"records"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	SourceNotes []string  `json:"source_notes,omitempty"`
}

// SQLiteStore implements score and run persistence using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scores (
	domain     TEXT PRIMARY KEY,
	score      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	summary     TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveScores upserts a snapshot of domain scores.
func (s *SQLiteStore) SaveScores(ctx context.Context, scores map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for domain, score := range scores {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO scores (domain, score, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(domain) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`,
			domain, score, now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert score %s", domain)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit scores")
}

// LoadScores returns all persisted domain scores.
func (s *SQLiteStore) LoadScores(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT domain, score FROM scores`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query scores")
	}
	defer rows.Close()

	scores := make(map[string]string)
	for rows.Next() {
		var domain, score string
		if err := rows.Scan(&domain, &score); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score")
		}
		scores[domain] = score
	}
	return scores, eris.Wrap(rows.Err(), "sqlite: iterate scores")
}

// SaveRun records a run summary, assigning it a fresh ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run RunSummary) (string, error) {
	run.ID = uuid.New().String()

	payload, err := json.Marshal(run)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal run")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, summary, started_at, finished_at) VALUES (?, ?, ?, ?)`,
		run.ID, string(payload), run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert run")
	}
	return run.ID, nil
}

// ListRuns returns run summaries, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT summary FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query runs")
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		var run RunSummary
		if err := json.Unmarshal([]byte(payload), &run); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal run")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

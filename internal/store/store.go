// Package store persists an audit trail of score requests and raw model
// exchanges in SQLite, so contract violations can be diagnosed after the
// fact.
package store

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles all database operations.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// New creates a new Store with SQLite backend.
func New(dbPath string, log *slog.Logger) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, log: log.With("component", "store")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS score_requests (
		id TEXT PRIMARY KEY,
		content_url TEXT NOT NULL,
		campaign TEXT,
		outcome TEXT NOT NULL,
		duration_ms INTEGER,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS llm_exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT REFERENCES score_requests(id),
		kind TEXT NOT NULL,
		model TEXT,
		prompt TEXT,
		response TEXT,
		error TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_created_at ON score_requests(created_at);
	CREATE INDEX IF NOT EXISTS idx_exchanges_request ON llm_exchanges(request_id);
	CREATE INDEX IF NOT EXISTS idx_exchanges_created_at ON llm_exchanges(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ScoreRequest is one audit row per /getscore call.
type ScoreRequest struct {
	ID         string
	ContentURL string
	Campaign   string
	Outcome    string
	DurationMs int64
	CreatedAt  time.Time
}

// SaveRequest records the outcome of a score request. Called once per
// request, after both scorings settle.
func (s *Store) SaveRequest(ctx context.Context, r *ScoreRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO score_requests (id, content_url, campaign, outcome, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			outcome = excluded.outcome,
			duration_ms = excluded.duration_ms
	`, r.ID, r.ContentURL, r.Campaign, r.Outcome, r.DurationMs, r.CreatedAt.UTC())

	return err
}

// RecordExchange persists one model run. Failures are logged rather than
// returned: the audit trail must never fail a scoring request.
func (s *Store) RecordExchange(ctx context.Context, requestID, kind, model, prompt, response string, runErr error) {
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_exchanges (request_id, kind, model, prompt, response, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, requestID, kind, model, prompt, response, errText, time.Now().UTC())

	if err != nil {
		s.log.Warn("failed to record exchange", "request_id", requestID, "error", err)
	}
}

// Exchange is one persisted model run.
type Exchange struct {
	RequestID string
	Kind      string
	Model     string
	Prompt    string
	Response  string
	Error     string
	CreatedAt time.Time
}

// ExchangesForRequest returns all model runs recorded for a request, oldest
// first.
func (s *Store) ExchangesForRequest(ctx context.Context, requestID string) ([]Exchange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, kind, model, prompt, response, error, created_at
		FROM llm_exchanges
		WHERE request_id = ?
		ORDER BY id ASC
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.RequestID, &e.Kind, &e.Model, &e.Prompt, &e.Response, &e.Error, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes exchanges and requests older than the retention window.
// Returns the number of exchange rows removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	res, err := s.db.ExecContext(ctx, `DELETE FROM llm_exchanges WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM score_requests WHERE created_at < ?`, cutoff); err != nil {
		return removed, err
	}

	return removed, nil
}

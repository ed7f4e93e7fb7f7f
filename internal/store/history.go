// Package store persists completed review results to a local SQLite
// database so a later CLI invocation can list or inspect past runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"impactreview/internal/logging"
	"impactreview/internal/models"
)

// HistoryStore persists ReviewResults keyed by pull-request ID in SQLite.
// It implements review.HistoryStore.
type HistoryStore struct {
	db *sql.DB
}

// HistoryEntry is one persisted review, as returned by List/Get.
type HistoryEntry struct {
	ID         int64
	PRID       string
	ReviewedAt string
	Status     string
	Summary    string
	Result     models.ReviewResult
}

// NewHistoryStore opens (creating if needed) the SQLite database at path
// and ensures the review_history table exists.
func NewHistoryStore(path string) (*HistoryStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewHistoryStore")
	defer timer.Stop()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set journal_mode=WAL: %v", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS review_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pr_id TEXT NOT NULL,
		reviewed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		status TEXT NOT NULL,
		summary TEXT,
		result_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_review_history_pr_id ON review_history(pr_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create review_history table: %w", err)
	}

	logging.Store("review history store initialized at %s", path)
	return &HistoryStore{db: db}, nil
}

// Save inserts a new history row for prID whatever the result's Status;
// callers decide which results to persist.
func (s *HistoryStore) Save(ctx context.Context, prID string, result models.ReviewResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal review result: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO review_history (pr_id, status, summary, result_json) VALUES (?, ?, ?, ?)`,
		prID, string(result.Status), result.Summary, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to insert review history: %w", err)
	}
	logging.StoreDebug("persisted review history for pr=%s status=%s", prID, result.Status)
	return nil
}

// List returns the most recent history entries, newest first, capped at limit.
func (s *HistoryStore) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pr_id, reviewed_at, status, summary, result_json FROM review_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list review history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var resultJSON string
		if err := rows.Scan(&e.ID, &e.PRID, &e.ReviewedAt, &e.Status, &e.Summary, &resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan review history row: %w", err)
		}
		if err := json.Unmarshal([]byte(resultJSON), &e.Result); err != nil {
			logging.StoreError("failed to unmarshal stored result for pr=%s: %v", e.PRID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the most recent history entry for prID, if any.
func (s *HistoryStore) Get(ctx context.Context, prID string) (*HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pr_id, reviewed_at, status, summary, result_json FROM review_history WHERE pr_id = ? ORDER BY id DESC LIMIT 1`,
		prID,
	)
	var e HistoryEntry
	var resultJSON string
	if err := row.Scan(&e.ID, &e.PRID, &e.ReviewedAt, &e.Status, &e.Summary, &resultJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get review history: %w", err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &e.Result); err != nil {
		logging.StoreError("failed to unmarshal stored result for pr=%s: %v", e.PRID, err)
	}
	return &e, nil
}

// Close closes the underlying database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/energle/pkg/score"
)

// History persists the guesses of each round as one JSON document keyed by
// the round seed (the date string for daily rounds).
type History struct {
	db *sql.DB
}

// OpenHistory opens (or creates) the SQLite database at path and ensures the
// round_guesses table exists. An empty path keeps history in memory.
func OpenHistory(path string) (*History, error) {
	dsn := path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	if path == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if path == "" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS round_guesses (
		day        TEXT PRIMARY KEY,
		doc        TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create round_guesses table: %w", err)
	}
	return &History{db: db}, nil
}

// Close closes the SQLite connection.
func (h *History) Close() error {
	return h.db.Close()
}

// Load returns the guesses recorded for day in submission order. An unknown
// day has no guesses.
func (h *History) Load(ctx context.Context, day string) ([]score.Guess, error) {
	return loadGuesses(ctx, h.db, day)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadGuesses(ctx context.Context, q querier, day string) ([]score.Guess, error) {
	var doc string
	err := q.QueryRowContext(ctx, `SELECT doc FROM round_guesses WHERE day = ?`, day).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return []score.Guess{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load guesses for %s: %w", day, err)
	}
	guesses := []score.Guess{}
	if err := json.Unmarshal([]byte(doc), &guesses); err != nil {
		return nil, fmt.Errorf("decode guesses for %s: %w", day, err)
	}
	return guesses, nil
}

// Append adds g to the guesses of day and returns the updated list.
func (h *History) Append(ctx context.Context, day string, g score.Guess) ([]score.Guess, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	guesses, err := loadGuesses(ctx, tx, day)
	if err != nil {
		return nil, err
	}
	guesses = append(guesses, g)
	doc, err := json.Marshal(guesses)
	if err != nil {
		return nil, fmt.Errorf("encode guesses for %s: %w", day, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO round_guesses (day, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		day, string(doc), time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("store guesses for %s: %w", day, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit guesses for %s: %w", day, err)
	}
	return guesses, nil
}

// Days lists the recorded round keys, most recently updated first.
func (h *History) Days(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT day FROM round_guesses ORDER BY updated_at DESC, day DESC`)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

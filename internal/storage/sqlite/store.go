package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const (
	StatusDone  = "done"
	StatusError = "error"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

type Store struct {
	db *sql.DB
}

// createdAtLayout is fixed width so created_at text sorts chronologically.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// QueryRecord is one question put to the agent and its outcome.
type QueryRecord struct {
	ID        string
	Query     string
	Answer    string
	Error     string
	Status    string
	ElapsedMS int64
	CreatedAt time.Time
}

// InvocationRecord is one tool call made while answering a query.
type InvocationRecord struct {
	QueryID    string
	Seq        int
	Tool       string
	Arguments  string
	Result     string
	Error      string
	DurationMS int64
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS queries (
    id TEXT PRIMARY KEY,
    query TEXT NOT NULL,
    answer TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    elapsed_ms INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS invocations (
    query_id TEXT NOT NULL REFERENCES queries(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    tool TEXT NOT NULL,
    arguments TEXT NOT NULL DEFAULT '',
    result TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    duration_ms INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (query_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_queries_created ON queries(created_at);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveQuery stores a query together with its tool calls in one transaction.
// An empty ID is filled with a fresh UUID and returned.
func (s *Store) SaveQuery(ctx context.Context, rec QueryRecord, invocations []InvocationRecord) (string, error) {
	if strings.TrimSpace(rec.Query) == "" {
		return "", errors.New("query text is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = StatusDone
		if rec.Error != "" {
			rec.Status = StatusError
		}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO queries (id, query, answer, error, status, elapsed_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, rec.ID, rec.Query, rec.Answer, rec.Error, rec.Status, rec.ElapsedMS, rec.CreatedAt.UTC().Format(createdAtLayout))
	if err != nil {
		return "", fmt.Errorf("insert query: %w", err)
	}

	for i, inv := range invocations {
		_, err = tx.ExecContext(ctx, `
INSERT INTO invocations (query_id, seq, tool, arguments, result, error, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, rec.ID, i+1, inv.Tool, inv.Arguments, inv.Result, inv.Error, inv.DurationMS)
		if err != nil {
			return "", fmt.Errorf("insert invocation %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit query: %w", err)
	}
	return rec.ID, nil
}

// ListQueries returns the most recent queries first.
func (s *Store) ListQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, query, answer, error, status, elapsed_ms, created_at
FROM queries
ORDER BY created_at DESC, rowid DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	defer rows.Close()

	var out []QueryRecord
	for rows.Next() {
		var (
			rec       QueryRecord
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Answer, &rec.Error, &rec.Status, &rec.ElapsedMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(createdAtLayout, createdAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list queries rows: %w", err)
	}
	return out, nil
}

func (s *Store) ListInvocations(ctx context.Context, queryID string) ([]InvocationRecord, error) {
	if strings.TrimSpace(queryID) == "" {
		return nil, errors.New("query id is required")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT query_id, seq, tool, arguments, result, error, duration_ms
FROM invocations
WHERE query_id = ?
ORDER BY seq ASC
`, queryID)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()

	var out []InvocationRecord
	for rows.Next() {
		var rec InvocationRecord
		if err := rows.Scan(&rec.QueryID, &rec.Seq, &rec.Tool, &rec.Arguments, &rec.Result, &rec.Error, &rec.DurationMS); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invocations rows: %w", err)
	}
	return out, nil
}

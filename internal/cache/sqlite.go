package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists generated text in a single SQLite table. Rows are
// {key, text, created_at}; Put is an upsert so the last write wins.
type SQLiteStore struct {
	db *sql.DB
	sq sq.StatementBuilderType
}

// OpenSQLiteStore opens (or creates) the cache database at dbPath.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("make cache dir: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS generated_text (
        key TEXT PRIMARY KEY,
        text TEXT NOT NULL,
        created_at TEXT NOT NULL
    )`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create generated_text: %w", err)
	}
	return &SQLiteStore{db: db, sq: sq.StatementBuilder.PlaceholderFormat(sq.Question)}, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	q := s.sq.Select("text").From("generated_text").Where(sq.Eq{"key": key}).Limit(1)
	sqlStr, args, _ := q.ToSql()
	var text string
	err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&text)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, key, text string) error {
	q := s.sq.Insert("generated_text").
		Columns("key", "text", "created_at").
		Values(key, text, time.Now().UTC().Format(time.RFC3339)).
		Suffix("ON CONFLICT(key) DO UPDATE SET text=excluded.text, created_at=excluded.created_at")
	sqlStr, args, _ := q.ToSql()
	_, err := s.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

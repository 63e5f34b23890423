package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/user/sitesearch/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS site (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	url         TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	status      TEXT NOT NULL,
	status_time TIMESTAMP NOT NULL,
	last_error  TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS page (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id INTEGER NOT NULL REFERENCES site(id) ON DELETE CASCADE,
	path    TEXT NOT NULL,
	code    INTEGER NOT NULL,
	content TEXT NOT NULL,
	UNIQUE (site_id, path)
);
CREATE TABLE IF NOT EXISTS lemma (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id   INTEGER NOT NULL REFERENCES site(id) ON DELETE CASCADE,
	lemma     TEXT NOT NULL,
	frequency INTEGER NOT NULL,
	UNIQUE (site_id, lemma)
);
CREATE TABLE IF NOT EXISTS search_index (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	page_id  INTEGER NOT NULL REFERENCES page(id) ON DELETE CASCADE,
	lemma_id INTEGER NOT NULL REFERENCES lemma(id) ON DELETE CASCADE,
	rank     REAL NOT NULL,
	UNIQUE (page_id, lemma_id)
);
CREATE INDEX IF NOT EXISTS idx_search_index_lemma ON search_index (lemma_id);
`

// Open opens the database at path (":memory:" for a private in-memory
// database) and creates the schema. The pool holds a single connection,
// which serializes writers and keeps an in-memory database alive.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize sqlite schema: %w", err)
		}
	}
	return db, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// inClause returns "?, ?, ..." for n parameters.
func inClause(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func args[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

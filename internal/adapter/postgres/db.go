package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/sitesearch/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS site (
	id          BIGSERIAL PRIMARY KEY,
	url         TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	status      TEXT NOT NULL,
	status_time TIMESTAMPTZ NOT NULL,
	last_error  TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS page (
	id      BIGSERIAL PRIMARY KEY,
	site_id BIGINT NOT NULL REFERENCES site(id) ON DELETE CASCADE,
	path    TEXT NOT NULL,
	code    INTEGER NOT NULL,
	content TEXT NOT NULL,
	UNIQUE (site_id, path)
);
CREATE TABLE IF NOT EXISTS lemma (
	id        BIGSERIAL PRIMARY KEY,
	site_id   BIGINT NOT NULL REFERENCES site(id) ON DELETE CASCADE,
	lemma     TEXT NOT NULL,
	frequency INTEGER NOT NULL,
	UNIQUE (site_id, lemma)
);
CREATE TABLE IF NOT EXISTS search_index (
	id       BIGSERIAL PRIMARY KEY,
	page_id  BIGINT NOT NULL REFERENCES page(id) ON DELETE CASCADE,
	lemma_id BIGINT NOT NULL REFERENCES lemma(id) ON DELETE CASCADE,
	rank     DOUBLE PRECISION NOT NULL,
	UNIQUE (page_id, lemma_id)
);
CREATE INDEX IF NOT EXISTS idx_search_index_lemma ON search_index (lemma_id);
`

// Connect opens a connection pool and creates the schema.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return pool, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/sitesearch/internal/entity"
)

// LemmaRepoImpl provides a concrete implementation for the LemmaRepository interface using PostgreSQL.
type LemmaRepoImpl struct {
	db *pgxpool.Pool
}

// NewLemmaRepo creates a new instance of LemmaRepoImpl.
func NewLemmaRepo(db *pgxpool.Pool) *LemmaRepoImpl {
	return &LemmaRepoImpl{db: db}
}

// IncrementOrCreate relies on ON CONFLICT so concurrent pages of the same
// site never lose an increment.
func (r *LemmaRepoImpl) IncrementOrCreate(ctx context.Context, siteID int64, lemma string) (*entity.Lemma, error) {
	l := entity.Lemma{SiteID: siteID, Lemma: lemma}
	err := r.db.QueryRow(ctx, `
		INSERT INTO lemma (site_id, lemma, frequency) VALUES ($1, $2, 1)
		ON CONFLICT (site_id, lemma) DO UPDATE SET frequency = lemma.frequency + 1
		RETURNING id, frequency`, siteID, lemma).Scan(&l.ID, &l.Frequency)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert lemma %q: %w", lemma, err)
	}
	return &l, nil
}

func (r *LemmaRepoImpl) FindByLemma(ctx context.Context, siteID int64, lemma string) (*entity.Lemma, error) {
	var l entity.Lemma
	err := r.db.QueryRow(ctx,
		`SELECT id, site_id, lemma, frequency FROM lemma WHERE site_id = $1 AND lemma = $2`, siteID, lemma).
		Scan(&l.ID, &l.SiteID, &l.Lemma, &l.Frequency)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (r *LemmaRepoImpl) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM lemma`).Scan(&n)
	return n, err
}

func (r *LemmaRepoImpl) CountBySite(ctx context.Context, siteID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM lemma WHERE site_id = $1`, siteID).Scan(&n)
	return n, err
}

package repository

import (
	"context"

	"github.com/user/sitesearch/internal/entity"
)

// LemmaRepository defines persistence for per-site lemmas.
type LemmaRepository interface {
	// IncrementOrCreate atomically creates the lemma with frequency 1 or
	// increments the frequency of the existing row.
	IncrementOrCreate(ctx context.Context, siteID int64, lemma string) (*entity.Lemma, error)
	// FindByLemma returns ErrNotFound if the site has no such lemma.
	FindByLemma(ctx context.Context, siteID int64, lemma string) (*entity.Lemma, error)
	CountAll(ctx context.Context) (int, error)
	CountBySite(ctx context.Context, siteID int64) (int, error)
}

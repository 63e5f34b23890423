package repository

import (
	"context"

	"github.com/user/sitesearch/internal/entity"
)

// IndexRepository defines persistence for (page, lemma, rank) rows.
type IndexRepository interface {
	// Save inserts the entry or overwrites the rank of the existing
	// (page, lemma) row.
	Save(ctx context.Context, entry *entity.IndexEntry) error
	// FindPagesByLemmas returns the distinct pages containing any of the
	// lemmas, ordered by aggregate rank descending. siteID 0 means all sites.
	FindPagesByLemmas(ctx context.Context, siteID int64, lemmas []string) ([]entity.PageRank, error)
	// SumRanks returns, per page, the summed rank of the given lemmas.
	SumRanks(ctx context.Context, pageIDs []int64, lemmas []string) (map[int64]float64, error)
}

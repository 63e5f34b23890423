package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/sitesearch/internal/entity"
)

// IndexRepoImpl provides a concrete implementation for the IndexRepository interface using PostgreSQL.
type IndexRepoImpl struct {
	db *pgxpool.Pool
}

// NewIndexRepo creates a new instance of IndexRepoImpl.
func NewIndexRepo(db *pgxpool.Pool) *IndexRepoImpl {
	return &IndexRepoImpl{db: db}
}

func (r *IndexRepoImpl) Save(ctx context.Context, entry *entity.IndexEntry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO search_index (page_id, lemma_id, rank) VALUES ($1, $2, $3)
		ON CONFLICT (page_id, lemma_id) DO UPDATE SET rank = EXCLUDED.rank
		RETURNING id`, entry.PageID, entry.LemmaID, entry.Rank).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to save index entry: %w", err)
	}
	return nil
}

func (r *IndexRepoImpl) FindPagesByLemmas(ctx context.Context, siteID int64, lemmas []string) ([]entity.PageRank, error) {
	if len(lemmas) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT i.page_id, SUM(i.rank) AS total
		FROM search_index i JOIN lemma l ON l.id = i.lemma_id
		WHERE l.lemma = ANY($1) AND ($2::bigint = 0 OR l.site_id = $2)
		GROUP BY i.page_id
		ORDER BY total DESC, i.page_id`, lemmas, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.PageRank
	for rows.Next() {
		var pr entity.PageRank
		if err := rows.Scan(&pr.PageID, &pr.Rank); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (r *IndexRepoImpl) SumRanks(ctx context.Context, pageIDs []int64, lemmas []string) (map[int64]float64, error) {
	sums := make(map[int64]float64, len(pageIDs))
	if len(pageIDs) == 0 || len(lemmas) == 0 {
		return sums, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT i.page_id, SUM(i.rank)
		FROM search_index i JOIN lemma l ON l.id = i.lemma_id
		WHERE i.page_id = ANY($1) AND l.lemma = ANY($2)
		GROUP BY i.page_id`, pageIDs, lemmas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var sum float64
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		sums[id] = sum
	}
	return sums, rows.Err()
}

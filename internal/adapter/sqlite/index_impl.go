package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/user/sitesearch/internal/entity"
)

// IndexRepoImpl provides a concrete implementation for the IndexRepository interface using SQLite.
type IndexRepoImpl struct {
	db *sql.DB
}

// NewIndexRepo creates a new instance of IndexRepoImpl.
func NewIndexRepo(db *sql.DB) *IndexRepoImpl {
	return &IndexRepoImpl{db: db}
}

func (r *IndexRepoImpl) Save(ctx context.Context, entry *entity.IndexEntry) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO search_index (page_id, lemma_id, rank) VALUES (?, ?, ?)
		ON CONFLICT (page_id, lemma_id) DO UPDATE SET rank = excluded.rank
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
	query := `
		SELECT i.page_id, SUM(i.rank) AS total
		FROM search_index i JOIN lemma l ON l.id = i.lemma_id
		WHERE l.lemma IN (` + inClause(len(lemmas)) + `)`
	params := args(lemmas)
	if siteID != 0 {
		query += ` AND l.site_id = ?`
		params = append(params, siteID)
	}
	query += ` GROUP BY i.page_id ORDER BY total DESC, i.page_id`

	rows, err := r.db.QueryContext(ctx, query, params...)
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
	query := `
		SELECT i.page_id, SUM(i.rank)
		FROM search_index i JOIN lemma l ON l.id = i.lemma_id
		WHERE i.page_id IN (` + inClause(len(pageIDs)) + `)
		AND l.lemma IN (` + inClause(len(lemmas)) + `)
		GROUP BY i.page_id`
	params := append(args(pageIDs), args(lemmas)...)

	rows, err := r.db.QueryContext(ctx, query, params...)
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

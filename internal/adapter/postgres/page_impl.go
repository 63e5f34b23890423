package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/repository"
)

// PageRepoImpl provides a concrete implementation for the PageRepository interface using PostgreSQL.
type PageRepoImpl struct {
	db *pgxpool.Pool
}

// NewPageRepo creates a new instance of PageRepoImpl.
func NewPageRepo(db *pgxpool.Pool) *PageRepoImpl {
	return &PageRepoImpl{db: db}
}

func (r *PageRepoImpl) Save(ctx context.Context, page *entity.Page) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO page (site_id, path, code, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		page.SiteID, page.Path, page.Code, page.Content,
	).Scan(&page.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert page %s: %w", page.Path, err)
	}
	return nil
}

func (r *PageRepoImpl) FindByPath(ctx context.Context, siteID int64, path string) (*entity.Page, error) {
	var p entity.Page
	err := r.db.QueryRow(ctx,
		`SELECT id, site_id, path, code, content FROM page WHERE site_id = $1 AND path = $2`, siteID, path).
		Scan(&p.ID, &p.SiteID, &p.Path, &p.Code, &p.Content)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PageRepoImpl) ExistsByPath(ctx context.Context, siteID int64, path string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM page WHERE site_id = $1 AND path = $2)`, siteID, path).Scan(&exists)
	return exists, err
}

func (r *PageRepoImpl) FindByIDs(ctx context.Context, ids []int64) ([]*entity.Page, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, site_id, path, code, content FROM page WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*entity.Page
	for rows.Next() {
		var p entity.Page
		if err := rows.Scan(&p.ID, &p.SiteID, &p.Path, &p.Code, &p.Content); err != nil {
			return nil, err
		}
		pages = append(pages, &p)
	}
	return pages, rows.Err()
}

func (r *PageRepoImpl) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM page`).Scan(&n)
	return n, err
}

func (r *PageRepoImpl) CountBySite(ctx context.Context, siteID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM page WHERE site_id = $1`, siteID).Scan(&n)
	return n, err
}

// Delete removes the page with its index rows. Lemmas of the page lose one
// unit of frequency and are dropped once no index row references them.
func (r *PageRepoImpl) Delete(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var siteID int64
		if err := tx.QueryRow(ctx, `SELECT site_id FROM page WHERE id = $1 FOR UPDATE`, id).Scan(&siteID); err != nil {
			return notFound(err)
		}

		batch := &pgx.Batch{}
		batch.Queue(`UPDATE lemma SET frequency = frequency - 1
			WHERE id IN (SELECT lemma_id FROM search_index WHERE page_id = $1)`, id)
		batch.Queue(`DELETE FROM search_index WHERE page_id = $1`, id)
		batch.Queue(`DELETE FROM lemma l WHERE l.site_id = $1 AND l.frequency <= 0
			AND NOT EXISTS (SELECT 1 FROM search_index i WHERE i.lemma_id = l.id)`, siteID)
		batch.Queue(`DELETE FROM page WHERE id = $1`, id)

		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to delete page %d: %w", id, err)
			}
		}
		return results.Close()
	})
}

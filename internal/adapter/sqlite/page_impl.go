package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/repository"
)

// PageRepoImpl provides a concrete implementation for the PageRepository interface using SQLite.
type PageRepoImpl struct {
	db *sql.DB
}

// NewPageRepo creates a new instance of PageRepoImpl.
func NewPageRepo(db *sql.DB) *PageRepoImpl {
	return &PageRepoImpl{db: db}
}

func (r *PageRepoImpl) Save(ctx context.Context, page *entity.Page) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO page (site_id, path, code, content) VALUES (?, ?, ?, ?)`,
		page.SiteID, page.Path, page.Code, page.Content)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert page %s: %w", page.Path, err)
	}
	page.ID, err = res.LastInsertId()
	return err
}

func (r *PageRepoImpl) FindByPath(ctx context.Context, siteID int64, path string) (*entity.Page, error) {
	var p entity.Page
	err := r.db.QueryRowContext(ctx,
		`SELECT id, site_id, path, code, content FROM page WHERE site_id = ? AND path = ?`, siteID, path).
		Scan(&p.ID, &p.SiteID, &p.Path, &p.Code, &p.Content)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PageRepoImpl) ExistsByPath(ctx context.Context, siteID int64, path string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM page WHERE site_id = ? AND path = ?)`, siteID, path).Scan(&exists)
	return exists, err
}

func (r *PageRepoImpl) FindByIDs(ctx context.Context, ids []int64) ([]*entity.Page, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, site_id, path, code, content FROM page WHERE id IN (`+inClause(len(ids))+`)`,
		args(ids)...)
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
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM page`).Scan(&n)
	return n, err
}

func (r *PageRepoImpl) CountBySite(ctx context.Context, siteID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM page WHERE site_id = ?`, siteID).Scan(&n)
	return n, err
}

// Delete removes the page with its index rows. Lemmas of the page lose one
// unit of frequency and are dropped once no index row references them.
func (r *PageRepoImpl) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var siteID int64
	if err := tx.QueryRowContext(ctx, `SELECT site_id FROM page WHERE id = ?`, id).Scan(&siteID); err != nil {
		return notFound(err)
	}

	steps := []struct {
		query string
		args  []any
	}{
		{`UPDATE lemma SET frequency = frequency - 1
			WHERE id IN (SELECT lemma_id FROM search_index WHERE page_id = ?)`, []any{id}},
		{`DELETE FROM search_index WHERE page_id = ?`, []any{id}},
		{`DELETE FROM lemma WHERE site_id = ? AND frequency <= 0
			AND NOT EXISTS (SELECT 1 FROM search_index i WHERE i.lemma_id = lemma.id)`, []any{siteID}},
		{`DELETE FROM page WHERE id = ?`, []any{id}},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, step.args...); err != nil {
			return fmt.Errorf("failed to delete page %d: %w", id, err)
		}
	}
	return tx.Commit()
}

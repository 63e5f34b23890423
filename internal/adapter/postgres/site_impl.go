package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/repository"
)

// SiteRepoImpl provides a concrete implementation for the SiteRepository interface using PostgreSQL.
type SiteRepoImpl struct {
	db *pgxpool.Pool
}

// NewSiteRepo creates a new instance of SiteRepoImpl.
func NewSiteRepo(db *pgxpool.Pool) *SiteRepoImpl {
	return &SiteRepoImpl{db: db}
}

func (r *SiteRepoImpl) Create(ctx context.Context, site *entity.Site) error {
	if site.StatusTime.IsZero() {
		site.StatusTime = time.Now().UTC()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO site (url, name, status, status_time, last_error)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		site.URL, site.Name, string(site.Status), site.StatusTime, site.LastError,
	).Scan(&site.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert site %s: %w", site.URL, err)
	}
	return nil
}

func (r *SiteRepoImpl) FindByURL(ctx context.Context, url string) (*entity.Site, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, url, name, status, status_time, last_error FROM site WHERE url = $1`, url)
	site, err := scanSite(row)
	if err != nil {
		return nil, notFound(err)
	}
	return site, nil
}

func (r *SiteRepoImpl) FindAll(ctx context.Context) ([]*entity.Site, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, url, name, status, status_time, last_error FROM site ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []*entity.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (r *SiteRepoImpl) UpdateStatus(ctx context.Context, id int64, status entity.SiteStatus, lastError string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE site SET status = $1, status_time = $2, last_error = $3 WHERE id = $4`,
		string(status), time.Now().UTC(), lastError, id)
	return err
}

// Delete removes the site; foreign keys cascade to pages, lemmas and index rows.
func (r *SiteRepoImpl) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM site WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete site %d: %w", id, err)
	}
	return nil
}

func scanSite(row pgx.Row) (*entity.Site, error) {
	var site entity.Site
	var status string
	if err := row.Scan(&site.ID, &site.URL, &site.Name, &status, &site.StatusTime, &site.LastError); err != nil {
		return nil, err
	}
	site.Status = entity.SiteStatus(status)
	return &site, nil
}

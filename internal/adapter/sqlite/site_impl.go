package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/repository"
)

// SiteRepoImpl provides a concrete implementation for the SiteRepository interface using SQLite.
type SiteRepoImpl struct {
	db *sql.DB
}

// NewSiteRepo creates a new instance of SiteRepoImpl.
func NewSiteRepo(db *sql.DB) *SiteRepoImpl {
	return &SiteRepoImpl{db: db}
}

func (r *SiteRepoImpl) Create(ctx context.Context, site *entity.Site) error {
	if site.StatusTime.IsZero() {
		site.StatusTime = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO site (url, name, status, status_time, last_error) VALUES (?, ?, ?, ?, ?)`,
		site.URL, site.Name, string(site.Status), site.StatusTime, site.LastError)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert site %s: %w", site.URL, err)
	}
	site.ID, err = res.LastInsertId()
	return err
}

func (r *SiteRepoImpl) FindByURL(ctx context.Context, url string) (*entity.Site, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, url, name, status, status_time, last_error FROM site WHERE url = ?`, url)
	site, err := scanSite(row)
	if err != nil {
		return nil, notFound(err)
	}
	return site, nil
}

func (r *SiteRepoImpl) FindAll(ctx context.Context) ([]*entity.Site, error) {
	rows, err := r.db.QueryContext(ctx,
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
	_, err := r.db.ExecContext(ctx,
		`UPDATE site SET status = ?, status_time = ?, last_error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), lastError, id)
	return err
}

// Delete removes the site and everything indexed under it in one transaction.
func (r *SiteRepoImpl) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM search_index WHERE page_id IN (SELECT id FROM page WHERE site_id = ?)`,
		`DELETE FROM lemma WHERE site_id = ?`,
		`DELETE FROM page WHERE site_id = ?`,
		`DELETE FROM site WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete site %d: %w", id, err)
		}
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSite(s scanner) (*entity.Site, error) {
	var site entity.Site
	var status string
	if err := s.Scan(&site.ID, &site.URL, &site.Name, &status, &site.StatusTime, &site.LastError); err != nil {
		return nil, err
	}
	site.Status = entity.SiteStatus(status)
	return &site, nil
}

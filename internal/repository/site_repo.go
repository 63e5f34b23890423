package repository

import (
	"context"

	"github.com/user/sitesearch/internal/entity"
)

// SiteRepository defines persistence for indexed sites.
type SiteRepository interface {
	// Create inserts a site and sets its ID.
	Create(ctx context.Context, site *entity.Site) error
	// FindByURL returns ErrNotFound if no site has the URL.
	FindByURL(ctx context.Context, url string) (*entity.Site, error)
	FindAll(ctx context.Context) ([]*entity.Site, error)
	// UpdateStatus sets status, last error and refreshes the status time.
	UpdateStatus(ctx context.Context, id int64, status entity.SiteStatus, lastError string) error
	// Delete removes the site together with its pages, lemmas and index rows.
	Delete(ctx context.Context, id int64) error
}

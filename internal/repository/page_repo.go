package repository

import (
	"context"

	"github.com/user/sitesearch/internal/entity"
)

// PageRepository defines persistence for crawled pages.
type PageRepository interface {
	// Save inserts a page and sets its ID. A page with the same
	// (site, path) yields ErrDuplicate.
	Save(ctx context.Context, page *entity.Page) error
	// FindByPath returns ErrNotFound if the site has no such page.
	FindByPath(ctx context.Context, siteID int64, path string) (*entity.Page, error)
	ExistsByPath(ctx context.Context, siteID int64, path string) (bool, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*entity.Page, error)
	CountAll(ctx context.Context) (int, error)
	CountBySite(ctx context.Context, siteID int64) (int, error)
	// Delete removes the page and its index rows, decrements the
	// frequency of the affected lemmas and drops lemmas left without rows.
	Delete(ctx context.Context, id int64) error
}

package repository

import "context"

// VisitedRepository defines the per-site set of URLs already claimed by a crawl.
type VisitedRepository interface {
	// MarkVisited adds url to the site's set. It reports false if the URL
	// was already present.
	MarkVisited(ctx context.Context, siteID int64, url string) (bool, error)
	// Reset empties the site's set.
	Reset(ctx context.Context, siteID int64) error
}

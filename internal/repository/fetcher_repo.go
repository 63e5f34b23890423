package repository

import (
	"context"

	"github.com/user/sitesearch/internal/entity"
)

// PageFetcher defines the contract for downloading a web page.
type PageFetcher interface {
	// Fetch downloads url and returns its HTML and outgoing links.
	// Non-textual responses fail with ErrNotTextual.
	Fetch(ctx context.Context, url string) (*entity.FetchedPage, error)
}

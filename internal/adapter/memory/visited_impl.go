package memory

import (
	"context"
	"sync"
)

// VisitedRepoImpl is an in-process visited set, one set per site.
type VisitedRepoImpl struct {
	mu    sync.Mutex
	sites map[int64]map[string]struct{}
}

// NewVisitedRepo creates a new instance of VisitedRepoImpl.
func NewVisitedRepo() *VisitedRepoImpl {
	return &VisitedRepoImpl{sites: make(map[int64]map[string]struct{})}
}

// MarkVisited adds url to the site's set and reports whether it was new.
func (r *VisitedRepoImpl) MarkVisited(_ context.Context, siteID int64, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sites[siteID]
	if !ok {
		set = make(map[string]struct{})
		r.sites[siteID] = set
	}
	if _, seen := set[url]; seen {
		return false, nil
	}
	set[url] = struct{}{}
	return true, nil
}

// Reset forgets every URL of the site.
func (r *VisitedRepoImpl) Reset(_ context.Context, siteID int64) error {
	r.mu.Lock()
	delete(r.sites, siteID)
	r.mu.Unlock()
	return nil
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/sitesearch/pkg/utils"
)

const (
	visitedKeyPrefix = "crawler:visited:"
	visitedTTL       = 24 * time.Hour
)

// VisitedRepoImpl keeps one Redis set of hashed URLs per site.
type VisitedRepoImpl struct {
	client *redis.Client
}

// NewVisitedRepo creates a new instance of VisitedRepoImpl.
func NewVisitedRepo(client *redis.Client) *VisitedRepoImpl {
	return &VisitedRepoImpl{client: client}
}

func (r *VisitedRepoImpl) generateKey(siteID int64) string {
	return fmt.Sprintf("%s%d", visitedKeyPrefix, siteID)
}

// MarkVisited adds the URL hash to the site's set. SADD reports 1 only for
// the caller that inserted the member, which makes it a test-and-add.
func (r *VisitedRepoImpl) MarkVisited(ctx context.Context, siteID int64, url string) (bool, error) {
	key := r.generateKey(siteID)
	pipe := r.client.TxPipeline()
	added := pipe.SAdd(ctx, key, utils.HashURL(url))
	pipe.Expire(ctx, key, visitedTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to mark url as visited: %w", err)
	}
	return added.Val() == 1, nil
}

// Reset deletes the site's set.
func (r *VisitedRepoImpl) Reset(ctx context.Context, siteID int64) error {
	return r.client.Del(ctx, r.generateKey(siteID)).Err()
}

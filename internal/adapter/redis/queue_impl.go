package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const reindexQueueKey = "crawler:reindex"

// QueueRepoImpl provides a concrete implementation for the QueueRepository interface using a Redis list.
type QueueRepoImpl struct {
	client *redis.Client
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client *redis.Client) *QueueRepoImpl {
	return &QueueRepoImpl{client: client}
}

// Push appends a URL to the tail of the list.
func (r *QueueRepoImpl) Push(ctx context.Context, url string) error {
	return r.client.RPush(ctx, reindexQueueKey, url).Err()
}

// Remove deletes the first occurrence of url. LREM is atomic, so two
// concurrent callers cannot both observe the removal.
func (r *QueueRepoImpl) Remove(ctx context.Context, url string) (bool, error) {
	n, err := r.client.LRem(ctx, reindexQueueKey, 1, url).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Size returns the current number of items in the queue.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, reindexQueueKey).Result()
}

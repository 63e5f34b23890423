package memory

import (
	"context"
	"sync"
)

// QueueRepoImpl is an in-process FIFO of URLs.
type QueueRepoImpl struct {
	mu    sync.Mutex
	items []string
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo() *QueueRepoImpl {
	return &QueueRepoImpl{}
}

func (r *QueueRepoImpl) Push(_ context.Context, url string) error {
	r.mu.Lock()
	r.items = append(r.items, url)
	r.mu.Unlock()
	return nil
}

// Remove deletes the first occurrence of url.
func (r *QueueRepoImpl) Remove(_ context.Context, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, item := range r.items {
		if item == url {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *QueueRepoImpl) Size(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

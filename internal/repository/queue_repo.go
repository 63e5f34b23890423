package repository

import "context"

// QueueRepository holds URLs awaiting a second single-page index request.
type QueueRepository interface {
	// Push appends a URL to the queue.
	Push(ctx context.Context, url string) error
	// Remove deletes one occurrence of url and reports whether it was queued.
	Remove(ctx context.Context, url string) (bool, error)
	// Size returns the current number of queued URLs.
	Size(ctx context.Context) (int64, error)
}

package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestVisitedRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewVisitedRepo(newTestClient(t))

	tests := []struct {
		name   string
		siteID int64
		url    string
		want   bool
	}{
		{"first visit", 1, "https://a.test/", true},
		{"repeat visit", 1, "https://a.test/", false},
		{"other url", 1, "https://a.test/b", true},
		{"other site", 2, "https://a.test/", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.MarkVisited(ctx, tt.siteID, tt.url)
			if err != nil {
				t.Fatalf("MarkVisited: %v", err)
			}
			if got != tt.want {
				t.Errorf("MarkVisited(%d, %q) = %v, want %v", tt.siteID, tt.url, got, tt.want)
			}
		})
	}

	if err := repo.Reset(ctx, 1); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if added, _ := repo.MarkVisited(ctx, 1, "https://a.test/"); !added {
		t.Error("url should be new after Reset")
	}
	if added, _ := repo.MarkVisited(ctx, 2, "https://a.test/"); added {
		t.Error("Reset must not touch other sites")
	}
}

func TestQueueRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewQueueRepo(newTestClient(t))

	if removed, err := repo.Remove(ctx, "https://a.test/p"); err != nil || removed {
		t.Fatalf("Remove on empty queue = %v, %v", removed, err)
	}
	if err := repo.Push(ctx, "https://a.test/p"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if n, _ := repo.Size(ctx); n != 1 {
		t.Fatalf("Size = %d, want 1", n)
	}
	if removed, _ := repo.Remove(ctx, "https://a.test/p"); !removed {
		t.Fatal("Remove should report the queued url")
	}
	if n, _ := repo.Size(ctx); n != 0 {
		t.Fatalf("Size = %d, want 0", n)
	}
}

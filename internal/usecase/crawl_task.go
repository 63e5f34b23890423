package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/repository"
	"github.com/user/sitesearch/pkg/metrics"
	"github.com/user/sitesearch/pkg/utils"
)

// siteCrawl is the task tree of one site. Every discovered URL runs in its
// own goroutine; the semaphore bounds how many fetch at once and pending
// counts tasks that have not returned yet.
type siteCrawl struct {
	uc   *indexingUseCase
	run  *crawlRun
	site *entity.Site

	sem     *semaphore.Weighted
	pending sync.WaitGroup

	stopOnce sync.Once
	mu       sync.Mutex
	lastErr  string
}

func newSiteCrawl(uc *indexingUseCase, run *crawlRun, site *entity.Site) *siteCrawl {
	return &siteCrawl{
		uc:   uc,
		run:  run,
		site: site,
		sem:  semaphore.NewWeighted(int64(uc.cfg.Concurrency)),
	}
}

// crawl visits the site root and everything reachable from it, returning
// when the whole tree has completed.
func (c *siteCrawl) crawl(ctx context.Context) {
	if _, err := c.uc.visitedRepo.MarkVisited(ctx, c.site.ID, c.site.URL); err != nil {
		slog.Warn("Failed to mark root as visited", "site", c.site.URL, "error", err)
	}
	c.spawn(ctx, c.site.URL)
	c.pending.Wait()
}

func (c *siteCrawl) spawn(ctx context.Context, url string) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer c.sem.Release(1)
		c.visit(ctx, url)
	}()
}

// visit fetches, stores and indexes one page, then spawns tasks for its
// unseen same-site links.
func (c *siteCrawl) visit(ctx context.Context, url string) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(ctx, url, fmt.Errorf("panic: %v", r))
		}
	}()

	if !c.run.keepCrawling.Load() {
		c.stop(ctx)
		return
	}

	fetched, err := c.uc.fetcher.Fetch(ctx, url)
	if err != nil {
		if isFetchFailure(err) {
			slog.Warn("Page skipped", "url", url, "error", err)
			metrics.CrawlPagesTotal.WithLabelValues("skipped").Inc()
			return
		}
		c.fail(ctx, url, err)
		return
	}

	if err := sleepContext(ctx, c.uc.cfg.CrawlDelay); err != nil {
		return
	}

	path, err := utils.PagePath(url)
	if err != nil {
		c.fail(ctx, url, err)
		return
	}
	page := &entity.Page{SiteID: c.site.ID, Path: path, Code: fetched.StatusCode, Content: fetched.HTML}
	if err := c.uc.pageRepo.Save(ctx, page); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			slog.Debug("Page already stored", "url", url, "path", path)
			metrics.CrawlPagesTotal.WithLabelValues("duplicate").Inc()
			return
		}
		c.fail(ctx, url, err)
		return
	}
	if _, err := c.uc.lemmas.ProcessPage(ctx, page); err != nil {
		c.fail(ctx, url, err)
		return
	}
	metrics.CrawlPagesTotal.WithLabelValues("indexed").Inc()
	slog.Debug("Page indexed", "url", url, "site", c.site.URL)

	for _, link := range fetched.Links {
		c.discover(ctx, link)
	}
}

// discover spawns a task for link if it belongs to the site, has no stored
// page and has not been claimed by another task.
func (c *siteCrawl) discover(ctx context.Context, link string) {
	if !utils.BelongsToSite(c.site.URL, link) {
		return
	}
	path, err := utils.PagePath(link)
	if err != nil {
		return
	}
	exists, err := c.uc.pageRepo.ExistsByPath(ctx, c.site.ID, path)
	if err != nil {
		slog.Warn("Failed to check page existence", "url", link, "error", err)
		return
	}
	if exists {
		return
	}
	added, err := c.uc.visitedRepo.MarkVisited(ctx, c.site.ID, link)
	if err != nil {
		slog.Warn("Failed to mark url as visited", "url", link, "error", err)
		return
	}
	if added {
		c.spawn(ctx, link)
	}
}

func (c *siteCrawl) stop(ctx context.Context) {
	c.stopOnce.Do(func() {
		c.uc.setStatus(ctx, c.site, entity.SiteFailed, stoppedByUser)
	})
}

func (c *siteCrawl) fail(ctx context.Context, url string, err error) {
	slog.Error("Failed to process page", "url", url, "site", c.site.URL, "error", err)
	metrics.CrawlPagesTotal.WithLabelValues("error").Inc()

	c.mu.Lock()
	c.lastErr = processingError
	c.mu.Unlock()
	c.uc.setStatus(ctx, c.site, entity.SiteFailed, processingError)
}

func (c *siteCrawl) lastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func isFetchFailure(err error) bool {
	return errors.Is(err, repository.ErrNotTextual) ||
		errors.Is(err, repository.ErrFetchFailed) ||
		errors.Is(err, repository.ErrDisallowed)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

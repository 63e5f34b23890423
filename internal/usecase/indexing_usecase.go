package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/repository"
	"github.com/user/sitesearch/pkg/metrics"
	"github.com/user/sitesearch/pkg/utils"
)

var (
	ErrAlreadyRunning = errors.New("indexing is already running")
	ErrNotRunning     = errors.New("indexing is not running")
	ErrOutOfScope     = errors.New("page is outside the sites listed in the configuration")
	ErrNotAPage       = errors.New("url is a site root, not a page")
)

const (
	stoppedByUser   = "stopped by user"
	processingError = "error processing URL"
)

// Indexer controls whole-site crawls and single-page re-indexing.
type Indexer interface {
	// StartIndexing re-crawls every configured site in the background.
	StartIndexing(ctx context.Context) error
	// StopIndexing asks the running crawl to wind down. In-flight fetches
	// finish; queued tasks exit at their next check.
	StopIndexing(ctx context.Context) error
	// IndexPage queues url on the first call and re-indexes it
	// synchronously on the next call for the same url.
	IndexPage(ctx context.Context, url string) error
	IsIndexing() bool
	// Wait blocks until the current crawl, if any, has finished.
	Wait()
}

// IndexingConfig holds the crawl settings.
type IndexingConfig struct {
	Sites       []entity.SiteConfig
	Concurrency int
	CrawlDelay  time.Duration
}

// crawlRun is one StartIndexing invocation. keepCrawling is its
// cancellation token: tasks check it on entry and stop once it is cleared.
type crawlRun struct {
	keepCrawling atomic.Bool
	done         chan struct{}
}

func newCrawlRun() *crawlRun {
	run := &crawlRun{done: make(chan struct{})}
	run.keepCrawling.Store(true)
	return run
}

type indexingUseCase struct {
	cfg         IndexingConfig
	siteRepo    repository.SiteRepository
	pageRepo    repository.PageRepository
	visitedRepo repository.VisitedRepository
	queueRepo   repository.QueueRepository
	fetcher     repository.PageFetcher
	lemmas      LemmaIndexer

	run atomic.Pointer[crawlRun]
}

// NewIndexer creates a new instance of the indexing use case.
func NewIndexer(
	cfg IndexingConfig,
	siteRepo repository.SiteRepository,
	pageRepo repository.PageRepository,
	visitedRepo repository.VisitedRepository,
	queueRepo repository.QueueRepository,
	fetcher repository.PageFetcher,
	lemmas LemmaIndexer,
) Indexer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	for i := range cfg.Sites {
		cfg.Sites[i].URL = utils.NormalizeSiteURL(cfg.Sites[i].URL)
	}
	return &indexingUseCase{
		cfg:         cfg,
		siteRepo:    siteRepo,
		pageRepo:    pageRepo,
		visitedRepo: visitedRepo,
		queueRepo:   queueRepo,
		fetcher:     fetcher,
		lemmas:      lemmas,
	}
}

func (uc *indexingUseCase) StartIndexing(ctx context.Context) error {
	current := uc.run.Load()
	if current != nil && current.keepCrawling.Load() {
		return ErrAlreadyRunning
	}
	run := newCrawlRun()
	if !uc.run.CompareAndSwap(current, run) {
		return ErrAlreadyRunning
	}

	slog.Info("Indexing started", "sites", len(uc.cfg.Sites), "concurrency", uc.cfg.Concurrency)
	go uc.crawlSites(context.WithoutCancel(ctx), run)
	return nil
}

func (uc *indexingUseCase) StopIndexing(ctx context.Context) error {
	run := uc.run.Load()
	if run == nil || !run.keepCrawling.CompareAndSwap(true, false) {
		return ErrNotRunning
	}
	slog.Info("Indexing stop requested")
	return nil
}

func (uc *indexingUseCase) IsIndexing() bool {
	run := uc.run.Load()
	return run != nil && run.keepCrawling.Load()
}

func (uc *indexingUseCase) Wait() {
	if run := uc.run.Load(); run != nil {
		<-run.done
	}
}

// crawlSites runs one job per configured site, at most Concurrency at a time.
func (uc *indexingUseCase) crawlSites(ctx context.Context, run *crawlRun) {
	defer close(run.done)
	defer run.keepCrawling.Store(false)

	var g errgroup.Group
	g.SetLimit(uc.cfg.Concurrency)
	for _, sc := range uc.cfg.Sites {
		g.Go(func() error {
			uc.indexSite(ctx, run, sc)
			return nil
		})
	}
	_ = g.Wait()
	slog.Info("Indexing finished")
}

// indexSite replaces everything stored for the site with a fresh crawl.
// Failures are recorded on the site row and never escape. Jobs that start
// after a stop leave the stored site untouched.
func (uc *indexingUseCase) indexSite(ctx context.Context, run *crawlRun, sc entity.SiteConfig) {
	if !run.keepCrawling.Load() {
		slog.Info("Site crawl skipped, indexing was stopped", "site", sc.URL)
		return
	}
	startTime := time.Now()
	var site *entity.Site

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Site crawl panicked", "site", sc.URL, "panic", r)
			if site != nil {
				uc.setStatus(ctx, site, entity.SiteFailed, fmt.Sprint(r))
			}
		}
	}()

	if old, err := uc.siteRepo.FindByURL(ctx, sc.URL); err == nil {
		if err := uc.siteRepo.Delete(ctx, old.ID); err != nil {
			slog.Error("Failed to delete previous site data", "site", sc.URL, "error", err)
			return
		}
		_ = uc.visitedRepo.Reset(ctx, old.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		slog.Error("Failed to look up site", "site", sc.URL, "error", err)
		return
	}

	site = &entity.Site{URL: sc.URL, Name: sc.Name, Status: entity.SiteIndexing}
	if err := uc.siteRepo.Create(ctx, site); err != nil {
		slog.Error("Failed to create site", "site", sc.URL, "error", err)
		return
	}
	if err := uc.visitedRepo.Reset(ctx, site.ID); err != nil {
		slog.Warn("Failed to reset visited set", "site", sc.URL, "error", err)
	}
	slog.Info("Site crawl started", "site", site.URL, "site_id", site.ID)

	crawl := newSiteCrawl(uc, run, site)
	crawl.crawl(ctx)

	status, lastError := entity.SiteIndexed, crawl.lastError()
	if !run.keepCrawling.Load() {
		status, lastError = entity.SiteFailed, stoppedByUser
	}
	uc.setStatus(ctx, site, status, lastError)

	metrics.CrawlDuration.WithLabelValues(site.URL).Observe(time.Since(startTime).Seconds())
	slog.Info("Site crawl finished", "site", site.URL, "status", status, "duration_ms", time.Since(startTime).Milliseconds())
}

func (uc *indexingUseCase) setStatus(ctx context.Context, site *entity.Site, status entity.SiteStatus, lastError string) {
	if err := uc.siteRepo.UpdateStatus(ctx, site.ID, status, lastError); err != nil {
		slog.Error("Failed to update site status", "site", site.URL, "status", status, "error", err)
	}
}

func (uc *indexingUseCase) IndexPage(ctx context.Context, rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	sc, ok := uc.siteFor(rawURL)
	if !ok {
		return ErrOutOfScope
	}
	if utils.IsSiteRoot(sc.URL, rawURL) {
		return ErrNotAPage
	}

	removed, err := uc.queueRepo.Remove(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("failed to check re-index queue: %w", err)
	}
	if !removed {
		if err := uc.queueRepo.Push(ctx, rawURL); err != nil {
			return fmt.Errorf("failed to queue %s: %w", rawURL, err)
		}
		uc.observeQueue(ctx)
		slog.Info("Page queued for re-indexing", "url", rawURL)
		return nil
	}
	uc.observeQueue(ctx)

	site, err := uc.ensureSite(ctx, sc)
	if err != nil {
		return err
	}
	path, err := utils.PagePath(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %s: %w", rawURL, err)
	}

	if old, err := uc.pageRepo.FindByPath(ctx, site.ID, path); err == nil {
		if err := uc.pageRepo.Delete(ctx, old.ID); err != nil {
			return fmt.Errorf("failed to delete page %s: %w", path, err)
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	fetched, err := uc.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	page := &entity.Page{SiteID: site.ID, Path: path, Code: fetched.StatusCode, Content: fetched.HTML}
	if err := uc.pageRepo.Save(ctx, page); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			slog.Info("Page was stored concurrently, keeping existing copy", "url", rawURL)
			uc.setStatus(ctx, site, entity.SiteIndexed, "")
			return nil
		}
		return err
	}
	n, err := uc.lemmas.ProcessPage(ctx, page)
	if err != nil {
		return err
	}
	uc.setStatus(ctx, site, entity.SiteIndexed, "")

	slog.Info("Page re-indexed", "url", rawURL, "lemmas", n)
	return nil
}

// siteFor returns the configured site with the longest URL prefixing rawURL.
func (uc *indexingUseCase) siteFor(rawURL string) (entity.SiteConfig, bool) {
	var best entity.SiteConfig
	found := false
	for _, sc := range uc.cfg.Sites {
		if utils.BelongsToSite(sc.URL, rawURL) && len(sc.URL) > len(best.URL) {
			best, found = sc, true
		}
	}
	return best, found
}

func (uc *indexingUseCase) ensureSite(ctx context.Context, sc entity.SiteConfig) (*entity.Site, error) {
	site, err := uc.siteRepo.FindByURL(ctx, sc.URL)
	if err == nil {
		return site, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	site = &entity.Site{URL: sc.URL, Name: sc.Name, Status: entity.SiteIndexing}
	if err := uc.siteRepo.Create(ctx, site); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return uc.siteRepo.FindByURL(ctx, sc.URL)
		}
		return nil, err
	}
	return site, nil
}

func (uc *indexingUseCase) observeQueue(ctx context.Context) {
	if n, err := uc.queueRepo.Size(ctx); err == nil {
		metrics.ReindexQueueSize.Set(float64(n))
	}
}

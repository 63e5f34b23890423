package chromedp_crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/sitesearch/internal/adapter/httpfetch"
	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/repository"
)

// ChromedpCrawler fetches pages through a headless browser so that
// script-rendered content is indexed.
type ChromedpCrawler struct {
	allocatorPool *sync.Pool
	timeout       time.Duration
	referrer      string
}

// NewChromedpCrawler creates a fetcher backed by pooled browser allocators.
func NewChromedpCrawler(maxConcurrency int, pageLoadTimeout time.Duration, userAgent, referrer string) *ChromedpCrawler {
	pool := &sync.Pool{
		New: func() interface{} {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.UserAgent(userAgent),
			)
			allocCtx, _ := chromedp.NewExecAllocator(context.Background(), opts...)
			return allocCtx
		},
	}

	// Pre-warm the pool
	for i := 0; i < maxConcurrency; i++ {
		allocCtx := pool.Get().(context.Context)
		pool.Put(allocCtx)
	}

	return &ChromedpCrawler{
		allocatorPool: pool,
		timeout:       pageLoadTimeout,
		referrer:      referrer,
	}
}

// Fetch renders rawURL and returns the resulting DOM. Status code and MIME
// type come from the main document's network response.
func (c *ChromedpCrawler) Fetch(ctx context.Context, rawURL string) (*entity.FetchedPage, error) {
	allocCtx := c.allocatorPool.Get().(context.Context)
	defer c.allocatorPool.Put(allocCtx)

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	taskCtx, cancel = context.WithTimeout(taskCtx, c.timeout)
	defer cancel()
	// Stop the browser tab when the caller gives up.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		mu       sync.Mutex
		status   int64
		mimeType string
	)
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if status == 0 {
			status = e.Response.Status
			mimeType = e.Response.MimeType
		}
	})

	headers := network.Headers{}
	if c.referrer != "" {
		headers["Referer"] = c.referrer
	}

	var html, location string
	startTime := time.Now()
	err := chromedp.Run(taskCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(rawURL),
		chromedp.OuterHTML("html", &html),
		chromedp.Location(&location),
	)
	if err != nil {
		slog.Error("Failed to render URL", "url", rawURL, "error", err)
		return nil, fmt.Errorf("%w: %v", repository.ErrFetchFailed, err)
	}

	mu.Lock()
	code, ctype := int(status), mimeType
	mu.Unlock()

	if code >= 400 {
		return nil, fmt.Errorf("%w: %s returned status %d", repository.ErrFetchFailed, rawURL, code)
	}
	if !httpfetch.IsTextual(ctype) {
		return nil, fmt.Errorf("%w: %s is %s", repository.ErrNotTextual, rawURL, ctype)
	}

	base, err := url.Parse(location)
	if err != nil || location == "" {
		base, _ = url.Parse(rawURL)
	}
	slog.Debug("Rendered URL", "url", rawURL, "status", code, "duration_ms", time.Since(startTime).Milliseconds())

	return &entity.FetchedPage{
		URL:         base.String(),
		StatusCode:  code,
		ContentType: ctype,
		HTML:        html,
		Links:       httpfetch.ExtractLinks(base, html),
	}, nil
}

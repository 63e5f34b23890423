package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/repository"
)

const maxBodySize = 10 << 20

// Options configures a Fetcher.
type Options struct {
	UserAgent     string
	Referrer      string
	Timeout       time.Duration
	RespectRobots bool
}

// Fetcher downloads pages over plain HTTP.
type Fetcher struct {
	client *http.Client
	opts   Options
	robots *robotsCache
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	client := &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return &Fetcher{
		client: client,
		opts:   opts,
		robots: newRobotsCache(client, opts.UserAgent),
	}
}

// Fetch downloads rawURL. Responses with a status of 400 or more fail with
// ErrFetchFailed, non-text content types with ErrNotTextual.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*entity.FetchedPage, error) {
	if f.opts.RespectRobots && !f.robots.allowed(ctx, rawURL) {
		return nil, fmt.Errorf("%w: %s", repository.ErrDisallowed, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	if f.opts.Referrer != "" {
		req.Header.Set("Referer", f.opts.Referrer)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s returned status %d", repository.ErrFetchFailed, rawURL, resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !IsTextual(contentType) {
		return nil, fmt.Errorf("%w: %s is %s", repository.ErrNotTextual, rawURL, contentType)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodySize), contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrFetchFailed, err)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", repository.ErrFetchFailed, rawURL, err)
	}

	finalURL := resp.Request.URL
	html := string(raw)
	return &entity.FetchedPage{
		URL:         finalURL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		HTML:        html,
		Links:       ExtractLinks(finalURL, html),
	}, nil
}

// IsTextual reports whether a Content-Type header names a text/* type.
// A missing header is treated as text.
func IsTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/")
}

func hostKey(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

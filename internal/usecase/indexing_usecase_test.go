package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/sitesearch/internal/adapter/httpfetch"
	"github.com/user/sitesearch/internal/adapter/memory"
	"github.com/user/sitesearch/internal/adapter/sqlite"
	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/repository"
)

func blogPages() map[string]string {
	return map[string]string{
		"/":      htmlPage("Home", `<a href="/post">Read</a> <a href="/about#team">Team</a> <a href="https://elsewhere.test/x">Out</a> garden`),
		"/post":  htmlPage("Post", `<p>The zephyr garden</p><a href="/">Home</a>`),
		"/about": htmlPage("About", `<p>Our garden team</p><a href="/post">Post</a><a href="/missing">Gone</a>`),
	}
}

func TestIndexer_CrawlsWholeSite(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	srv := newSite(t, blogPages())
	indexer := e.newIndexer(entity.SiteConfig{URL: srv.URL + "/", Name: "Blog"})

	if err := indexer.StartIndexing(ctx); err != nil {
		t.Fatalf("StartIndexing: %v", err)
	}
	indexer.Wait()

	site := e.siteByURL(t, srv.URL)
	if site.Status != entity.SiteIndexed {
		t.Errorf("status = %s (%q), want INDEXED", site.Status, site.LastError)
	}
	if site.LastError != "" {
		t.Errorf("last error = %q, want none", site.LastError)
	}
	for _, path := range []string{"/", "/post", "/about"} {
		if ok, _ := e.pages.ExistsByPath(ctx, site.ID, path); !ok {
			t.Errorf("page %s was not stored", path)
		}
	}
	if ok, _ := e.pages.ExistsByPath(ctx, site.ID, "/missing"); ok {
		t.Error("pages answering 404 must be skipped")
	}
	if n, _ := e.pages.CountBySite(ctx, site.ID); n != 3 {
		t.Errorf("stored %d pages, want 3", n)
	}
	if indexer.IsIndexing() {
		t.Error("indexer should report idle once the crawl finished")
	}
}

func TestIndexer_RecrawlReplacesSiteData(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	srv := newSite(t, blogPages())
	indexer := e.newIndexer(entity.SiteConfig{URL: srv.URL, Name: "Blog"})

	for i := 0; i < 2; i++ {
		if err := indexer.StartIndexing(ctx); err != nil {
			t.Fatalf("StartIndexing #%d: %v", i+1, err)
		}
		indexer.Wait()
	}

	all, err := e.sites.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("sites = %d, want the previous row replaced", len(all))
	}
	if n, _ := e.pages.CountBySite(ctx, all[0].ID); n != 3 {
		t.Errorf("pages after re-crawl = %d, want 3", n)
	}
	garden, err := e.lemmas.FindByLemma(ctx, all[0].ID, "garden")
	if err != nil {
		t.Fatalf("FindByLemma: %v", err)
	}
	if garden.Frequency != 3 {
		t.Errorf("garden frequency = %d, want 3", garden.Frequency)
	}
}

func TestIndexer_SitesWithSamePathsStaySeparate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := newSite(t, map[string]string{
		"/":     htmlPage("A", `<a href="/post">p</a>`),
		"/post": htmlPage("A post", "<p>zephyr</p>"),
	})
	b := newSite(t, map[string]string{
		"/":     htmlPage("B", `<a href="/post">p</a>`),
		"/post": htmlPage("B post", "<p>meadow</p>"),
	})
	indexer := e.newIndexer(
		entity.SiteConfig{URL: a.URL, Name: "A"},
		entity.SiteConfig{URL: b.URL, Name: "B"},
	)

	if err := indexer.StartIndexing(ctx); err != nil {
		t.Fatalf("StartIndexing: %v", err)
	}
	indexer.Wait()

	siteA, siteB := e.siteByURL(t, a.URL), e.siteByURL(t, b.URL)
	for _, s := range []*entity.Site{siteA, siteB} {
		if n, _ := e.pages.CountBySite(ctx, s.ID); n != 2 {
			t.Errorf("site %s has %d pages, want 2", s.Name, n)
		}
	}
	if _, err := e.lemmas.FindByLemma(ctx, siteB.ID, "zephyr"); err == nil {
		t.Error("lemma of site A was attributed to site B")
	}
	if _, err := e.lemmas.FindByLemma(ctx, siteA.ID, "zephyr"); err != nil {
		t.Errorf("zephyr missing on site A: %v", err)
	}
}

// gatedSite blocks the root page until release is called.
func gatedSite(t *testing.T) (*httptest.Server, func()) {
	t.Helper()
	release := make(chan struct{})
	var once sync.Once
	pages := map[string]string{"/": htmlPage("Home", "")}
	var links string
	for i := 0; i < 20; i++ {
		path := fmt.Sprintf("/p%d", i)
		links += fmt.Sprintf(`<a href="%s">%d</a>`, path, i)
		pages[path] = htmlPage("Page", "<p>text</p>")
	}
	pages["/"] = htmlPage("Home", links)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			<-release
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(func() {
		unblock()
		srv.Close()
	})
	return srv, unblock
}

func TestIndexer_StartStopLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	srv, release := gatedSite(t)
	indexer := e.newIndexer(entity.SiteConfig{URL: srv.URL, Name: "Gated"})

	if err := indexer.StopIndexing(ctx); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("StopIndexing before start = %v, want ErrNotRunning", err)
	}
	if err := indexer.StartIndexing(ctx); err != nil {
		t.Fatalf("StartIndexing: %v", err)
	}
	if !indexer.IsIndexing() {
		t.Error("IsIndexing should be true during a crawl")
	}
	if err := indexer.StartIndexing(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second StartIndexing = %v, want ErrAlreadyRunning", err)
	}

	if err := indexer.StopIndexing(ctx); err != nil {
		t.Fatalf("StopIndexing: %v", err)
	}
	if err := indexer.StopIndexing(ctx); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second StopIndexing = %v, want ErrNotRunning", err)
	}
	release()
	indexer.Wait()

	site := e.siteByURL(t, srv.URL)
	if site.Status != entity.SiteFailed || site.LastError != stoppedByUser {
		t.Errorf("site = %s %q, want FAILED %q", site.Status, site.LastError, stoppedByUser)
	}
	if n, _ := e.pages.CountBySite(ctx, site.ID); n > 1 {
		t.Errorf("stored %d pages after stop, want at most the in-flight root", n)
	}

	if err := indexer.StartIndexing(ctx); err != nil {
		t.Fatalf("StartIndexing after stop: %v", err)
	}
	indexer.Wait()
	site = e.siteByURL(t, srv.URL)
	if site.Status != entity.SiteIndexed {
		t.Errorf("status after full crawl = %s, want INDEXED", site.Status)
	}
	if n, _ := e.pages.CountBySite(ctx, site.ID); n != 21 {
		t.Errorf("stored %d pages, want 21", n)
	}
}

func TestIndexer_IndexPage(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	var post atomic.Pointer[string]
	body := htmlPage("Post", "<p>The zephyr garden</p>")
	post.Store(&body)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/post" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, *post.Load())
	}))
	t.Cleanup(srv.Close)
	indexer := e.newIndexer(entity.SiteConfig{URL: srv.URL, Name: "Blog"})

	if err := indexer.IndexPage(ctx, "https://elsewhere.test/x"); !errors.Is(err, ErrOutOfScope) {
		t.Errorf("foreign url = %v, want ErrOutOfScope", err)
	}
	if err := indexer.IndexPage(ctx, srv.URL+"/"); !errors.Is(err, ErrNotAPage) {
		t.Errorf("site root = %v, want ErrNotAPage", err)
	}

	url := srv.URL + "/post"
	if err := indexer.IndexPage(ctx, url); err != nil {
		t.Fatalf("first IndexPage: %v", err)
	}
	if n, _ := e.queue.Size(ctx); n != 1 {
		t.Fatalf("queue size = %d, want the url queued", n)
	}
	if _, err := e.sites.FindByURL(ctx, srv.URL); err == nil {
		t.Fatal("queueing must not touch the index")
	}

	if err := indexer.IndexPage(ctx, url); err != nil {
		t.Fatalf("second IndexPage: %v", err)
	}
	site := e.siteByURL(t, srv.URL)
	if site.Status != entity.SiteIndexed {
		t.Errorf("status = %s, want INDEXED", site.Status)
	}
	if _, err := e.pages.FindByPath(ctx, site.ID, "/post"); err != nil {
		t.Fatalf("page not stored: %v", err)
	}
	if n, _ := e.queue.Size(ctx); n != 0 {
		t.Errorf("queue size = %d, want drained", n)
	}

	// Re-indexing replaces the stored copy instead of counting it twice.
	updated := htmlPage("Post", "<p>meadow</p>")
	post.Store(&updated)
	for i := 0; i < 2; i++ {
		if err := indexer.IndexPage(ctx, url); err != nil {
			t.Fatalf("IndexPage: %v", err)
		}
	}
	if n, _ := e.pages.CountBySite(ctx, site.ID); n != 1 {
		t.Errorf("pages = %d, want 1", n)
	}
	if _, err := e.lemmas.FindByLemma(ctx, site.ID, "zephyr"); err == nil {
		t.Error("lemmas of the replaced page should be gone")
	}
	meadow, err := e.lemmas.FindByLemma(ctx, site.ID, "meadow")
	if err != nil || meadow.Frequency != 1 {
		t.Errorf("meadow = %+v, %v; want frequency 1", meadow, err)
	}
}

func TestIndexer_WaitWithoutRunReturns(t *testing.T) {
	e := newEnv(t)
	indexer := e.newIndexer()

	done := make(chan struct{})
	go func() {
		indexer.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked with no crawl running")
	}
}

func TestIndexer_StopKeepsQueuedSitesIntact(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	blog := newSite(t, blogPages())

	first := e.newIndexer(entity.SiteConfig{URL: blog.URL, Name: "Blog"})
	if err := first.StartIndexing(ctx); err != nil {
		t.Fatalf("StartIndexing: %v", err)
	}
	first.Wait()
	before := e.siteByURL(t, blog.URL)
	if n, _ := e.pages.CountBySite(ctx, before.ID); before.Status != entity.SiteIndexed || n != 3 {
		t.Fatalf("blog before = %s with %d pages, want INDEXED with 3", before.Status, n)
	}

	// One site job at a time: the blog job waits behind the gated site.
	gated, release := gatedSite(t)
	cfg := IndexingConfig{
		Sites: []entity.SiteConfig{
			{URL: gated.URL, Name: "Gated"},
			{URL: blog.URL, Name: "Blog"},
		},
		Concurrency: 1,
		CrawlDelay:  time.Millisecond,
	}
	fetcher := httpfetch.New(httpfetch.Options{UserAgent: "sitesearch-test", Timeout: 5 * time.Second})
	indexer := NewIndexer(cfg, e.sites, e.pages, memory.NewVisitedRepo(), e.queue, fetcher, e.indexer)

	if err := indexer.StartIndexing(ctx); err != nil {
		t.Fatalf("StartIndexing: %v", err)
	}
	if err := indexer.StopIndexing(ctx); err != nil {
		t.Fatalf("StopIndexing: %v", err)
	}
	release()
	indexer.Wait()

	after := e.siteByURL(t, blog.URL)
	if after.ID != before.ID || after.Status != entity.SiteIndexed || after.LastError != "" {
		t.Errorf("blog after = id %d %s %q, want the untouched row %d INDEXED", after.ID, after.Status, after.LastError, before.ID)
	}
	if n, _ := e.pages.CountBySite(ctx, after.ID); n != 3 {
		t.Errorf("blog pages after stop = %d, want 3", n)
	}
	if _, err := e.lemmas.FindByLemma(ctx, after.ID, "zephyr"); err != nil {
		t.Errorf("blog lemmas lost: %v", err)
	}
}

// racingPages reports every save as already stored by another caller.
type racingPages struct {
	*sqlite.PageRepoImpl
}

func (racingPages) Save(context.Context, *entity.Page) error { return repository.ErrDuplicate }

func TestIndexer_IndexPageLosingSaveRaceMarksSiteIndexed(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	srv := newSite(t, blogPages())
	cfg := IndexingConfig{Sites: []entity.SiteConfig{{URL: srv.URL, Name: "Blog"}}, Concurrency: 1}
	fetcher := httpfetch.New(httpfetch.Options{UserAgent: "sitesearch-test", Timeout: 5 * time.Second})
	indexer := NewIndexer(cfg, e.sites, racingPages{e.pages}, memory.NewVisitedRepo(), e.queue, fetcher, e.indexer)

	url := srv.URL + "/post"
	for i := 0; i < 2; i++ {
		if err := indexer.IndexPage(ctx, url); err != nil {
			t.Fatalf("IndexPage #%d: %v", i+1, err)
		}
	}

	site := e.siteByURL(t, srv.URL)
	if site.Status != entity.SiteIndexed {
		t.Errorf("status = %s, want INDEXED", site.Status)
	}
}

package usecase

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/user/sitesearch/internal/adapter/httpfetch"
	"github.com/user/sitesearch/internal/adapter/memory"
	"github.com/user/sitesearch/internal/adapter/sqlite"
	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/lemmatizer"
)

type env struct {
	db      *sql.DB
	sites   *sqlite.SiteRepoImpl
	pages   *sqlite.PageRepoImpl
	lemmas  *sqlite.LemmaRepoImpl
	indexes *sqlite.IndexRepoImpl
	queue   *memory.QueueRepoImpl
	lemmer  *lemmatizer.Lemmatizer
	indexer LemmaIndexer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	e := &env{
		db:      db,
		sites:   sqlite.NewSiteRepo(db),
		pages:   sqlite.NewPageRepo(db),
		lemmas:  sqlite.NewLemmaRepo(db),
		indexes: sqlite.NewIndexRepo(db),
		queue:   memory.NewQueueRepo(),
		lemmer:  lemmatizer.Default(),
	}
	e.indexer = NewLemmaIndexer(e.lemmer, e.lemmas, e.indexes)
	return e
}

func (e *env) newIndexer(sites ...entity.SiteConfig) Indexer {
	cfg := IndexingConfig{Sites: sites, Concurrency: 2, CrawlDelay: time.Millisecond}
	fetcher := httpfetch.New(httpfetch.Options{UserAgent: "sitesearch-test", Timeout: 5 * time.Second})
	return NewIndexer(cfg, e.sites, e.pages, memory.NewVisitedRepo(), e.queue, fetcher, e.indexer)
}

func (e *env) newSearcher() Searcher {
	return NewSearcher(e.sites, e.pages, e.lemmas, e.indexes, e.lemmer)
}

func (e *env) site(t *testing.T, url string) *entity.Site {
	t.Helper()
	s := &entity.Site{URL: url, Name: url, Status: entity.SiteIndexed}
	if err := e.sites.Create(context.Background(), s); err != nil {
		t.Fatalf("Create site: %v", err)
	}
	return s
}

// page stores an HTML page and indexes its lemmas.
func (e *env) page(t *testing.T, siteID int64, path, title, body string) *entity.Page {
	t.Helper()
	ctx := context.Background()
	p := &entity.Page{SiteID: siteID, Path: path, Code: http.StatusOK, Content: htmlPage(title, body)}
	if err := e.pages.Save(ctx, p); err != nil {
		t.Fatalf("Save page: %v", err)
	}
	if _, err := e.indexer.ProcessPage(ctx, p); err != nil {
		t.Fatalf("ProcessPage: %v", err)
	}
	return p
}

func (e *env) siteByURL(t *testing.T, url string) *entity.Site {
	t.Helper()
	s, err := e.sites.FindByURL(context.Background(), url)
	if err != nil {
		t.Fatalf("FindByURL(%s): %v", url, err)
	}
	return s
}

func htmlPage(title, body string) string {
	return fmt.Sprintf("<html><head><title>%s</title></head><body>%s</body></html>", title, body)
}

// newSite serves path -> HTML body pairs.
func newSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/user/sitesearch/internal/entity"
)

func TestSearcher_Errors(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	s := e.newSearcher()

	if _, err := s.Search(ctx, SearchQuery{Query: "zephyr"}); !errors.Is(err, ErrNotReady) {
		t.Errorf("empty index = %v, want ErrNotReady", err)
	}
	e.site(t, "https://a.test")
	if _, err := s.Search(ctx, SearchQuery{Query: "   "}); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("blank query = %v, want ErrEmptyQuery", err)
	}
}

// fillerPages adds n pages without the test lemmas so rare lemmas stay
// under the frequency threshold.
func (e *env) fillerPages(t *testing.T, siteID int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		e.page(t, siteID, fmt.Sprintf("/filler%d", i), "Filler", "<p>meadow</p>")
	}
}

func TestSearcher_RanksByRelevance(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	site := e.site(t, "https://a.test")
	for i := 1; i <= 4; i++ {
		e.page(t, site.ID, fmt.Sprintf("/p%d", i), fmt.Sprintf("Page %d", i),
			"<p>"+strings.Repeat("zephyr ", i)+"</p>")
	}
	e.fillerPages(t, site.ID, 6)

	resp, err := e.newSearcher().Search(ctx, SearchQuery{Query: "Zephyr"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 4 || len(resp.Data) != 4 {
		t.Fatalf("count = %d, len = %d, want 4", resp.Count, len(resp.Data))
	}
	want := []struct {
		uri       string
		relevance float64
	}{{"/p4", 1}, {"/p3", 0.75}, {"/p2", 0.5}, {"/p1", 0.25}}
	for i, w := range want {
		got := resp.Data[i]
		if got.URI != w.uri || got.Relevance != w.relevance {
			t.Errorf("result %d = %s %.2f, want %s %.2f", i, got.URI, got.Relevance, w.uri, w.relevance)
		}
		if got.Site != "https://a.test" || got.SiteName != "https://a.test" {
			t.Errorf("result %d site = %q %q", i, got.Site, got.SiteName)
		}
		if !strings.Contains(got.Snippet, "<b>zephyr</b>") {
			t.Errorf("result %d snippet %q lacks highlight", i, got.Snippet)
		}
	}
	if resp.Data[0].Title != "Page 4" {
		t.Errorf("title = %q, want %q", resp.Data[0].Title, "Page 4")
	}
}

func TestSearcher_Pagination(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	site := e.site(t, "https://a.test")
	for i := 1; i <= 4; i++ {
		e.page(t, site.ID, fmt.Sprintf("/p%d", i), "Page", "<p>"+strings.Repeat("zephyr ", i)+"</p>")
	}
	e.fillerPages(t, site.ID, 6)
	s := e.newSearcher()

	resp, err := s.Search(ctx, SearchQuery{Query: "zephyr", Offset: 1, Limit: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 4 {
		t.Errorf("count = %d, want the total before paging", resp.Count)
	}
	if len(resp.Data) != 2 || resp.Data[0].URI != "/p3" || resp.Data[1].URI != "/p2" {
		t.Errorf("page = %+v, want /p3 and /p2", resp.Data)
	}

	resp, err = s.Search(ctx, SearchQuery{Query: "zephyr", Offset: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 4 || len(resp.Data) != 0 {
		t.Errorf("offset past end = %d/%d, want 4/0", resp.Count, len(resp.Data))
	}
}

func TestSearcher_DropsCommonLemmas(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	site := e.site(t, "https://a.test")
	e.page(t, site.ID, "/a", "A", "<p>meadow zephyr</p>")
	e.fillerPages(t, site.ID, 4)
	s := e.newSearcher()

	resp, err := s.Search(ctx, SearchQuery{Query: "meadow"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("lemma on every page returned %d results, want 0", resp.Count)
	}

	// The common lemma is ignored and the rare one still matches.
	resp, err = s.Search(ctx, SearchQuery{Query: "meadow zephyr"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 1 || resp.Data[0].URI != "/a" || resp.Data[0].Relevance != 1 {
		t.Errorf("results = %+v, want only /a with relevance 1", resp.Data)
	}
}

func TestSearcher_RequiresEveryLemma(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	site := e.site(t, "https://a.test")
	e.page(t, site.ID, "/both", "Both", "<p>zephyr orchard</p>")
	e.page(t, site.ID, "/one", "One", "<p>zephyr</p>")
	e.fillerPages(t, site.ID, 4)
	s := e.newSearcher()

	resp, err := s.Search(ctx, SearchQuery{Query: "zephyr orchard"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 1 || resp.Data[0].URI != "/both" {
		t.Errorf("results = %+v, want only /both", resp.Data)
	}

	resp, err = s.Search(ctx, SearchQuery{Query: "zephyr unicorn"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("unknown lemma should be ignored, got %d results", resp.Count)
	}
}

func TestSearcher_SiteFilter(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.site(t, "https://a.test")
	b := e.site(t, "https://b.test")
	e.page(t, a.ID, "/post", "A post", "<p>zephyr</p>")
	e.page(t, b.ID, "/post", "B post", "<p>zephyr</p>")
	e.fillerPages(t, a.ID, 2)
	e.fillerPages(t, b.ID, 2)
	s := e.newSearcher()

	resp, err := s.Search(ctx, SearchQuery{Query: "zephyr"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("unfiltered count = %d, want 2", resp.Count)
	}

	resp, err = s.Search(ctx, SearchQuery{Query: "zephyr", Site: "https://b.test/"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 1 || resp.Data[0].Site != "https://b.test" || resp.Data[0].Title != "B post" {
		t.Errorf("filtered results = %+v, want only b.test", resp.Data)
	}

	resp, err = s.Search(ctx, SearchQuery{Query: "zephyr", Site: "https://c.test"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 0 || resp.Data == nil {
		t.Errorf("unknown site = %+v, want an empty list", resp)
	}
}

func TestSearcher_SkipsPagesWithoutTitle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	site := e.site(t, "https://a.test")
	e.page(t, site.ID, "/titled", "Titled", "<p>zephyr</p>")
	p := &entity.Page{SiteID: site.ID, Path: "/bare", Code: 200, Content: "<p>zephyr zephyr</p>"}
	if err := e.pages.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := e.indexer.ProcessPage(ctx, p); err != nil {
		t.Fatalf("ProcessPage: %v", err)
	}
	e.fillerPages(t, site.ID, 4)

	resp, err := e.newSearcher().Search(ctx, SearchQuery{Query: "zephyr"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 1 || resp.Data[0].URI != "/titled" {
		t.Fatalf("results = %+v, want only /titled", resp.Data)
	}
	if resp.Data[0].Relevance != 0.5 {
		t.Errorf("relevance = %v, want 0.5 against the untitled page's rank", resp.Data[0].Relevance)
	}
}

func TestSearcher_UnderscoreTokenEndToEnd(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	site := e.site(t, "https://a.test")
	e.page(t, site.ID, "/", "Home", "<p>welcome</p>")
	e.page(t, site.ID, "/post", "Post", "<p>rare_token example text</p>")

	resp, err := e.newSearcher().Search(ctx, SearchQuery{Query: "rare_token"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 1 || len(resp.Data) != 1 {
		t.Fatalf("results = %+v, want exactly one", resp.Data)
	}
	got := resp.Data[0]
	if got.URI != "/post" || got.Relevance != 1 {
		t.Errorf("result = %s %.2f, want /post 1.00", got.URI, got.Relevance)
	}
	if !strings.Contains(got.Snippet, "<b>rare</b>") || !strings.Contains(got.Snippet, "<b>token</b>") {
		t.Errorf("snippet %q should highlight both halves of the token", got.Snippet)
	}
}

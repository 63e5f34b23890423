package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/lemmatizer"
	"github.com/user/sitesearch/internal/repository"
	"github.com/user/sitesearch/internal/snippet"
	"github.com/user/sitesearch/pkg/metrics"
	"github.com/user/sitesearch/pkg/utils"
)

var (
	ErrEmptyQuery = errors.New("search query is empty")
	ErrNotReady   = errors.New("no sites have been indexed yet")
)

const (
	DefaultSearchLimit = 20
	// Lemmas found on this share of a site's pages or more are too common
	// to discriminate and are dropped from the query.
	frequencyThreshold = 0.8
	// zeroRankRelevance is assigned when every candidate has a zero rank sum.
	zeroRankRelevance = 0.01
)

// SearchQuery is a single search request. An empty Site searches every site.
type SearchQuery struct {
	Query  string
	Site   string
	Offset int
	Limit  int
}

// Searcher answers ranked full-text queries.
type Searcher interface {
	Search(ctx context.Context, q SearchQuery) (*entity.SearchResponse, error)
}

type searchUseCase struct {
	siteRepo   repository.SiteRepository
	pageRepo   repository.PageRepository
	lemmaRepo  repository.LemmaRepository
	indexRepo  repository.IndexRepository
	lemmatizer *lemmatizer.Lemmatizer
	snippets   *snippet.Generator
}

// NewSearcher creates a new instance of the search use case.
func NewSearcher(
	siteRepo repository.SiteRepository,
	pageRepo repository.PageRepository,
	lemmaRepo repository.LemmaRepository,
	indexRepo repository.IndexRepository,
	l *lemmatizer.Lemmatizer,
) Searcher {
	return &searchUseCase{
		siteRepo:   siteRepo,
		pageRepo:   pageRepo,
		lemmaRepo:  lemmaRepo,
		indexRepo:  indexRepo,
		lemmatizer: l,
		snippets:   snippet.NewGenerator(l),
	}
}

func (uc *searchUseCase) Search(ctx context.Context, q SearchQuery) (resp *entity.SearchResponse, err error) {
	startTime := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.SearchRequestsTotal.WithLabelValues(outcome).Inc()
		metrics.SearchDuration.Observe(time.Since(startTime).Seconds())
	}()

	query := strings.TrimSpace(q.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	sites, err := uc.siteRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return nil, ErrNotReady
	}
	if q.Site != "" {
		sites = filterSites(sites, q.Site)
	}

	lemmas := sortedKeys(uc.lemmatizer.Lemmas(query))
	results := []entity.SearchResult{}
	if len(lemmas) > 0 {
		for _, site := range sites {
			siteResults, err := uc.searchSite(ctx, site, query, lemmas)
			if err != nil {
				return nil, err
			}
			results = append(results, siteResults...)
		}
	}

	total := len(results)
	page := paginate(results, q.Offset, q.Limit)
	slog.Debug("Search served", "query", query, "site", q.Site, "total", total, "returned", len(page))
	return &entity.SearchResponse{Count: total, Data: page}, nil
}

type weightedLemma struct {
	lemma string
	ratio float64
}

// searchSite ranks the pages of one site that contain every usable query lemma.
func (uc *searchUseCase) searchSite(ctx context.Context, site *entity.Site, query string, lemmas []string) ([]entity.SearchResult, error) {
	pageCount, err := uc.pageRepo.CountBySite(ctx, site.ID)
	if err != nil || pageCount == 0 {
		return nil, err
	}

	var usable []weightedLemma
	for _, lemma := range lemmas {
		l, err := uc.lemmaRepo.FindByLemma(ctx, site.ID, lemma)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ratio := float64(l.Frequency) / float64(pageCount)
		if ratio >= frequencyThreshold {
			continue
		}
		usable = append(usable, weightedLemma{lemma: lemma, ratio: ratio})
	}
	if len(usable) == 0 {
		return nil, nil
	}
	sort.SliceStable(usable, func(i, j int) bool { return usable[i].ratio < usable[j].ratio })

	candidates, err := uc.intersect(ctx, site.ID, usable)
	if err != nil || len(candidates) == 0 {
		return nil, err
	}

	usableLemmas := make([]string, len(usable))
	for i, u := range usable {
		usableLemmas[i] = u.lemma
	}
	relevance, err := uc.relevance(ctx, candidates, usableLemmas)
	if err != nil {
		return nil, err
	}

	pages, err := uc.pageRepo.FindByIDs(ctx, candidates)
	if err != nil {
		return nil, err
	}
	order := make(map[int64]int, len(candidates))
	for i, id := range candidates {
		order[id] = i
	}
	sort.Slice(pages, func(i, j int) bool { return order[pages[i].ID] < order[pages[j].ID] })

	results := make([]entity.SearchResult, 0, len(pages))
	for _, p := range pages {
		title := snippet.Title(p.Content)
		text := uc.snippets.Snippet(p.Content, query, usableLemmas)
		if title == "" || text == "" {
			continue
		}
		results = append(results, entity.SearchResult{
			Site:      site.URL,
			SiteName:  site.Name,
			URI:       p.Path,
			Title:     title,
			Snippet:   text,
			Relevance: relevance[p.ID],
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Relevance > results[j].Relevance })
	return results, nil
}

// intersect seeds the candidates with the pages of the rarest lemma and
// keeps only pages that also contain each following lemma, stopping as
// soon as nothing is left.
func (uc *searchUseCase) intersect(ctx context.Context, siteID int64, usable []weightedLemma) ([]int64, error) {
	seed, err := uc.indexRepo.FindPagesByLemmas(ctx, siteID, []string{usable[0].lemma})
	if err != nil {
		return nil, err
	}
	candidates := make([]int64, len(seed))
	for i, pr := range seed {
		candidates[i] = pr.PageID
	}

	for _, u := range usable[1:] {
		if len(candidates) == 0 {
			break
		}
		hits, err := uc.indexRepo.FindPagesByLemmas(ctx, siteID, []string{u.lemma})
		if err != nil {
			return nil, err
		}
		present := make(map[int64]struct{}, len(hits))
		for _, pr := range hits {
			present[pr.PageID] = struct{}{}
		}
		kept := candidates[:0]
		for _, id := range candidates {
			if _, ok := present[id]; ok {
				kept = append(kept, id)
			}
		}
		candidates = kept
	}
	return candidates, nil
}

// relevance divides each page's summed rank over the query lemmas by the
// largest such sum, so the best page scores exactly 1.
func (uc *searchUseCase) relevance(ctx context.Context, pageIDs []int64, lemmas []string) (map[int64]float64, error) {
	sums, err := uc.indexRepo.SumRanks(ctx, pageIDs, lemmas)
	if err != nil {
		return nil, err
	}
	maxSum := 0.0
	for _, id := range pageIDs {
		maxSum = max(maxSum, sums[id])
	}

	out := make(map[int64]float64, len(pageIDs))
	for _, id := range pageIDs {
		if maxSum <= 0 {
			out[id] = zeroRankRelevance
			continue
		}
		out[id] = sums[id] / maxSum
	}
	return out, nil
}

func filterSites(sites []*entity.Site, siteURL string) []*entity.Site {
	want := utils.NormalizeSiteURL(siteURL)
	var out []*entity.Site
	for _, s := range sites {
		if utils.NormalizeSiteURL(s.URL) == want {
			out = append(out, s)
		}
	}
	return out
}

func paginate(results []entity.SearchResult, offset, limit int) []entity.SearchResult {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []entity.SearchResult{}
	}
	end := min(len(results), offset+limit)
	return results[offset:end]
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

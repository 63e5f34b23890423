package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/lemmatizer"
	"github.com/user/sitesearch/internal/repository"
)

// LemmaIndexer writes the lemma and index rows of a stored page.
type LemmaIndexer interface {
	// ProcessPage lemmatizes the page text and records one index row per
	// distinct lemma. It returns the number of lemmas written.
	ProcessPage(ctx context.Context, page *entity.Page) (int, error)
}

type lemmaIndexer struct {
	lemmatizer *lemmatizer.Lemmatizer
	lemmaRepo  repository.LemmaRepository
	indexRepo  repository.IndexRepository
}

// NewLemmaIndexer creates a new LemmaIndexer.
func NewLemmaIndexer(
	l *lemmatizer.Lemmatizer,
	lemmaRepo repository.LemmaRepository,
	indexRepo repository.IndexRepository,
) LemmaIndexer {
	return &lemmaIndexer{lemmatizer: l, lemmaRepo: lemmaRepo, indexRepo: indexRepo}
}

func (li *lemmaIndexer) ProcessPage(ctx context.Context, page *entity.Page) (int, error) {
	counts := li.lemmatizer.Lemmas(lemmatizer.PageText(page.Content))

	// Sorted for a deterministic write order.
	lemmas := make([]string, 0, len(counts))
	for lemma := range counts {
		lemmas = append(lemmas, lemma)
	}
	sort.Strings(lemmas)

	for _, lemma := range lemmas {
		l, err := li.lemmaRepo.IncrementOrCreate(ctx, page.SiteID, lemma)
		if err != nil {
			return 0, err
		}
		entry := &entity.IndexEntry{PageID: page.ID, LemmaID: l.ID, Rank: float64(counts[lemma])}
		if err := li.indexRepo.Save(ctx, entry); err != nil {
			return 0, fmt.Errorf("failed to index lemma %q of page %s: %w", lemma, page.Path, err)
		}
	}
	slog.Debug("Page lemmas recorded", "path", page.Path, "site_id", page.SiteID, "lemmas", len(lemmas))
	return len(lemmas), nil
}

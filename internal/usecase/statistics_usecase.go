package usecase

import (
	"context"
	"fmt"

	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/internal/repository"
)

// StatisticsReporter summarizes the index for the dashboard.
type StatisticsReporter interface {
	Statistics(ctx context.Context) (*entity.Statistics, error)
}

type statisticsUseCase struct {
	siteRepo  repository.SiteRepository
	pageRepo  repository.PageRepository
	lemmaRepo repository.LemmaRepository
	indexer   Indexer
}

// NewStatisticsReporter creates a new instance of the statistics use case.
func NewStatisticsReporter(
	siteRepo repository.SiteRepository,
	pageRepo repository.PageRepository,
	lemmaRepo repository.LemmaRepository,
	indexer Indexer,
) StatisticsReporter {
	return &statisticsUseCase{siteRepo: siteRepo, pageRepo: pageRepo, lemmaRepo: lemmaRepo, indexer: indexer}
}

func (uc *statisticsUseCase) Statistics(ctx context.Context) (*entity.Statistics, error) {
	sites, err := uc.siteRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}

	stats := &entity.Statistics{
		Total: entity.TotalStatistics{
			Sites:    len(sites),
			Indexing: uc.indexer.IsIndexing(),
		},
		Detailed: make([]entity.SiteStatistics, 0, len(sites)),
	}
	for _, site := range sites {
		pages, err := uc.pageRepo.CountBySite(ctx, site.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count pages of %s: %w", site.URL, err)
		}
		lemmas, err := uc.lemmaRepo.CountBySite(ctx, site.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count lemmas of %s: %w", site.URL, err)
		}
		stats.Detailed = append(stats.Detailed, entity.SiteStatistics{
			URL:        site.URL,
			Name:       site.Name,
			Status:     site.Status,
			StatusTime: site.StatusTime,
			Error:      site.LastError,
			Pages:      pages,
			Lemmas:     lemmas,
		})
	}

	if stats.Total.Pages, err = uc.pageRepo.CountAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	if stats.Total.Lemmas, err = uc.lemmaRepo.CountAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to count lemmas: %w", err)
	}
	return stats, nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/sitesearch/internal/adapter/chromedp_crawler"
	"github.com/user/sitesearch/internal/adapter/httpfetch"
	"github.com/user/sitesearch/internal/adapter/memory"
	"github.com/user/sitesearch/internal/adapter/postgres"
	redis_adapter "github.com/user/sitesearch/internal/adapter/redis"
	"github.com/user/sitesearch/internal/adapter/sqlite"
	"github.com/user/sitesearch/internal/delivery/http/handler"
	"github.com/user/sitesearch/internal/delivery/http/router"
	"github.com/user/sitesearch/internal/lemmatizer"
	"github.com/user/sitesearch/internal/repository"
	"github.com/user/sitesearch/internal/usecase"
	"github.com/user/sitesearch/pkg/config"
	"github.com/user/sitesearch/pkg/logger"
	"github.com/user/sitesearch/pkg/metrics"
)

// storage groups the persistent repositories of one backend.
type storage struct {
	sites   repository.SiteRepository
	pages   repository.PageRepository
	lemmas  repository.LemmaRepository
	indexes repository.IndexRepository
	close   func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		return &storage{
			sites:   postgres.NewSiteRepo(pool),
			pages:   postgres.NewPageRepo(pool),
			lemmas:  postgres.NewLemmaRepo(pool),
			indexes: postgres.NewIndexRepo(pool),
			close:   pool.Close,
		}, nil
	default:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &storage{
			sites:   sqlite.NewSiteRepo(db),
			pages:   sqlite.NewPageRepo(db),
			lemmas:  sqlite.NewLemmaRepo(db),
			indexes: sqlite.NewIndexRepo(db),
			close:   func() { db.Close() },
		}, nil
	}
}

func newFetcher(cfg *config.Config) repository.PageFetcher {
	if cfg.FetchMode == config.FetchModeBrowser {
		return chromedp_crawler.NewChromedpCrawler(cfg.Concurrency(), cfg.PageLoadTimeout(), cfg.UserAgent, cfg.Referrer)
	}
	return httpfetch.New(httpfetch.Options{
		UserAgent:     cfg.UserAgent,
		Referrer:      cfg.Referrer,
		Timeout:       cfg.PageLoadTimeout(),
		RespectRobots: cfg.RespectRobots,
	})
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// --- Logger ---
	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	store, err := openStorage(ctx, cfg)
	if err != nil {
		slog.Error("Unable to open storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer store.close()
	slog.Info("Storage ready", "driver", cfg.StorageDriver)

	// Redis holds the crawl bookkeeping when configured.
	var (
		visitedRepo repository.VisitedRepository = memory.NewVisitedRepo()
		queueRepo   repository.QueueRepository   = memory.NewQueueRepo()
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			slog.Error("Unable to connect to Redis", "error", err)
			os.Exit(1)
		}
		visitedRepo = redis_adapter.NewVisitedRepo(rdb)
		queueRepo = redis_adapter.NewQueueRepo(rdb)
		slog.Info("Redis connection established")
	}

	// --- Use Cases ---
	lemmer := lemmatizer.Default()
	indexer := usecase.NewIndexer(
		usecase.IndexingConfig{
			Sites:       cfg.Sites,
			Concurrency: cfg.Concurrency(),
			CrawlDelay:  cfg.CrawlDelay(),
		},
		store.sites, store.pages, visitedRepo, queueRepo,
		newFetcher(cfg),
		usecase.NewLemmaIndexer(lemmer, store.lemmas, store.indexes),
	)
	searcher := usecase.NewSearcher(store.sites, store.pages, store.lemmas, store.indexes, lemmer)
	stats := usecase.NewStatisticsReporter(store.sites, store.pages, store.lemmas, indexer)
	slog.Info("Sites configured", "count", len(cfg.Sites), "concurrency", cfg.Concurrency(), "fetch_mode", cfg.FetchMode)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(indexer, searcher, stats)
	httpRouter := router.New(apiHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	if indexer.IsIndexing() {
		_ = indexer.StopIndexing(shutdownCtx)
	}
	indexer.Wait()
	slog.Info("Server stopped")
}

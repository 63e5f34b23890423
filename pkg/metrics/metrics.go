package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	CrawlPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawl_pages_total",
			Help: "Pages handled by site crawls, by outcome.",
		},
		[]string{"outcome"}, // indexed, skipped, duplicate, error
	)

	CrawlDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crawl_duration_seconds",
			Help:    "Duration of whole-site crawls.",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 900, 3600},
		},
		[]string{"site"},
	)

	ReindexQueueSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reindex_queue_size",
			Help: "URLs waiting for a second single-page index request.",
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Search requests, by outcome.",
		},
		[]string{"outcome"},
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_duration_seconds",
			Help:    "Duration of search requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default Prometheus registry.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			CrawlPagesTotal,
			CrawlDuration,
			ReindexQueueSize,
			SearchRequestsTotal,
			SearchDuration,
		)
	})
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"path", "method", "status"})

	CaptionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "caption_generation_seconds",
		Help:    "Time taken to generate an image caption",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"model", "status"})

	EmbeddingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "embedding_generation_seconds",
		Help:    "Time taken to generate a text embedding",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"model", "status"})

	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_uploads_total",
		Help: "Total number of image upload attempts",
	}, []string{"status"})

	Searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_searches_total",
		Help: "Total number of similarity searches",
	}, []string{"status"})

	EmbeddingCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "embedding_cache_hits_total",
		Help: "Query embeddings served from the in-memory cache",
	})
)

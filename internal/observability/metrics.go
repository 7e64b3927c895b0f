// Package observability exposes Prometheus metrics for the scrape
// pipeline and the read API.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "ocean"

// Metrics holds the collectors shared across the pipeline and API.
type Metrics struct {
	// Pipeline counters.
	PagesFetched    prometheus.Counter
	FetchErrors     prometheus.Counter
	ProfileFailures prometheus.Counter
	PageCache       *prometheus.CounterVec
	FetchDuration   prometheus.Histogram

	// Analysis outcomes.
	SpeciesScraped   prometheus.Gauge
	DepthOutcomes    *prometheus.CounterVec
	ThreatCategories *prometheus.CounterVec

	// API serving.
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	ImageCache      *prometheus.CounterVec
	ImagesProcessed prometheus.Counter
}

// NewMetrics builds the collectors and registers them with the default
// registry. Call once per process.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting builds unregistered collectors so tests can run
// in parallel without registry collisions.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pages_fetched_total",
			Help:      "Pages downloaded over the network, excluding cache hits.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fetch_errors_total",
			Help:      "Page fetches that failed after retries.",
		}),
		ProfileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "profile_failures_total",
			Help:      "Species profiles that could not be fetched or parsed.",
		}),
		PageCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "page_cache_total",
			Help:      "Page cache lookups by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of a single page fetch attempt.",
			Buckets:   prometheus.DefBuckets,
		}),
		SpeciesScraped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "species_scraped",
			Help:      "Species records produced by the most recent run.",
		}),
		DepthOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "depth_outcomes_total",
			Help:      "Depth extraction results by provenance.",
		}, []string{"source"}),
		ThreatCategories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "threat_categories_total",
			Help:      "Canonical threat categories assigned to species.",
		}, []string{"category"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		ImageCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "image_cache_total",
			Help:      "Processed image cache lookups by result.",
		}, []string{"result"}),
		ImagesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "images_processed_total",
			Help:      "Images run through background removal.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PagesFetched,
		m.FetchErrors,
		m.ProfileFailures,
		m.PageCache,
		m.FetchDuration,
		m.SpeciesScraped,
		m.DepthOutcomes,
		m.ThreatCategories,
		m.HTTPRequests,
		m.HTTPDuration,
		m.ImageCache,
		m.ImagesProcessed,
	}
}

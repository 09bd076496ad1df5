package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_slideshow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "album_slideshow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "album_slideshow_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Render pipeline metrics
var (
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_slideshow_renders_total",
			Help: "Total number of frame render requests by outcome",
		},
		[]string{"outcome"},
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "album_slideshow_render_duration_seconds",
			Help:    "Frame render duration in seconds (cache misses only)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	FrameCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "album_slideshow_frame_cache_hits_total",
			Help: "Render requests served from the rendered-frame cache",
		},
	)

	OrientationFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_slideshow_orientation_fallbacks_total",
			Help: "Orientation-mismatch scans that exhausted their budget",
		},
		[]string{"strategy"},
	)
)

// Byte fetch metrics
var (
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_slideshow_fetches_total",
			Help: "Total number of media byte fetches by source and status",
		},
		[]string{"source", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "album_slideshow_fetch_duration_seconds",
			Help:    "Media byte fetch duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	ByteCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "album_slideshow_byte_cache_hits_total",
			Help: "Media fetches served from the byte cache",
		},
	)

	ByteCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "album_slideshow_byte_cache_misses_total",
			Help: "Media fetches that required upstream I/O",
		},
	)

	ByteCacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "album_slideshow_byte_cache_evictions_total",
			Help: "Byte cache entries evicted due to the capacity bound",
		},
	)

	ByteCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "album_slideshow_byte_cache_entries",
			Help: "Current number of byte cache entries",
		},
	)
)

// Album metrics
var (
	AlbumRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "album_slideshow_album_refreshes_total",
			Help: "Total number of album refresh attempts by provider and status",
		},
		[]string{"provider", "status"},
	)

	AlbumRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "album_slideshow_album_refresh_duration_seconds",
			Help:    "Album refresh duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	AlbumItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "album_slideshow_album_items",
			Help: "Number of photos in the current album view",
		},
	)
)

// InitializeMetrics pre-populates expected label combinations so every
// metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, outcome := range []string{"success", "no_media", "error"} {
		RendersTotal.WithLabelValues(outcome)
	}

	for _, strategy := range []string{"avoid", "pair"} {
		OrientationFallbacksTotal.WithLabelValues(strategy)
	}

	for _, source := range []string{"remote", "local"} {
		FetchDuration.WithLabelValues(source)
		for _, status := range []string{"success", "error"} {
			FetchesTotal.WithLabelValues(source, status)
		}
	}

	for _, provider := range []string{"local_folder", "shared_album"} {
		AlbumRefreshDuration.WithLabelValues(provider)
		for _, status := range []string{"success", "error"} {
			AlbumRefreshesTotal.WithLabelValues(provider, status)
		}
	}
}

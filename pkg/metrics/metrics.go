package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "video_ingest_uploads_total",
		Help: "Upload submissions by outcome",
	}, []string{"outcome"})

	JobUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "video_ingest_job_updates_total",
		Help: "Transcode job status updates by outcome",
	}, []string{"outcome"})

	FeedCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "video_ingest_feed_cache_requests_total",
		Help: "Feed cache lookups by result",
	}, []string{"result"})

	CacheInvalidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "video_ingest_cache_invalidations_total",
		Help: "Cache tag flushes by result",
	}, []string{"tag", "result"})

	BlobCleanups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "video_ingest_blob_cleanups_total",
		Help: "Background blob deletions by result",
	}, []string{"result"})

	SubmitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "video_ingest_job_submit_duration_seconds",
		Help:    "Latency of transcode job submissions",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(UploadsTotal)
	prometheus.MustRegister(JobUpdatesTotal)
	prometheus.MustRegister(FeedCacheRequests)
	prometheus.MustRegister(CacheInvalidations)
	prometheus.MustRegister(BlobCleanups)
	prometheus.MustRegister(SubmitDuration)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics exposes Prometheus counters for the submission pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts finished submissions by terminal outcome:
	// delivered, rejected, failed.
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "v2vn_submissions_total",
		Help: "Finished submissions by terminal outcome.",
	}, []string{"outcome"})

	ActiveSubmissions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "v2vn_active_submissions",
		Help: "Submissions currently in flight.",
	})

	TranscodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "v2vn_transcode_duration_seconds",
		Help:    "Wall time of the external transcoder invocation.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	DownloadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "v2vn_download_bytes_total",
		Help: "Total bytes downloaded from Telegram.",
	})
)

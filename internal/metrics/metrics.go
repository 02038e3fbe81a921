// SPDX-License-Identifier: MIT

// Package metrics defines the beatfunc Prometheus metrics and typed helpers
// for recording them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for processed songs and downloads.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Cache event labels.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheStale = "stale"
)

var (
	songsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "beatfunc",
		Name:      "songs_processed_total",
		Help:      "Songs processed, by outcome",
	}, []string{"outcome"})

	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "beatfunc",
		Name:      "processing_duration_seconds",
		Help:      "End-to-end song processing latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	songDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "beatfunc",
		Name:      "song_duration_seconds",
		Help:      "Duration of accepted songs in seconds",
		Buckets:   prometheus.LinearBuckets(30, 30, 13),
	})

	analysisCacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "beatfunc",
		Name:      "analysis_cache_events_total",
		Help:      "Beat analysis cache lookups, by event",
	}, []string{"event"})

	effectsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "beatfunc",
		Name:      "effects_applied_total",
		Help:      "Effects applied to processed songs, by type",
	}, []string{"type"})

	downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "beatfunc",
		Name:      "downloads_total",
		Help:      "YouTube audio downloads, by outcome",
	}, []string{"outcome"})

	jobsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "beatfunc",
		Name:      "jobs_in_flight",
		Help:      "Processing jobs currently running",
	})
)

// RecordProcessed counts a finished song with its outcome and latency.
func RecordProcessed(outcome string, elapsed time.Duration) {
	songsProcessed.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		processingDuration.Observe(elapsed.Seconds())
	}
}

// RecordSongDuration records the length of an accepted song.
func RecordSongDuration(d time.Duration) {
	songDuration.Observe(d.Seconds())
}

// RecordCacheEvent counts an analysis cache hit, miss or stale entry.
func RecordCacheEvent(event string) {
	analysisCacheEvents.WithLabelValues(event).Inc()
}

// RecordEffect counts one applied effect by type.
func RecordEffect(effectType string) {
	effectsApplied.WithLabelValues(effectType).Inc()
}

// RecordDownload counts a download attempt by outcome.
func RecordDownload(outcome string) {
	downloads.WithLabelValues(outcome).Inc()
}

// JobStarted and JobFinished track the in-flight job gauge.
func JobStarted()  { jobsInFlight.Inc() }
func JobFinished() { jobsInFlight.Dec() }

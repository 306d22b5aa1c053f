// Package metrics exposes Prometheus collectors for the board crawler.
package metrics

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch stages used as the "stage" label.
const (
	StageBootstrap = "bootstrap"
	StageList      = "list"
	StageThread    = "thread"
)

var (
	registry *prometheus.Registry

	boardFetchesTotal         *prometheus.CounterVec
	boardFetchBytesTotal      *prometheus.CounterVec
	boardFetchDurationSeconds *prometheus.HistogramVec
	boardThreadsTotal         *prometheus.CounterVec
	boardPostsTotal           *prometheus.CounterVec
	boardSnapshotsTotal       *prometheus.CounterVec
	boardLastRunTimestamp     prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		factory := promauto.With(registry)

		boardFetchesTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "board_fetches_total",
				Help: "Total number of board fetches, labeled by site, stage and status.",
			},
			[]string{"site", "stage", "status"},
		)

		boardFetchBytesTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "board_fetch_bytes_total",
				Help: "Total number of bytes fetched, labeled by stage.",
			},
			[]string{"stage"},
		)

		boardFetchDurationSeconds = factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "board_fetch_duration_seconds",
				Help:    "Histogram of fetch latencies, labeled by stage.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"stage"},
		)

		boardThreadsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "board_threads_total",
				Help: "Threads seen by the crawler, labeled by outcome (discovered, matched, crawled).",
			},
			[]string{"outcome"},
		)

		boardPostsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "board_posts_total",
				Help: "Posts extracted, labeled by the filter outcome.",
			},
			[]string{"outcome"},
		)

		boardSnapshotsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "board_snapshots_total",
				Help: "Snapshot uploads, labeled by sink and status.",
			},
			[]string{"sink", "status"},
		)

		boardLastRunTimestamp = factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "board_last_run_timestamp_seconds",
				Help: "Unix time of the last completed crawl run.",
			},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveFetch records a single fetch attempt.
func ObserveFetch(rawURL, stage string, bytesFetched int, duration time.Duration, err error) {
	Init()
	boardFetchesTotal.WithLabelValues(SanitizeSite(rawURL), stage, status(err)).Inc()
	boardFetchDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
	if bytesFetched > 0 {
		boardFetchBytesTotal.WithLabelValues(stage).Add(float64(bytesFetched))
	}
}

// ObserveThreads adds n threads under the given outcome.
func ObserveThreads(outcome string, n int) {
	Init()
	if n > 0 {
		boardThreadsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

// ObservePosts adds n posts under the given outcome ("kept" or a reject reason).
func ObservePosts(outcome string, n int) {
	Init()
	if n > 0 {
		boardPostsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

// ObserveSnapshot records one snapshot upload.
func ObserveSnapshot(sink string, err error) {
	Init()
	boardSnapshotsTotal.WithLabelValues(sink, status(err)).Inc()
}

// MarkRunCompleted stamps the last run gauge.
func MarkRunCompleted(at time.Time) {
	Init()
	boardLastRunTimestamp.Set(float64(at.Unix()))
}

// Gatherer exposes the crawler registry.
func Gatherer() prometheus.Gatherer {
	Init()
	return registry
}

// WriteTextfile dumps every collector in the text exposition format, suitable
// for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	Init()
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

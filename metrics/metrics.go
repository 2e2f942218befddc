// Package metrics exposes download outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/adamwoolhether/fetchguard/fetch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fetchguard"

var _ fetch.Recorder = (*Metrics)(nil)

// Metrics implements [fetch.Recorder] on a private registry so several
// instances can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	downloads *prometheus.CounterVec
	bytes     prometheus.Counter
	duration  *prometheus.HistogramVec
	fileSize  prometheus.Histogram
	retries   *prometheus.CounterVec
}

// New registers the download metrics along with the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Downloads by final status and failure kind.",
		}, []string{"status", "kind"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloaded_bytes_total",
			Help:      "Bytes written by successful downloads.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Wall time of a download including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		// 1KB to 1GB.
		fileSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_size_bytes",
			Help:      "Size of successfully downloaded files.",
			Buckets:   prometheus.ExponentialBuckets(1024, 10, 7),
		}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retries by the failure kind that triggered them.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.downloads,
		m.bytes,
		m.duration,
		m.fileSize,
		m.retries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Observe records the final outcome of one download.
func (m *Metrics) Observe(o fetch.Outcome, elapsed time.Duration) {
	m.downloads.WithLabelValues(string(o.Status), string(o.Kind)).Inc()
	m.duration.WithLabelValues(string(o.Status)).Observe(elapsed.Seconds())

	if o.Status == fetch.StatusSuccess {
		m.bytes.Add(float64(o.SizeBytes))
		m.fileSize.Observe(float64(o.SizeBytes))
	}
}

// Retry counts one retry caused by kind.
func (m *Metrics) Retry(kind fetch.ErrorKind) {
	m.retries.WithLabelValues(string(kind)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Package metrics exposes Prometheus instrumentation for the API server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	filesUploadedTotal   prometheus.Counter
	filesDownloadedTotal prometheus.Counter
	filesDeletedTotal    prometheus.Counter
	fileBytesStored      prometheus.Counter

	linkDownloadsTotal *prometheus.CounterVec

	loginsTotal        *prometheus.CounterVec
	accountsLockedOut  prometheus.Counter
	mfaEnrollmentTotal prometheus.Counter
}

// New creates and registers all metrics with the default registry
func New(serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: labels,
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "HTTP request latency in seconds",
				ConstLabels: labels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name:        "http_requests_in_flight",
				Help:        "Number of HTTP requests currently being processed",
				ConstLabels: labels,
			},
		),

		filesUploadedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "files_uploaded_total",
			Help:        "Total number of files uploaded",
			ConstLabels: labels,
		}),
		filesDownloadedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "files_downloaded_total",
			Help:        "Total number of file downloads served",
			ConstLabels: labels,
		}),
		filesDeletedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "files_deleted_total",
			Help:        "Total number of files deleted",
			ConstLabels: labels,
		}),
		fileBytesStored: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "file_bytes_stored_total",
			Help:        "Cumulative plaintext bytes accepted for storage",
			ConstLabels: labels,
		}),

		linkDownloadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "link_downloads_total",
			Help:        "Total number of share-link download attempts by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),

		loginsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "logins_total",
			Help:        "Total number of login attempts by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		accountsLockedOut: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "accounts_locked_out_total",
			Help:        "Total number of login attempts rejected by lockout",
			ConstLabels: labels,
		}),
		mfaEnrollmentTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "mfa_enrollments_total",
			Help:        "Total number of completed MFA enrollments",
			ConstLabels: labels,
		}),
	}
}

// RecordHTTPRequest records one completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments the in-flight request gauge
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.httpRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements the in-flight request gauge
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.httpRequestsInFlight.Dec()
}

// RecordUpload records one accepted upload of the given size
func (m *Metrics) RecordUpload(sizeBytes int64) {
	m.filesUploadedTotal.Inc()
	m.fileBytesStored.Add(float64(sizeBytes))
}

// RecordDownload records one served download
func (m *Metrics) RecordDownload() {
	m.filesDownloadedTotal.Inc()
}

// RecordDelete records one file deletion
func (m *Metrics) RecordDelete() {
	m.filesDeletedTotal.Inc()
}

// RecordLinkDownload records a share-link download attempt.
// outcome is one of "success", "expired", "not_found".
func (m *Metrics) RecordLinkDownload(outcome string) {
	m.linkDownloadsTotal.WithLabelValues(outcome).Inc()
}

// RecordLogin records a login attempt.
// outcome is one of "success", "failed", "mfa_pending".
func (m *Metrics) RecordLogin(outcome string) {
	m.loginsTotal.WithLabelValues(outcome).Inc()
}

// RecordLockout records a login attempt rejected because the account is locked
func (m *Metrics) RecordLockout() {
	m.accountsLockedOut.Inc()
}

// RecordMFAEnrollment records one completed MFA enrollment
func (m *Metrics) RecordMFAEnrollment() {
	m.mfaEnrollmentTotal.Inc()
}

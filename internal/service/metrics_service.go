package service

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	origin          string
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	storageWrite    *prometheus.HistogramVec
	storageBytes    *prometheus.HistogramVec
	storageFailures *prometheus.CounterVec
	quotaExceeded   prometheus.Counter
	externalChanges *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	reconcileDrops  prometheus.Counter
	storeOperations *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	writeCount           uint64
	writeFailureCount    uint64
	quotaCount           uint64
	externalCount        uint64
	reconcileCount       uint64
}

// NewMetricsService registers core Prometheus collectors. origin labels every
// series so several contexts can share one scrape target.
func NewMetricsService(origin string) *MetricsService {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"origin": origin}

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "http_request_duration_seconds",
		Help:        "Duration of HTTP requests in seconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests",
		ConstLabels: constLabels,
	}, []string{"method", "path", "status"})

	storageWrite := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "storage_write_seconds",
		Help:        "Latency of persistence adapter writes",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{"scope"})

	storageBytes := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "storage_write_bytes",
		Help:        "Serialized size of persistence adapter writes",
		Buckets:     prometheus.ExponentialBuckets(64, 4, 10),
		ConstLabels: constLabels,
	}, []string{"scope"})

	storageFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "storage_write_failures_total",
		Help:        "Persistence adapter writes that did not complete",
		ConstLabels: constLabels,
	}, []string{"scope", "reason"})

	quotaExceeded := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "storage_quota_exceeded_total",
		Help:        "Writes rejected because the payload exceeded the quota",
		ConstLabels: constLabels,
	})

	externalChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "storage_external_changes_total",
		Help:        "Change notifications received from other contexts",
		ConstLabels: constLabels,
	}, []string{"scope", "key"})

	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "sync_reconciliations_total",
		Help:        "Reconciliation jobs by outcome",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	reconcileDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "sync_dropped_records_total",
		Help:        "Loaded records dropped as seed or id duplicates",
		ConstLabels: constLabels,
	})

	storeOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "store_operations_total",
		Help:        "Entity store operations by outcome",
		ConstLabels: constLabels,
	}, []string{"op", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, storageWrite, storageBytes, storageFailures, quotaExceeded,
		externalChanges, reconciliations, reconcileDrops, storeOperations, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		origin:          origin,
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		storageWrite:    storageWrite,
		storageBytes:    storageBytes,
		storageFailures: storageFailures,
		quotaExceeded:   quotaExceeded,
		externalChanges: externalChanges,
		reconciliations: reconciliations,
		reconcileDrops:  reconcileDrops,
		storeOperations: storeOperations,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveStorageWrite records one adapter write.
func (m *MetricsService) ObserveStorageWrite(scope string, bytes int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storageWrite.WithLabelValues(scope).Observe(duration.Seconds())
	m.storageBytes.WithLabelValues(scope).Observe(float64(bytes))
	atomic.AddUint64(&m.writeCount, 1)
	if err == nil {
		return
	}
	atomic.AddUint64(&m.writeFailureCount, 1)
	reason := "error"
	if errors.Is(err, appErrors.ErrStorageQuotaExceeded) {
		reason = "quota"
		m.quotaExceeded.Inc()
		atomic.AddUint64(&m.quotaCount, 1)
	}
	m.storageFailures.WithLabelValues(scope, reason).Inc()
}

// RecordExternalChange counts a notification from another context.
func (m *MetricsService) RecordExternalChange(scope, key string) {
	if m == nil {
		return
	}
	m.externalChanges.WithLabelValues(scope, key).Inc()
	atomic.AddUint64(&m.externalCount, 1)
}

// RecordReconciliation counts a processed reconciliation job.
func (m *MetricsService) RecordReconciliation(outcome string, dropped int) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(outcome).Inc()
	if dropped > 0 {
		m.reconcileDrops.Add(float64(dropped))
	}
	if outcome == "applied" {
		atomic.AddUint64(&m.reconcileCount, 1)
	}
}

// RecordStoreOperation counts an entity store call.
func (m *MetricsService) RecordStoreOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.storeOperations.WithLabelValues(op, outcome).Inc()
}

// Snapshot returns aggregated metrics suitable for the status endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		Origin:                   m.origin,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		StorageWrites:            atomic.LoadUint64(&m.writeCount),
		StorageWriteFailures:     atomic.LoadUint64(&m.writeFailureCount),
		QuotaExceeded:            atomic.LoadUint64(&m.quotaCount),
		ExternalChanges:          atomic.LoadUint64(&m.externalCount),
		Reconciliations:          atomic.LoadUint64(&m.reconcileCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

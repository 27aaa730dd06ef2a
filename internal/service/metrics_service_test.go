package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

func TestMetricsSnapshotCountsStorageActivity(t *testing.T) {
	m := NewMetricsService("ctx-1")

	m.ObserveHTTPRequest(http.MethodGet, "/classrooms", http.StatusOK, 20*time.Millisecond)
	m.ObserveStorageWrite("device", 120, time.Millisecond, nil)
	m.ObserveStorageWrite("device", 9000, time.Millisecond, appErrors.Clone(appErrors.ErrStorageQuotaExceeded, "full"))
	m.ObserveStorageWrite("session", 10, time.Millisecond, errors.New("boom"))
	m.RecordExternalChange("device", "classrooms")
	m.RecordReconciliation("applied", 2)
	m.RecordReconciliation("ignored", 0)
	m.RecordStoreOperation("create_classroom", "ok")

	snap := m.Snapshot()
	assert.Equal(t, "ctx-1", snap.Origin)
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 20.0, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(3), snap.StorageWrites)
	assert.Equal(t, uint64(2), snap.StorageWriteFailures)
	assert.Equal(t, uint64(1), snap.QuotaExceeded)
	assert.Equal(t, uint64(1), snap.ExternalChanges)
	assert.Equal(t, uint64(1), snap.Reconciliations)
}

func TestMetricsHandlerExposesSeries(t *testing.T) {
	m := NewMetricsService("ctx-2")
	m.RecordStoreOperation("join_classroom", "invalid")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `store_operations_total{op="join_classroom",origin="ctx-2",outcome="invalid"} 1`)

	var nilMetrics *MetricsService
	rec = httptest.NewRecorder()
	nilMetrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	nilMetrics.RecordStoreOperation("x", "y")
}

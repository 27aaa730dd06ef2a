package models

import "time"

// SystemMetrics is a point-in-time summary of the instrumentation counters.
type SystemMetrics struct {
	Origin                   string    `json:"origin"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	StorageWrites            uint64    `json:"storage_writes"`
	StorageWriteFailures     uint64    `json:"storage_write_failures"`
	QuotaExceeded            uint64    `json:"quota_exceeded"`
	ExternalChanges          uint64    `json:"external_changes"`
	Reconciliations          uint64    `json:"reconciliations"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

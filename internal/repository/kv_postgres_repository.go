package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

// pgDiskFull is SQLSTATE 53100.
const pgDiskFull = "53100"

// reconnectOrigin marks the synthetic change emitted after a listener
// reconnect. It never matches a real context origin.
const reconnectOrigin = "postgres-listener-reconnect"

const deviceKVSchema = `CREATE TABLE IF NOT EXISTS device_kv (
	key TEXT PRIMARY KEY,
	value BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresKV stores device scoped values in a single key/value table.
type PostgresKV struct {
	db *sqlx.DB
}

// NewPostgresKV constructs the repository.
func NewPostgresKV(db *sqlx.DB) *PostgresKV {
	return &PostgresKV{db: db}
}

// EnsureSchema creates the backing table when missing.
func (r *PostgresKV) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, deviceKVSchema); err != nil {
		return fmt.Errorf("create device_kv: %w", err)
	}
	return nil
}

// Get loads the raw value for key.
func (r *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	if err := r.db.GetContext(ctx, &raw, "SELECT value FROM device_kv WHERE key = $1", key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrKeyNotFound
		}
		return nil, fmt.Errorf("select device_kv %s: %w", key, err)
	}
	return raw, nil
}

// Set upserts value under key.
func (r *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	const query = `INSERT INTO device_kv (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgDiskFull {
			return appErrors.Wrap(err, appErrors.ErrStorageQuotaExceeded.Code, appErrors.ErrStorageQuotaExceeded.Status, "postgres disk full")
		}
		return fmt.Errorf("upsert device_kv %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *PostgresKV) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM device_kv WHERE key = $1", key); err != nil {
		return fmt.Errorf("delete device_kv %s: %w", key, err)
	}
	return nil
}

// PostgresNotifier carries storage changes between processes with
// LISTEN/NOTIFY.
type PostgresNotifier struct {
	db      *sqlx.DB
	dsn     string
	channel string
	logger  *zap.Logger
}

// NewPostgresNotifier constructs a notifier. dsn is used to open the
// dedicated listener connection.
func NewPostgresNotifier(db *sqlx.DB, dsn, channel string, logger *zap.Logger) *PostgresNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresNotifier{db: db, dsn: dsn, channel: channel, logger: logger}
}

// Publish sends change through pg_notify.
func (n *PostgresNotifier) Publish(ctx context.Context, change models.StorageChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal storage change: %w", err)
	}
	if _, err := n.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", n.channel, string(payload)); err != nil {
		return fmt.Errorf("pg_notify %s: %w", n.channel, err)
	}
	return nil
}

// Listen opens a listener connection and calls handler for every change.
func (n *PostgresNotifier) Listen(ctx context.Context, handler func(models.StorageChange)) (func(), error) {
	listener := pq.NewListener(n.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			n.logger.Warn("postgres listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(n.channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", n.channel, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case notification := <-listener.Notify:
				// nil is sent after a reconnect; changes may have been missed,
				// so ask for a full re-read.
				if notification == nil {
					n.logger.Info("postgres listener reconnected", zap.String("channel", n.channel))
					handler(models.StorageChange{Origin: reconnectOrigin, Scope: models.ScopeDevice, Key: models.KeyClassrooms})
					continue
				}
				var change models.StorageChange
				if err := json.Unmarshal([]byte(notification.Extra), &change); err != nil {
					n.logger.Warn("discarding malformed storage change", zap.String("channel", n.channel), zap.Error(err))
					continue
				}
				handler(change)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			_ = listener.Close()
		})
	}, nil
}

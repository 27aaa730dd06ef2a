// Package persistence exposes the two storage scopes behind one read, write
// and subscribe contract.
//
// Session scope belongs to a single execution context. Device scope is shared
// by every context on the device; writes to it are announced through a
// ChangeNotifier so the other contexts can reconcile.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-sync/internal/models"
	"github.com/noah-isme/classroom-sync/internal/repository"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

// DefaultQuotaBytes mirrors the per-origin limit browsers apply to web storage.
const DefaultQuotaBytes = 5 * 1024 * 1024

// KeyValueStore is a raw byte store for one scope.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// ChangeNotifier broadcasts device scope writes between contexts.
type ChangeNotifier interface {
	Publish(ctx context.Context, change models.StorageChange) error
	Listen(ctx context.Context, handler func(models.StorageChange)) (func(), error)
}

type writeObserver interface {
	ObserveStorageWrite(scope string, bytes int, duration time.Duration, err error)
	RecordExternalChange(scope, key string)
}

// Unsubscribe detaches a subscriber. It is safe to call more than once.
type Unsubscribe func()

// Options configures an Adapter.
type Options struct {
	Origin     string
	Session    KeyValueStore
	Device     KeyValueStore
	Notifier   ChangeNotifier
	QuotaBytes int
	Logger     *zap.Logger
	Metrics    writeObserver
}

// Adapter routes reads and writes to the right scope, enforces the quota and
// filters change notifications down to those made by other contexts.
type Adapter struct {
	origin   string
	session  KeyValueStore
	device   KeyValueStore
	notifier ChangeNotifier
	quota    int
	logger   *zap.Logger
	metrics  writeObserver

	mu          sync.Mutex
	subscribers map[int]func(models.StorageChange)
	nextSub     int
	stopListen  func()
}

// NewAdapter constructs an adapter. Missing stores default to in-memory ones,
// which makes a standalone adapter behave like a single isolated context.
func NewAdapter(opts Options) *Adapter {
	if opts.Origin == "" {
		opts.Origin = uuid.NewString()
	}
	if opts.Session == nil {
		opts.Session = repository.NewMemoryKV()
	}
	if opts.Device == nil {
		opts.Device = repository.NewMemoryKV()
	}
	if opts.QuotaBytes <= 0 {
		opts.QuotaBytes = DefaultQuotaBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Adapter{
		origin:      opts.Origin,
		session:     opts.Session,
		device:      opts.Device,
		notifier:    opts.Notifier,
		quota:       opts.QuotaBytes,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		subscribers: make(map[int]func(models.StorageChange)),
	}
}

// Origin identifies this execution context.
func (a *Adapter) Origin() string {
	return a.origin
}

func (a *Adapter) store(scope models.Scope) (KeyValueStore, error) {
	switch scope {
	case models.ScopeSession:
		return a.session, nil
	case models.ScopeDevice:
		return a.device, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown storage scope %q", scope))
	}
}

// Read decodes the value under key into dest. It reports false when the key
// has never been written.
func (a *Adapter) Read(ctx context.Context, scope models.Scope, key string, dest interface{}) (bool, error) {
	kv, err := a.store(scope)
	if err != nil {
		return false, err
	}
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, appErrors.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read %s/%s: %w", scope, key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", scope, key, err)
	}
	return true, nil
}

// Write serializes value under key. Payloads above the quota are rejected
// with ErrStorageQuotaExceeded and nothing is stored. Device writes are
// announced to other contexts; a failed announcement is logged, not returned,
// because the value itself was stored.
func (a *Adapter) Write(ctx context.Context, scope models.Scope, key string, value interface{}) (err error) {
	kv, err := a.store(scope)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", scope, key, err)
	}

	start := time.Now()
	defer func() {
		if a.metrics != nil {
			a.metrics.ObserveStorageWrite(string(scope), len(payload), time.Since(start), err)
		}
	}()

	if len(payload) > a.quota {
		a.logger.Warn("storage write over quota",
			zap.String("scope", string(scope)),
			zap.String("key", key),
			zap.Int("bytes", len(payload)),
			zap.Int("quota", a.quota))
		return appErrors.Wrap(fmt.Errorf("%d bytes exceeds %d", len(payload), a.quota),
			appErrors.ErrStorageQuotaExceeded.Code, appErrors.ErrStorageQuotaExceeded.Status,
			fmt.Sprintf("%s/%s not saved: storage quota exceeded", scope, key))
	}
	if err := kv.Set(ctx, key, payload); err != nil {
		return fmt.Errorf("write %s/%s: %w", scope, key, err)
	}

	if scope == models.ScopeDevice && a.notifier != nil {
		change := models.StorageChange{Origin: a.origin, Scope: scope, Key: key}
		if perr := a.notifier.Publish(ctx, change); perr != nil {
			a.logger.Warn("storage change not announced", zap.String("key", key), zap.Error(perr))
		}
	}
	return nil
}

// Subscribe registers fn for device scope changes made by other contexts.
// The first subscriber starts listening on the notifier.
func (a *Adapter) Subscribe(ctx context.Context, fn func(models.StorageChange)) (Unsubscribe, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopListen == nil && a.notifier != nil {
		stop, err := a.notifier.Listen(ctx, a.dispatch)
		if err != nil {
			return nil, fmt.Errorf("subscribe to storage changes: %w", err)
		}
		a.stopListen = stop
	}

	id := a.nextSub
	a.nextSub++
	a.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() { a.unsubscribe(id) })
	}, nil
}

func (a *Adapter) unsubscribe(id int) {
	a.mu.Lock()
	delete(a.subscribers, id)
	var stop func()
	if len(a.subscribers) == 0 && a.stopListen != nil {
		stop = a.stopListen
		a.stopListen = nil
	}
	a.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (a *Adapter) dispatch(change models.StorageChange) {
	if change.Origin == a.origin || change.Scope != models.ScopeDevice {
		return
	}
	a.mu.Lock()
	targets := make([]func(models.StorageChange), 0, len(a.subscribers))
	for _, fn := range a.subscribers {
		targets = append(targets, fn)
	}
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordExternalChange(string(change.Scope), change.Key)
	}
	a.logger.Debug("external storage change", zap.String("from", change.Origin), zap.String("key", change.Key))
	for _, fn := range targets {
		fn(change)
	}
}

// Close stops listening for changes.
func (a *Adapter) Close() {
	a.mu.Lock()
	stop := a.stopListen
	a.stopListen = nil
	a.subscribers = make(map[int]func(models.StorageChange))
	a.mu.Unlock()
	if stop != nil {
		stop()
	}
}

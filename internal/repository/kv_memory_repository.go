package repository

import (
	"context"
	"sync"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

// MemoryKV keeps serialized values in process memory. It backs session scope
// and, when shared between several adapters, an in-process device scope.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryKV constructs an empty store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

// Get returns a copy of the stored bytes.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.values[key]
	if !ok {
		return nil, appErrors.ErrKeyNotFound
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// Set replaces the value stored under key.
func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.mu.Lock()
	m.values[key] = stored
	m.mu.Unlock()
	return nil
}

// Delete removes key if present.
func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// MemoryNotifier fans storage changes out to every listener in the process.
type MemoryNotifier struct {
	mu        sync.RWMutex
	listeners map[int]func(models.StorageChange)
	next      int
}

// NewMemoryNotifier constructs an empty hub.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{listeners: make(map[int]func(models.StorageChange))}
}

// Publish delivers change to all current listeners, including the publisher's
// own; filtering by origin is the adapter's job.
func (n *MemoryNotifier) Publish(ctx context.Context, change models.StorageChange) error {
	n.mu.RLock()
	targets := make([]func(models.StorageChange), 0, len(n.listeners))
	for _, fn := range n.listeners {
		targets = append(targets, fn)
	}
	n.mu.RUnlock()
	for _, fn := range targets {
		fn(change)
	}
	return nil
}

// Listen registers handler until the returned stop function is called.
func (n *MemoryNotifier) Listen(ctx context.Context, handler func(models.StorageChange)) (func(), error) {
	n.mu.Lock()
	id := n.next
	n.next++
	n.listeners[id] = handler
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}, nil
}

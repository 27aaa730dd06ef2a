package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

func newRedisClient(t *testing.T, srv *miniredis.Miniredis) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisKVPrefixesKeys(t *testing.T) {
	srv := miniredis.RunT(t)
	kv := NewRedisKV(newRedisClient(t, srv), "classroom:device:")
	ctx := context.Background()

	_, err := kv.Get(ctx, models.KeyClassrooms)
	require.True(t, errors.Is(err, appErrors.ErrKeyNotFound))

	require.NoError(t, kv.Set(ctx, models.KeyClassrooms, []byte(`[]`)))
	raw, err := srv.Get("classroom:device:classrooms")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	got, err := kv.Get(ctx, models.KeyClassrooms)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, kv.Delete(ctx, models.KeyClassrooms))
	assert.False(t, srv.Exists("classroom:device:classrooms"))
}

func TestRedisKVWrapsConnectionErrors(t *testing.T) {
	srv := miniredis.RunT(t)
	kv := NewRedisKV(newRedisClient(t, srv), "")
	srv.Close()

	err := kv.Set(context.Background(), "k", []byte("v"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, appErrors.ErrStorageQuotaExceeded))
}

func TestRedisNotifierDeliversAcrossClients(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	listener := NewRedisNotifier(newRedisClient(t, srv), "changes", nil)
	publisher := NewRedisNotifier(newRedisClient(t, srv), "changes", nil)

	var mu sync.Mutex
	var got []models.StorageChange
	stop, err := listener.Listen(ctx, func(c models.StorageChange) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer stop()

	change := models.StorageChange{Origin: "tab-a", Scope: models.ScopeDevice, Key: models.KeyClassrooms}
	require.NoError(t, publisher.Publish(ctx, change))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, change, got[0])
	mu.Unlock()
}

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

func TestMemoryKVRoundTripCopiesBytes(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	_, err := kv.Get(ctx, "classrooms")
	require.True(t, errors.Is(err, appErrors.ErrKeyNotFound))

	payload := []byte(`[{"id":1}]`)
	require.NoError(t, kv.Set(ctx, "classrooms", payload))
	payload[0] = 'X'

	got, err := kv.Get(ctx, "classrooms")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))

	require.NoError(t, kv.Delete(ctx, "classrooms"))
	_, err = kv.Get(ctx, "classrooms")
	assert.True(t, errors.Is(err, appErrors.ErrKeyNotFound))
}

func TestMemoryNotifierStopsDelivering(t *testing.T) {
	hub := NewMemoryNotifier()
	ctx := context.Background()

	var received []models.StorageChange
	stop, err := hub.Listen(ctx, func(c models.StorageChange) { received = append(received, c) })
	require.NoError(t, err)

	change := models.StorageChange{Origin: "tab-a", Scope: models.ScopeDevice, Key: models.KeyClassrooms}
	require.NoError(t, hub.Publish(ctx, change))
	stop()
	stop()
	require.NoError(t, hub.Publish(ctx, change))

	require.Len(t, received, 1)
	assert.Equal(t, change, received[0])
}

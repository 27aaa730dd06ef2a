package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
	"github.com/noah-isme/classroom-sync/pkg/database"
)

func TestBoltKVPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.db")
	ctx := context.Background()

	db, err := database.NewBolt(path, DeviceBucket)
	require.NoError(t, err)
	kv := NewBoltKV(db)

	_, err = kv.Get(ctx, models.KeyClassrooms)
	require.True(t, errors.Is(err, appErrors.ErrKeyNotFound))
	require.NoError(t, kv.Set(ctx, models.KeyClassrooms, []byte(`[{"id":9}]`)))
	require.NoError(t, db.Close())

	db, err = database.NewBolt(path, DeviceBucket)
	require.NoError(t, err)
	defer db.Close()
	kv = NewBoltKV(db)

	raw, err := kv.Get(ctx, models.KeyClassrooms)
	require.NoError(t, err)
	require.Equal(t, `[{"id":9}]`, string(raw))

	require.NoError(t, kv.Delete(ctx, models.KeyClassrooms))
	_, err = kv.Get(ctx, models.KeyClassrooms)
	require.True(t, errors.Is(err, appErrors.ErrKeyNotFound))
}

package repository

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

// DeviceBucket is the bbolt bucket holding device scoped keys.
const DeviceBucket = "device"

// BoltKV stores device scoped values in a single-file bbolt database.
type BoltKV struct {
	db     *bbolt.DB
	bucket []byte
}

// NewBoltKV constructs the repository over an opened database.
func NewBoltKV(db *bbolt.DB) *BoltKV {
	return &BoltKV{db: db, bucket: []byte(DeviceBucket)}
}

// Get loads the raw value for key.
func (r *BoltKV) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(r.bucket)
		if b == nil {
			return appErrors.ErrKeyNotFound
		}
		v := b.Get([]byte(key))
		if v == nil {
			return appErrors.ErrKeyNotFound
		}
		// v is only valid inside the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		if err == appErrors.ErrKeyNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("bolt get %s: %w", key, err)
	}
	return out, nil
}

// Set stores value under key.
func (r *BoltKV) Set(ctx context.Context, key string, value []byte) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(r.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("bolt put %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *BoltKV) Delete(ctx context.Context, key string) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(r.bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bolt delete %s: %w", key, err)
	}
	return nil
}

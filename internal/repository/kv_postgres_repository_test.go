package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

func newKVRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPostgresKVGet(t *testing.T) {
	db, mock, cleanup := newKVRepoMock(t)
	defer cleanup()
	repo := NewPostgresKV(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM device_kv WHERE key = $1")).
		WithArgs(models.KeyClassrooms).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[{"id":3}]`)))

	raw, err := repo.Get(context.Background(), models.KeyClassrooms)
	require.NoError(t, err)
	require.Equal(t, `[{"id":3}]`, string(raw))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKVGetMissing(t *testing.T) {
	db, mock, cleanup := newKVRepoMock(t)
	defer cleanup()
	repo := NewPostgresKV(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM device_kv WHERE key = $1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := repo.Get(context.Background(), "nope")
	require.True(t, errors.Is(err, appErrors.ErrKeyNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKVSetUpserts(t *testing.T) {
	db, mock, cleanup := newKVRepoMock(t)
	defer cleanup()
	repo := NewPostgresKV(db)

	mock.ExpectExec("INSERT INTO device_kv").
		WithArgs(models.KeyClassrooms, []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Set(context.Background(), models.KeyClassrooms, []byte(`[]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKVSetDiskFullIsQuotaError(t *testing.T) {
	db, mock, cleanup := newKVRepoMock(t)
	defer cleanup()
	repo := NewPostgresKV(db)

	mock.ExpectExec("INSERT INTO device_kv").
		WillReturnError(&pq.Error{Code: pgDiskFull, Message: "could not extend file"})

	err := repo.Set(context.Background(), models.KeyClassrooms, []byte(`[]`))
	require.True(t, errors.Is(err, appErrors.ErrStorageQuotaExceeded))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresNotifierPublish(t *testing.T) {
	db, mock, cleanup := newKVRepoMock(t)
	defer cleanup()
	notifier := NewPostgresNotifier(db, "", "classroom_changes", nil)

	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_notify($1, $2)")).
		WithArgs("classroom_changes", `{"origin":"tab-a","scope":"device","key":"classrooms"}`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := notifier.Publish(context.Background(), models.StorageChange{Origin: "tab-a", Scope: models.ScopeDevice, Key: models.KeyClassrooms})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

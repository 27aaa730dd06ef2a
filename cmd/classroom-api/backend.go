package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-sync/internal/models"
	"github.com/noah-isme/classroom-sync/internal/persistence"
	"github.com/noah-isme/classroom-sync/internal/repository"
	"github.com/noah-isme/classroom-sync/pkg/config"
	"github.com/noah-isme/classroom-sync/pkg/database"
)

type scoreBoard interface {
	Incr(ctx context.Context, user string, delta int64) (int64, error)
	Top(ctx context.Context, n int) ([]models.LeaderboardEntry, error)
}

type deviceBackend struct {
	kv       persistence.KeyValueStore
	notifier persistence.ChangeNotifier
	board    scoreBoard
	backup   *repository.PostgresLeaderboardBackup
	close    func()
}

// openDeviceBackend connects device scope to the configured store. Redis and
// postgres carry change notifications between processes; memory and bolt
// are single process, so notifications stay in process. The leaderboard
// follows the same backend: a sorted set on redis, a backup table on
// postgres, memory otherwise.
func openDeviceBackend(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*deviceBackend, error) {
	switch cfg.Storage.DeviceBackend {
	case config.BackendRedis:
		client, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &deviceBackend{
			kv:       repository.NewRedisKV(client, cfg.Storage.KeyPrefix),
			notifier: repository.NewRedisNotifier(client, cfg.Sync.Channel, logr),
			board:    repository.NewRedisLeaderboard(client, cfg.Leaderboard.Key),
			close:    func() { _ = client.Close() },
		}, nil
	case config.BackendPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		kv := repository.NewPostgresKV(db)
		if err := kv.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("prepare device table: %w", err)
		}
		backup := repository.NewPostgresLeaderboardBackup(db)
		if err := backup.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("prepare leaderboard table: %w", err)
		}
		return &deviceBackend{
			kv:       kv,
			notifier: repository.NewPostgresNotifier(db, database.PostgresDSN(cfg.Database), pgChannel(cfg.Sync.Channel), logr),
			board:    repository.NewMemoryLeaderboard(),
			backup:   backup,
			close:    func() { _ = db.Close() },
		}, nil
	case config.BackendBolt:
		db, err := database.NewBolt(cfg.Storage.BoltPath, repository.DeviceBucket)
		if err != nil {
			return nil, err
		}
		return &deviceBackend{
			kv:       repository.NewBoltKV(db),
			notifier: repository.NewMemoryNotifier(),
			board:    repository.NewMemoryLeaderboard(),
			close:    func() { _ = db.Close() },
		}, nil
	default:
		return &deviceBackend{
			kv:       repository.NewMemoryKV(),
			notifier: repository.NewMemoryNotifier(),
			board:    repository.NewMemoryLeaderboard(),
			close:    func() {},
		}, nil
	}
}

// pgChannel turns the configured channel into a valid LISTEN identifier.
func pgChannel(channel string) string {
	out := make([]rune, 0, len(channel))
	for _, r := range channel {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "classroom_device_changes"
	}
	return string(out)
}

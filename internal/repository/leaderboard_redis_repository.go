package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/classroom-sync/internal/models"
)

// RedisLeaderboard keeps scores in a sorted set.
type RedisLeaderboard struct {
	client *redis.Client
	key    string
}

// NewRedisLeaderboard constructs a leaderboard stored under key.
func NewRedisLeaderboard(client *redis.Client, key string) *RedisLeaderboard {
	return &RedisLeaderboard{client: client, key: key}
}

// Incr adds delta to user's score and returns the new total.
func (r *RedisLeaderboard) Incr(ctx context.Context, user string, delta int64) (int64, error) {
	score, err := r.client.ZIncrBy(ctx, r.key, float64(delta), user).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zincrby %s: %w", r.key, err)
	}
	return int64(score), nil
}

// Top returns the n highest scores, highest first. n <= 0 returns all.
func (r *RedisLeaderboard) Top(ctx context.Context, n int) ([]models.LeaderboardEntry, error) {
	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}
	members, err := r.client.ZRevRangeWithScores(ctx, r.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange %s: %w", r.key, err)
	}
	out := make([]models.LeaderboardEntry, 0, len(members))
	for _, m := range members {
		user, _ := m.Member.(string)
		out = append(out, models.LeaderboardEntry{User: user, Score: int64(m.Score)})
	}
	return out, nil
}

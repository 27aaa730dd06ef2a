package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/noah-isme/classroom-sync/internal/models"
)

// MemoryLeaderboard is the in-process leaderboard used when scores are not
// kept in Redis. Ties order like a Redis reverse range: by user, descending.
type MemoryLeaderboard struct {
	mu     sync.RWMutex
	scores map[string]int64
}

// NewMemoryLeaderboard constructs an empty leaderboard.
func NewMemoryLeaderboard() *MemoryLeaderboard {
	return &MemoryLeaderboard{scores: make(map[string]int64)}
}

func (m *MemoryLeaderboard) Incr(ctx context.Context, user string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[user] += delta
	return m.scores[user], nil
}

func (m *MemoryLeaderboard) Top(ctx context.Context, n int) ([]models.LeaderboardEntry, error) {
	m.mu.RLock()
	out := make([]models.LeaderboardEntry, 0, len(m.scores))
	for user, score := range m.scores {
		out = append(out, models.LeaderboardEntry{User: user, Score: score})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].User > out[j].User
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

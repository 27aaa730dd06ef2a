package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classroom-sync/internal/models"
)

const leaderboardBackupSchema = `CREATE TABLE IF NOT EXISTS leaderboard_backup (
	username TEXT PRIMARY KEY,
	score BIGINT NOT NULL DEFAULT 0,
	backed_up_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresLeaderboardBackup snapshots leaderboard scores into a table.
type PostgresLeaderboardBackup struct {
	db *sqlx.DB
}

// NewPostgresLeaderboardBackup constructs the repository.
func NewPostgresLeaderboardBackup(db *sqlx.DB) *PostgresLeaderboardBackup {
	return &PostgresLeaderboardBackup{db: db}
}

// EnsureSchema creates the backup table when missing.
func (r *PostgresLeaderboardBackup) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, leaderboardBackupSchema); err != nil {
		return fmt.Errorf("create leaderboard_backup: %w", err)
	}
	return nil
}

// Save upserts every entry in one transaction.
func (r *PostgresLeaderboardBackup) Save(ctx context.Context, entries []models.LeaderboardEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin leaderboard backup: %w", err)
	}
	const query = `INSERT INTO leaderboard_backup (username, score, backed_up_at) VALUES ($1, $2, NOW())
ON CONFLICT (username) DO UPDATE SET score = EXCLUDED.score, backed_up_at = NOW()`
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, query, e.User, e.Score); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert leaderboard_backup %s: %w", e.User, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit leaderboard backup: %w", err)
	}
	return nil
}

// List returns the last backup, highest score first.
func (r *PostgresLeaderboardBackup) List(ctx context.Context) ([]models.LeaderboardEntry, error) {
	var rows []struct {
		Username string `db:"username"`
		Score    int64  `db:"score"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT username, score FROM leaderboard_backup ORDER BY score DESC, username DESC"); err != nil {
		return nil, fmt.Errorf("select leaderboard_backup: %w", err)
	}
	out := make([]models.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.LeaderboardEntry{User: row.Username, Score: row.Score})
	}
	return out, nil
}

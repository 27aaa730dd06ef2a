package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

// DefaultLeaderboardSize is how many entries a standings view shows.
const DefaultLeaderboardSize = 10

type scoreBoard interface {
	Incr(ctx context.Context, user string, delta int64) (int64, error)
	Top(ctx context.Context, n int) ([]models.LeaderboardEntry, error)
}

type scoreBackup interface {
	Save(ctx context.Context, entries []models.LeaderboardEntry) error
	List(ctx context.Context) ([]models.LeaderboardEntry, error)
}

// LeaderboardService accumulates quiz scores per user and periodically
// snapshots the full board into a backup store.
type LeaderboardService struct {
	board     scoreBoard
	backup    scoreBackup
	validator *validator.Validate
	logger    *zap.Logger
	size      int
}

// NewLeaderboardService constructs the service. backup may be nil, in which
// case Backup and Restore are no-ops.
func NewLeaderboardService(board scoreBoard, backup scoreBackup, size int, validate *validator.Validate, logger *zap.Logger) *LeaderboardService {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{board: board, backup: backup, validator: validate, logger: logger, size: size}
}

// AddScore adds delta.Score to the user's total and returns the updated
// standings.
func (s *LeaderboardService) AddScore(ctx context.Context, delta models.ScoreDelta) ([]models.LeaderboardEntry, error) {
	delta.User = strings.TrimSpace(delta.User)
	if err := s.validator.Struct(delta); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "user is required")
	}
	total, err := s.board.Incr(ctx, delta.User, delta.Score)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update score")
	}
	s.logger.Debug("score updated", zap.String("user", delta.User), zap.Int64("delta", delta.Score), zap.Int64("total", total))
	return s.Standings(ctx)
}

// Standings returns the top entries, highest score first.
func (s *LeaderboardService) Standings(ctx context.Context) ([]models.LeaderboardEntry, error) {
	entries, err := s.board.Top(ctx, s.size)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaderboard")
	}
	return entries, nil
}

// Backup copies every score into the backup store and returns how many
// entries were written.
func (s *LeaderboardService) Backup(ctx context.Context) (int, error) {
	if s.backup == nil {
		return 0, nil
	}
	entries, err := s.board.Top(ctx, 0)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read leaderboard")
	}
	if err := s.backup.Save(ctx, entries); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to back up leaderboard")
	}
	s.logger.Info("leaderboard backed up", zap.Int("entries", len(entries)))
	return len(entries), nil
}

// Restore seeds an empty board from the last backup. A board that already
// holds scores is left alone.
func (s *LeaderboardService) Restore(ctx context.Context) (int, error) {
	if s.backup == nil {
		return 0, nil
	}
	current, err := s.board.Top(ctx, 1)
	if err != nil {
		return 0, err
	}
	if len(current) > 0 {
		return 0, nil
	}
	entries, err := s.backup.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if _, err := s.board.Incr(ctx, e.User, e.Score); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

// StartBackups runs Backup every interval until ctx is done.
func (s *LeaderboardService) StartBackups(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.backup == nil {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Backup(ctx); err != nil {
					s.logger.Warn("leaderboard backup failed", zap.Error(err))
				}
			}
		}
	}()
}

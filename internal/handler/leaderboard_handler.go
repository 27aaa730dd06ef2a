package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-sync/internal/models"
	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
	"github.com/noah-isme/classroom-sync/pkg/response"
)

type leaderboardService interface {
	AddScore(ctx context.Context, delta models.ScoreDelta) ([]models.LeaderboardEntry, error)
	Standings(ctx context.Context) ([]models.LeaderboardEntry, error)
	Backup(ctx context.Context) (int, error)
}

// LeaderboardHandler exposes quiz score endpoints.
type LeaderboardHandler struct {
	leaderboard leaderboardService
}

// NewLeaderboardHandler constructs LeaderboardHandler.
func NewLeaderboardHandler(leaderboard leaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// List godoc
// @Summary Top scores
// @Tags Leaderboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaderboard [get]
func (h *LeaderboardHandler) List(c *gin.Context) {
	entries, err := h.leaderboard.Standings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// AddScore godoc
// @Summary Add points to a user's score
// @Tags Leaderboard
// @Accept json
// @Produce json
// @Param payload body models.ScoreDelta true "Score delta"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /leaderboard/scores [post]
func (h *LeaderboardHandler) AddScore(c *gin.Context) {
	var delta models.ScoreDelta
	if err := c.ShouldBindJSON(&delta); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entries, err := h.leaderboard.AddScore(c.Request.Context(), delta)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// Backup godoc
// @Summary Snapshot the leaderboard into the backup store now
// @Tags Leaderboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaderboard/backup [post]
func (h *LeaderboardHandler) Backup(c *gin.Context) {
	n, err := h.leaderboard.Backup(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"backed_up": n})
}

package models

// LeaderboardEntry is one user's accumulated score.
type LeaderboardEntry struct {
	User  string `json:"user"`
	Score int64  `json:"score"`
}

// ScoreDelta adds points to a user's score. Negative deltas are allowed.
type ScoreDelta struct {
	User  string `json:"user" validate:"required"`
	Score int64  `json:"score"`
}

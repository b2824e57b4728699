package stats

import "context"

// Service defines the interface for aggregate statistics
type Service interface {
	// GetUserStats computes a user's activity totals in a guild
	GetUserStats(ctx context.Context, input *GetUserStatsInput) (*GetUserStatsOutput, error)

	// GetLeaderboard computes the guild standings by total active time
	GetLeaderboard(ctx context.Context, input *GetLeaderboardInput) (*GetLeaderboardOutput, error)
}

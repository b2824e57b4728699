package stats

import (
	"github.com/rgeorgiev/clockin/internal/models"
)

type GetUserStatsInput struct {
	UserID  string
	GuildID string
}

type GetUserStatsOutput struct {
	Stats *models.UserStats
}

type GetLeaderboardInput struct {
	GuildID string

	// Limit caps the number of entries returned; zero means no cap
	Limit int
}

type GetLeaderboardOutput struct {
	Entries []*models.LeaderboardEntry
}

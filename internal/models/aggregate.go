package models

import (
	"time"
)

// UserStats represents a user's derived activity totals in a guild
type UserStats struct {
	// UserID is the Discord user ID
	UserID string

	// GuildID is the guild the totals are scoped to
	GuildID string

	// TotalActive is the summed active time across all sessions
	TotalActive time.Duration

	// Sessions is the number of sessions, including zero-duration ones
	Sessions int

	// LastActivity is the timestamp of the most recent event across all sessions
	LastActivity time.Time
}

// LeaderboardEntry represents one row of a guild leaderboard
type LeaderboardEntry struct {
	// UserID is the Discord user ID
	UserID string

	// TotalActive is the user's summed active time
	TotalActive time.Duration

	// Sessions is the user's session count
	Sessions int
}

package models

import (
	"time"
)

// GuildSettings stores per-guild tracking configuration
type GuildSettings struct {
	// GuildID is the guild these settings belong to
	GuildID string

	// TrackingChannelID restricts clock-in commands to one channel.
	// Empty means tracking is allowed in any channel.
	TrackingChannelID string

	// ReportChannelID is where session open/close announcements go.
	// Empty disables announcements.
	ReportChannelID string

	// UpdatedAt is when the settings were last changed
	UpdatedAt time.Time
}

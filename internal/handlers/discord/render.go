package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/rgeorgiev/clockin/internal/models"
)

// formatDuration renders a duration in a compact human form, e.g. "1h 23m 45s"
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}

	d = d.Round(time.Second)
	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	seconds := (d % time.Minute) / time.Second

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}

	return strings.Join(parts, " ")
}

// renderSessionStarted renders the response for a fresh clock-in
func renderSessionStarted(s *discordgo.Session, i *discordgo.InteractionCreate, username string) error {
	return RespondWithEmbed(s, i,
		"Clocked In",
		fmt.Sprintf("**%s** is on the clock. Use `/clockin stop` to finish, or `/clockin pause` to take a break.", username),
		nil)
}

// renderSessionStopped renders the response for a clock-out
func renderSessionStopped(s *discordgo.Session, i *discordgo.InteractionCreate, username string, elapsed time.Duration) error {
	return RespondWithEmbed(s, i,
		"Clocked Out",
		fmt.Sprintf("**%s** clocked out.", username),
		[]*discordgo.MessageEmbedField{
			{
				Name:   "Session time",
				Value:  formatDuration(elapsed),
				Inline: true,
			},
		})
}

// renderUserStats renders a user's aggregate totals
func renderUserStats(s *discordgo.Session, i *discordgo.InteractionCreate, username string, userStats *models.UserStats) error {
	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Total time",
			Value:  formatDuration(userStats.TotalActive),
			Inline: true,
		},
		{
			Name:   "Sessions",
			Value:  fmt.Sprintf("%d", userStats.Sessions),
			Inline: true,
		},
	}

	if !userStats.LastActivity.IsZero() {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Last activity",
			Value:  fmt.Sprintf("<t:%d:R>", userStats.LastActivity.Unix()),
			Inline: true,
		})
	}

	return RespondWithEmbed(s, i,
		fmt.Sprintf("Stats for %s", username),
		"",
		fields)
}

// renderLeaderboard renders the guild standings
func renderLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate, entries []*models.LeaderboardEntry) error {
	if len(entries) == 0 {
		return RespondWithMessage(s, i, "No tracked time yet. Be the first with `/clockin start`!")
	}

	var sb strings.Builder
	medals := []string{"🥇", "🥈", "🥉"}
	for idx, entry := range entries {
		rank := fmt.Sprintf("%d.", idx+1)
		if idx < len(medals) {
			rank = medals[idx]
		}
		sb.WriteString(fmt.Sprintf("%s <@%s> — **%s** across %d sessions\n",
			rank, entry.UserID, formatDuration(entry.TotalActive), entry.Sessions))
	}

	return RespondWithEmbed(s, i, "Leaderboard", sb.String(), nil)
}

// renderSettings renders the current guild settings after an update
func renderSettings(s *discordgo.Session, i *discordgo.InteractionCreate, settings *models.GuildSettings) error {
	tracking := "any channel"
	if settings.TrackingChannelID != "" {
		tracking = fmt.Sprintf("<#%s>", settings.TrackingChannelID)
	}

	reports := "disabled"
	if settings.ReportChannelID != "" {
		reports = fmt.Sprintf("<#%s>", settings.ReportChannelID)
	}

	return RespondWithEmbed(s, i,
		"Tracking Settings",
		"",
		[]*discordgo.MessageEmbedField{
			{
				Name:   "Tracking channel",
				Value:  tracking,
				Inline: true,
			},
			{
				Name:   "Report channel",
				Value:  reports,
				Inline: true,
			},
		})
}

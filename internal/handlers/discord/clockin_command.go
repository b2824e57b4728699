package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/rgeorgiev/clockin/internal/models"
	"github.com/rgeorgiev/clockin/internal/repositories/guildsettings"
	"github.com/rgeorgiev/clockin/internal/services/stats"
	"github.com/rgeorgiev/clockin/internal/services/tracker"
)

const defaultLeaderboardLimit = 10

// ClockinCommand handles the /clockin command
type ClockinCommand struct {
	BaseCommand
	trackerSvc   tracker.Service
	statsSvc     stats.Service
	settingsRepo guildsettings.Repository
}

// NewClockinCommand creates a new clockin command handler
func NewClockinCommand(trackerSvc tracker.Service, statsSvc stats.Service, settingsRepo guildsettings.Repository) *ClockinCommand {
	return &ClockinCommand{
		BaseCommand: BaseCommand{
			Name:        "clockin",
			Description: "Track your activity sessions",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "start",
					Description: "Clock in and start a session",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "pause",
					Description: "Pause your running session",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "resume",
					Description: "Resume your paused session",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stop",
					Description: "Clock out and close your session",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stats",
					Description: "Show your total tracked time",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "user",
							Description: "Show another user's stats instead",
							Required:    false,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leaderboard",
					Description: "Show the guild leaderboard by tracked time",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "channel",
					Description: "Restrict tracking to a channel and set the report channel (admin)",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "tracking",
							Description: "Channel tracking commands are limited to",
							Required:    false,
						},
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "reports",
							Description: "Channel session open/close reports go to",
							Required:    false,
						},
					},
				},
			},
		},
		trackerSvc:   trackerSvc,
		statsSvc:     statsSvc,
		settingsRepo: settingsRepo,
	}
}

// Handle processes a Discord interaction for the clockin command
func (c *ClockinCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	data := i.ApplicationCommandData()
	if data.Name != c.Name {
		return nil
	}

	guildID := i.GuildID
	userID := i.Member.User.ID
	username := i.Member.User.Username
	if i.Member.Nick != "" {
		username = i.Member.Nick
	}

	// Handle the appropriate subcommand
	var err error
	switch data.Options[0].Name {
	case "start":
		err = c.handleStart(s, i, guildID, userID, username)
	case "pause":
		err = c.handlePause(s, i, guildID, userID)
	case "resume":
		err = c.handleResume(s, i, guildID, userID)
	case "stop":
		err = c.handleStop(s, i, guildID, userID, username)
	case "stats":
		err = c.handleStats(s, i, guildID, userID, username)
	case "leaderboard":
		err = c.handleLeaderboard(s, i, guildID)
	case "channel":
		err = c.handleChannel(s, i, guildID)
	default:
		err = errors.New("unknown subcommand")
	}

	return err
}

// trackingAllowed checks the guild settings for a channel restriction.
// Tracking is permitted everywhere until an admin sets a channel.
func (c *ClockinCommand) trackingAllowed(ctx context.Context, guildID, channelID string) (bool, *models.GuildSettings, error) {
	settings, err := c.settingsRepo.GetSettings(ctx, &guildsettings.GetSettingsInput{
		GuildID: guildID,
	})
	if err != nil {
		return false, nil, err
	}

	if settings.TrackingChannelID != "" && settings.TrackingChannelID != channelID {
		return false, settings, nil
	}

	return true, settings, nil
}

// report announces a session open/close in the configured report channel
func (c *ClockinCommand) report(s *discordgo.Session, settings *models.GuildSettings, message string) {
	if settings == nil || settings.ReportChannelID == "" {
		return
	}

	if _, err := s.ChannelMessageSend(settings.ReportChannelID, message); err != nil {
		log.Error().Err(err).Str("channel", settings.ReportChannelID).Msg("Failed to send session report")
	}
}

// handleStart handles the start subcommand
func (c *ClockinCommand) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate, guildID, userID, username string) error {
	ctx := context.Background()

	allowed, settings, err := c.trackingAllowed(ctx, guildID, i.ChannelID)
	if err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Error loading guild settings")
		return RespondWithError(s, i, "Something went wrong, please try again later.")
	}
	if !allowed {
		return RespondWithEphemeralMessage(s, i, fmt.Sprintf("Tracking commands only work in <#%s>.", settings.TrackingChannelID))
	}

	output, err := c.trackerSvc.StartSession(ctx, &tracker.StartSessionInput{
		UserID:  userID,
		GuildID: guildID,
	})
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("Error starting session")
		return RespondWithError(s, i, "Something went wrong, please try again later.")
	}

	if !output.IsNew {
		return RespondWithEphemeralMessage(s, i, fmt.Sprintf(
			"You already have a session going — %s on the clock so far.",
			formatDuration(output.Elapsed)))
	}

	c.report(s, settings, fmt.Sprintf("%s clocked in.", username))

	return renderSessionStarted(s, i, username)
}

// handlePause handles the pause subcommand
func (c *ClockinCommand) handlePause(s *discordgo.Session, i *discordgo.InteractionCreate, guildID, userID string) error {
	ctx := context.Background()

	output, err := c.trackerSvc.PauseSession(ctx, &tracker.PauseSessionInput{
		UserID:  userID,
		GuildID: guildID,
	})
	if err != nil {
		return respondWithTrackerError(s, i, err, userID)
	}

	return RespondWithMessage(s, i, fmt.Sprintf(
		"Session paused at **%s**. Use `/clockin resume` to pick it back up.",
		formatDuration(output.Elapsed)))
}

// handleResume handles the resume subcommand
func (c *ClockinCommand) handleResume(s *discordgo.Session, i *discordgo.InteractionCreate, guildID, userID string) error {
	ctx := context.Background()

	output, err := c.trackerSvc.ResumeSession(ctx, &tracker.ResumeSessionInput{
		UserID:  userID,
		GuildID: guildID,
	})
	if err != nil {
		return respondWithTrackerError(s, i, err, userID)
	}

	return RespondWithMessage(s, i, fmt.Sprintf(
		"Back on the clock with **%s** tracked so far.",
		formatDuration(output.Elapsed)))
}

// handleStop handles the stop subcommand
func (c *ClockinCommand) handleStop(s *discordgo.Session, i *discordgo.InteractionCreate, guildID, userID, username string) error {
	ctx := context.Background()

	output, err := c.trackerSvc.StopSession(ctx, &tracker.StopSessionInput{
		UserID:  userID,
		GuildID: guildID,
	})
	if err != nil {
		return respondWithTrackerError(s, i, err, userID)
	}

	settings, settingsErr := c.settingsRepo.GetSettings(ctx, &guildsettings.GetSettingsInput{
		GuildID: guildID,
	})
	if settingsErr != nil {
		log.Error().Err(settingsErr).Str("guild", guildID).Msg("Error loading guild settings")
	} else {
		c.report(s, settings, fmt.Sprintf("%s clocked out after %s.", username, formatDuration(output.Elapsed)))
	}

	return renderSessionStopped(s, i, username, output.Elapsed)
}

// handleStats handles the stats subcommand
func (c *ClockinCommand) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate, guildID, userID, username string) error {
	ctx := context.Background()

	// An explicit user option overrides the invoker
	sub := i.ApplicationCommandData().Options[0]
	for _, opt := range sub.Options {
		if opt.Name == "user" {
			target := opt.UserValue(s)
			if target != nil {
				userID = target.ID
				username = target.Username
			}
		}
	}

	output, err := c.statsSvc.GetUserStats(ctx, &stats.GetUserStatsInput{
		UserID:  userID,
		GuildID: guildID,
	})
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("Error computing user stats")
		return RespondWithError(s, i, "Something went wrong, please try again later.")
	}

	return renderUserStats(s, i, username, output.Stats)
}

// handleLeaderboard handles the leaderboard subcommand
func (c *ClockinCommand) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate, guildID string) error {
	ctx := context.Background()

	output, err := c.statsSvc.GetLeaderboard(ctx, &stats.GetLeaderboardInput{
		GuildID: guildID,
		Limit:   defaultLeaderboardLimit,
	})
	if err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Error computing leaderboard")
		return RespondWithError(s, i, "Something went wrong, please try again later.")
	}

	return renderLeaderboard(s, i, output.Entries)
}

// handleChannel handles the channel subcommand
func (c *ClockinCommand) handleChannel(s *discordgo.Session, i *discordgo.InteractionCreate, guildID string) error {
	ctx := context.Background()

	if i.Member.Permissions&discordgo.PermissionManageServer == 0 {
		return RespondWithEphemeralMessage(s, i, "You need the Manage Server permission to change tracking settings.")
	}

	settings, err := c.settingsRepo.GetSettings(ctx, &guildsettings.GetSettingsInput{
		GuildID: guildID,
	})
	if err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Error loading guild settings")
		return RespondWithError(s, i, "Something went wrong, please try again later.")
	}

	sub := i.ApplicationCommandData().Options[0]
	for _, opt := range sub.Options {
		channel := opt.ChannelValue(s)
		if channel == nil {
			continue
		}
		switch opt.Name {
		case "tracking":
			settings.TrackingChannelID = channel.ID
		case "reports":
			settings.ReportChannelID = channel.ID
		}
	}
	settings.UpdatedAt = time.Now()

	if err := c.settingsRepo.SaveSettings(ctx, &guildsettings.SaveSettingsInput{
		Settings: settings,
	}); err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Error saving guild settings")
		return RespondWithError(s, i, "Something went wrong, please try again later.")
	}

	return renderSettings(s, i, settings)
}

// respondWithTrackerError maps lifecycle precondition errors to specific
// user-facing messages. Anything else gets a generic message; raw storage
// errors are never shown to the user.
func respondWithTrackerError(s *discordgo.Session, i *discordgo.InteractionCreate, err error, userID string) error {
	switch {
	case errors.Is(err, tracker.ErrNoOpenSession):
		return RespondWithEphemeralMessage(s, i, "You have no active session. Use `/clockin start` to begin one.")
	case errors.Is(err, tracker.ErrAlreadyPaused):
		return RespondWithEphemeralMessage(s, i, "Your session is already paused.")
	case errors.Is(err, tracker.ErrNotPaused):
		return RespondWithEphemeralMessage(s, i, "Your session is not paused.")
	default:
		log.Error().Err(err).Str("user", userID).Msg("Error handling session command")
		return RespondWithError(s, i, "Something went wrong, please try again later.")
	}
}

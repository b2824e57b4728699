package discord

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/rgeorgiev/clockin/internal/repositories/guildsettings"
	"github.com/rgeorgiev/clockin/internal/services/stats"
	"github.com/rgeorgiev/clockin/internal/services/tracker"
)

// Bot represents the Discord bot instance
type Bot struct {
	session      *discordgo.Session
	commands     map[string]CommandHandler
	commandIDs   map[string]string // Maps command name to command ID
	trackerSvc   tracker.Service
	statsSvc     stats.Service
	settingsRepo guildsettings.Repository
	config       *Config
}

// Config holds the configuration for the bot
type Config struct {
	// Discord bot token
	Token string

	// Application ID for the bot
	ApplicationID string

	// Optional guild ID for development (server-specific commands)
	GuildID string

	// Tracker service
	TrackerService tracker.Service

	// Stats service
	StatsService stats.Service

	// Guild settings repository
	SettingsRepo guildsettings.Repository
}

// New creates a new Discord bot
func New(cfg *Config) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Token == "" {
		return nil, errors.New("token cannot be empty")
	}

	if cfg.TrackerService == nil {
		return nil, errors.New("tracker service cannot be nil")
	}

	if cfg.StatsService == nil {
		return nil, errors.New("stats service cannot be nil")
	}

	if cfg.SettingsRepo == nil {
		return nil, errors.New("settings repository cannot be nil")
	}

	// Create a new Discord session
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	bot := &Bot{
		session:      session,
		commands:     make(map[string]CommandHandler),
		commandIDs:   make(map[string]string),
		trackerSvc:   cfg.TrackerService,
		statsSvc:     cfg.StatsService,
		settingsRepo: cfg.SettingsRepo,
		config:       cfg,
	}

	// Register the interaction handler
	session.AddHandler(bot.handleInteraction)

	return bot, nil
}

// Start initializes the Discord connection and registers commands
func (b *Bot) Start() error {
	// Open the websocket connection to Discord
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Register the clockin command
	clockinCmd := NewClockinCommand(b.trackerSvc, b.statsSvc, b.settingsRepo)
	if err := b.RegisterCommand(clockinCmd); err != nil {
		return fmt.Errorf("failed to register clockin command: %w", err)
	}

	log.Info().Msg("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully shuts down the Discord connection
func (b *Bot) Stop() error {
	// Remove all commands
	appID := b.config.ApplicationID
	if appID == "" {
		appID = b.session.State.User.ID
	}

	guildID := ""
	if b.config.GuildID != "" {
		guildID = b.config.GuildID
	}

	for cmdName, cmdID := range b.commandIDs {
		if err := b.session.ApplicationCommandDelete(appID, guildID, cmdID); err != nil {
			log.Error().Err(err).Str("command", cmdName).Str("id", cmdID).Msg("Failed to delete command")
		} else {
			log.Info().Str("command", cmdName).Str("id", cmdID).Msg("Deleted command")
		}
	}

	return b.session.Close()
}

// RegisterCommand registers a command with Discord
func (b *Bot) RegisterCommand(cmd CommandHandler) error {
	appID := b.config.ApplicationID
	if appID == "" {
		// Fall back to session user ID if application ID is not provided
		appID = b.session.State.User.ID
	}

	// If guild ID is provided, register command for that specific guild
	// Otherwise, register it globally
	guildID := ""
	if b.config.GuildID != "" {
		guildID = b.config.GuildID
		log.Info().Str("command", cmd.GetName()).Str("guild", guildID).Msg("Registering guild command")
	} else {
		log.Info().Str("command", cmd.GetName()).Msg("Registering global command")
	}

	createdCmd, err := b.session.ApplicationCommandCreate(appID, guildID, cmd.GetCommand())
	if err != nil {
		return fmt.Errorf("failed to create command %s: %w", cmd.GetName(), err)
	}

	// Store the command handler and its ID
	b.commands[cmd.GetName()] = cmd
	b.commandIDs[cmd.GetName()] = createdCmd.ID

	return nil
}

// handleInteraction handles Discord interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		// Handle slash commands
		if h, ok := b.commands[i.ApplicationCommandData().Name]; ok {
			if err := h.Handle(s, i); err != nil {
				log.Error().Err(err).Str("command", i.ApplicationCommandData().Name).Msg("Error handling command")
			}
		}
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rgeorgiev/clockin/internal/common/clock"
	"github.com/rgeorgiev/clockin/internal/handlers/discord"
	"github.com/rgeorgiev/clockin/internal/repositories/guildsettings"
	"github.com/rgeorgiev/clockin/internal/repositories/session"
	statsService "github.com/rgeorgiev/clockin/internal/services/stats"
	trackerService "github.com/rgeorgiev/clockin/internal/services/tracker"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load .env if present; real deployments configure through the environment
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment")
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	// Initialize repositories
	sessionRepo, err := session.NewRedis(&session.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session repository")
	}

	settingsRepo, err := guildsettings.NewRedis(&guildsettings.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create guild settings repository")
	}

	// Initialize services
	systemClock := &clock.DefaultClock{}

	trackerSvc, err := trackerService.New(&trackerService.Config{
		SessionRepo: sessionRepo,
		Clock:       systemClock,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create tracker service")
	}

	statsSvc, err := statsService.New(&statsService.Config{
		SessionRepo: sessionRepo,
		Clock:       systemClock,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stats service")
	}

	// Get Discord token from environment
	discordToken := getEnv("DISCORD_TOKEN", "")
	if discordToken == "" {
		log.Fatal().Msg("DISCORD_TOKEN environment variable is required")
	}

	// Get application ID for the bot
	applicationID := getEnv("APPLICATION_ID", "")

	// Get optional guild ID for development
	guildID := getEnv("GUILD_ID", "")

	// Initialize Discord bot
	bot, err := discord.New(&discord.Config{
		Token:          discordToken,
		ApplicationID:  applicationID,
		GuildID:        guildID,
		TrackerService: trackerSvc,
		StatsService:   statsSvc,
		SettingsRepo:   settingsRepo,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Discord bot")
	}

	// Start the bot
	if err := bot.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start Discord bot")
	}

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Shutdown the bot
	if err := bot.Stop(); err != nil {
		log.Error().Err(err).Msg("Error stopping bot")
	}

	log.Info().Msg("Bot has been shut down")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

package guildsettings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rgeorgiev/clockin/internal/models"
)

const settingsKeyPrefix = "guild:settings:"

// Config holds configuration for the Redis guild settings repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed guild settings repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// GetSettings retrieves a guild's settings. A guild with nothing stored gets
// default settings: tracking allowed everywhere, no report channel.
func (r *redisRepository) GetSettings(ctx context.Context, input *GetSettingsInput) (*models.GuildSettings, error) {
	if input == nil || input.GuildID == "" {
		return nil, errors.New("input and guild ID cannot be empty")
	}

	settingsKey := fmt.Sprintf("%s%s", settingsKeyPrefix, input.GuildID)
	settingsJSON, err := r.client.Get(ctx, settingsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return &models.GuildSettings{
				GuildID: input.GuildID,
			}, nil
		}
		return nil, fmt.Errorf("failed to get guild settings: %w", err)
	}

	var settings models.GuildSettings
	if err := json.Unmarshal([]byte(settingsJSON), &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal guild settings: %w", err)
	}

	return &settings, nil
}

// SaveSettings persists a guild's settings
func (r *redisRepository) SaveSettings(ctx context.Context, input *SaveSettingsInput) error {
	if input == nil || input.Settings == nil {
		return errors.New("input and settings cannot be nil")
	}

	if input.Settings.GuildID == "" {
		return errors.New("guild ID cannot be empty")
	}

	settingsJSON, err := json.Marshal(input.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal guild settings: %w", err)
	}

	settingsKey := fmt.Sprintf("%s%s", settingsKeyPrefix, input.Settings.GuildID)
	if err := r.client.Set(ctx, settingsKey, settingsJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to save guild settings: %w", err)
	}

	return nil
}

package guildsettings

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/rgeorgiev/clockin/internal/repositories/guildsettings Repository

import (
	"context"

	"github.com/rgeorgiev/clockin/internal/models"
)

// Repository defines the interface for guild settings persistence
type Repository interface {
	// GetSettings retrieves the settings for a guild, with defaults when none are stored
	GetSettings(ctx context.Context, input *GetSettingsInput) (*models.GuildSettings, error)

	// SaveSettings persists the settings for a guild
	SaveSettings(ctx context.Context, input *SaveSettingsInput) error
}

package guildsettings

import (
	"github.com/rgeorgiev/clockin/internal/models"
)

type GetSettingsInput struct {
	GuildID string
}

type SaveSettingsInput struct {
	Settings *models.GuildSettings
}

package tracker

import (
	"time"

	"github.com/rgeorgiev/clockin/internal/models"
)

type StartSessionInput struct {
	UserID  string
	GuildID string

	// At is when the action happened. Zero means "now"; replay and
	// migration tooling may supply an explicit timestamp.
	At time.Time
}

type StartSessionOutput struct {
	Session *models.Session

	// IsNew is false when the user already had an open session,
	// which is then returned with its live duration
	IsNew bool

	// Elapsed is the session's active time so far
	Elapsed time.Duration
}

type PauseSessionInput struct {
	UserID  string
	GuildID string
	At      time.Time
}

type PauseSessionOutput struct {
	Session *models.Session

	// Elapsed is the active time accrued up to the pause
	Elapsed time.Duration
}

type ResumeSessionInput struct {
	UserID  string
	GuildID string
	At      time.Time
}

type ResumeSessionOutput struct {
	Session *models.Session

	// Elapsed is the total active time up to and including the resume point
	Elapsed time.Duration
}

type StopSessionInput struct {
	UserID  string
	GuildID string
	At      time.Time
}

type StopSessionOutput struct {
	Session *models.Session

	// Elapsed is the final, closed duration of the session
	Elapsed time.Duration
}

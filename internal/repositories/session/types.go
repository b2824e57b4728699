package session

import (
	"time"

	"github.com/rgeorgiev/clockin/internal/models"
)

type CreateSessionInput struct {
	UserID  string
	GuildID string

	// StartAt is when the user actually clocked in
	StartAt time.Time
}

type CreateSessionOutput struct {
	Session *models.Session
}

type GetSessionInput struct {
	SessionID string
}

type GetOpenSessionInput struct {
	UserID  string
	GuildID string
}

type AppendEventInput struct {
	SessionID string
	Type      models.EventType

	// Timestamp is when the action happened, as supplied by the caller
	Timestamp time.Time
}

type AppendEventOutput struct {
	Session *models.Session
	Event   *models.SessionEvent
}

type ListEventsInput struct {
	SessionID string
}

type ListOpenSessionsInput struct {
	GuildID string
}

type ListSessionsForUserInput struct {
	UserID  string
	GuildID string
}

type ListUsersInput struct {
	GuildID string
}

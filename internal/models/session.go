package models

import (
	"time"
)

// SessionStatus represents the current state of a tracked session
type SessionStatus string

const (
	// SessionStatusActive indicates the session is running and accruing time
	SessionStatusActive SessionStatus = "active"

	// SessionStatusPaused indicates the session is open but not accruing time
	SessionStatusPaused SessionStatus = "paused"

	// SessionStatusCompleted indicates the session has been stopped for good
	SessionStatusCompleted SessionStatus = "completed"
)

// EventType represents a lifecycle action recorded against a session
type EventType string

const (
	// EventTypeStart opens a session and its first active interval
	EventTypeStart EventType = "start"

	// EventTypePause closes the current active interval
	EventTypePause EventType = "pause"

	// EventTypeResume opens a new active interval on a paused session
	EventTypeResume EventType = "resume"

	// EventTypeStop closes the session permanently
	EventTypeStop EventType = "stop"
)

// Session represents one tracked period of user activity in a guild
type Session struct {
	// ID is the unique identifier for the session
	ID string

	// UserID is the Discord user being tracked
	UserID string

	// GuildID is the Discord server/guild this session belongs to
	GuildID string

	// Status is the current state of the session
	Status SessionStatus

	// CreatedAt is when the session was created
	CreatedAt time.Time

	// UpdatedAt is when the session was last updated
	UpdatedAt time.Time
}

// SessionEvent is one entry in a session's append-only event log
type SessionEvent struct {
	// ID is the unique identifier for the event
	ID string

	// SessionID is the session this event belongs to
	SessionID string

	// Type is the lifecycle action recorded by this event
	Type EventType

	// Timestamp is when the action happened, as supplied by the caller
	Timestamp time.Time

	// Seq is the event's position in the session's log. It breaks ties
	// between events that share a timestamp.
	Seq int64

	// CreatedAt is when the event was persisted
	CreatedAt time.Time
}

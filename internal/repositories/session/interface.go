package session

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/rgeorgiev/clockin/internal/repositories/session Repository

import (
	"context"

	"github.com/rgeorgiev/clockin/internal/models"
)

// Repository defines the interface for session and event-log persistence
type Repository interface {
	// CreateSession creates a new active session and its start event.
	// It is the sole enforcer of the one-open-session-per-user invariant.
	CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error)

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error)

	// GetOpenSession retrieves the open session for a user in a guild
	GetOpenSession(ctx context.Context, input *GetOpenSessionInput) (*models.Session, error)

	// AppendEvent appends a lifecycle event and updates the session status
	AppendEvent(ctx context.Context, input *AppendEventInput) (*AppendEventOutput, error)

	// ListEvents retrieves a session's events ordered by timestamp
	ListEvents(ctx context.Context, input *ListEventsInput) ([]*models.SessionEvent, error)

	// ListOpenSessions retrieves all open sessions in a guild
	ListOpenSessions(ctx context.Context, input *ListOpenSessionsInput) ([]*models.Session, error)

	// ListSessionsForUser retrieves all of a user's sessions in a guild
	ListSessionsForUser(ctx context.Context, input *ListSessionsForUserInput) ([]*models.Session, error)

	// ListUsers retrieves the IDs of all users with at least one session in a guild
	ListUsers(ctx context.Context, input *ListUsersInput) ([]string, error)
}

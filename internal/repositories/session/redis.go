package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rgeorgiev/clockin/internal/models"
)

const (
	// Key prefixes for Redis
	sessionKeyPrefix    = "session:"
	sessionEventsPrefix = "session:events:"
	openSessionPrefix   = "open:"          // open:<guildID>:<userID> -> session ID
	guildOpenPrefix     = "guild:open:"    // ZSET of open session IDs per guild
	userSessionsPrefix  = "user:sessions:" // user:sessions:<guildID>:<userID> ZSET of session IDs
	guildUsersPrefix    = "guild:users:"   // SET of user IDs with at least one session
)

// openClaimTTL bounds the lifetime of an open-session claim whose write
// pipeline never completed. A successful create persists the claim.
const openClaimTTL = 10 * time.Second

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")

	// ErrOpenSessionExists is returned when the user already has an open session in the guild
	ErrOpenSessionExists = errors.New("an open session already exists for this user")

	// ErrInvalidTransition is returned when an event is not legal from the session's current status
	ErrInvalidTransition = errors.New("event is not a legal transition from the session's status")
)

// Config holds configuration for the Redis session repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed session repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// nextStatus returns the status a session moves to when the event is applied,
// or ErrInvalidTransition when the event is not legal from the current status.
func nextStatus(current models.SessionStatus, event models.EventType) (models.SessionStatus, error) {
	switch current {
	case models.SessionStatusActive:
		switch event {
		case models.EventTypePause:
			return models.SessionStatusPaused, nil
		case models.EventTypeStop:
			return models.SessionStatusCompleted, nil
		}
	case models.SessionStatusPaused:
		switch event {
		case models.EventTypeResume:
			return models.SessionStatusActive, nil
		case models.EventTypeStop:
			return models.SessionStatusCompleted, nil
		}
	}
	// Completed is terminal; start is only ever written by CreateSession.
	return "", ErrInvalidTransition
}

// CreateSession creates a new active session and its start event atomically.
// The open-session invariant is enforced by a SETNX claim on the pointer key:
// of two concurrent calls for the same user, exactly one wins the claim. The
// claim carries a short TTL until the write pipeline persists it, so a crash
// between the claim and the write cannot wedge the user, and no reader ever
// has to delete the pointer.
func (r *redisRepository) CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	if input.UserID == "" {
		return nil, errors.New("user ID cannot be empty")
	}

	if input.GuildID == "" {
		return nil, errors.New("guild ID cannot be empty")
	}

	sessionID := uuid.New().String()

	// Claim the open-session pointer for this user
	openKey := fmt.Sprintf("%s%s:%s", openSessionPrefix, input.GuildID, input.UserID)
	claimed, err := r.client.SetNX(ctx, openKey, sessionID, openClaimTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim open session: %w", err)
	}

	if !claimed {
		return nil, ErrOpenSessionExists
	}

	session := &models.Session{
		ID:        sessionID,
		UserID:    input.UserID,
		GuildID:   input.GuildID,
		Status:    models.SessionStatusActive,
		CreatedAt: input.StartAt,
		UpdatedAt: input.StartAt,
	}

	event := &models.SessionEvent{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Type:      models.EventTypeStart,
		Timestamp: input.StartAt,
		CreatedAt: time.Now(),
	}

	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal start event: %w", err)
	}

	// Write the session, its start event, and the indexes in one transaction
	pipe := r.client.TxPipeline()

	sessionKey := fmt.Sprintf("%s%s", sessionKeyPrefix, sessionID)
	pipe.Set(ctx, sessionKey, sessionJSON, 0)

	eventsKey := fmt.Sprintf("%s%s", sessionEventsPrefix, sessionID)
	pipe.ZAdd(ctx, eventsKey, redis.Z{
		Score:  float64(event.Timestamp.UnixMilli()),
		Member: eventJSON,
	})

	guildOpenKey := fmt.Sprintf("%s%s", guildOpenPrefix, input.GuildID)
	pipe.ZAdd(ctx, guildOpenKey, redis.Z{
		Score:  float64(session.CreatedAt.UnixNano()),
		Member: sessionID,
	})

	userSessionsKey := fmt.Sprintf("%s%s:%s", userSessionsPrefix, input.GuildID, input.UserID)
	pipe.ZAdd(ctx, userSessionsKey, redis.Z{
		Score:  float64(session.CreatedAt.UnixNano()),
		Member: sessionID,
	})

	guildUsersKey := fmt.Sprintf("%s%s", guildUsersPrefix, input.GuildID)
	pipe.SAdd(ctx, guildUsersKey, input.UserID)

	// The session is durably written, so the claim no longer expires
	pipe.Persist(ctx, openKey)

	_, err = pipe.Exec(ctx)
	if err != nil {
		// The unpersisted claim lapses with its TTL, so a failed write
		// cannot wedge the user for long
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &CreateSessionOutput{Session: session}, nil
}

// GetSession retrieves a session by ID from Redis
func (r *redisRepository) GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	sessionKey := fmt.Sprintf("%s%s", sessionKeyPrefix, input.SessionID)
	sessionJSON, err := r.client.Get(ctx, sessionKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// GetOpenSession retrieves the open session for a user in a guild
func (r *redisRepository) GetOpenSession(ctx context.Context, input *GetOpenSessionInput) (*models.Session, error) {
	if input == nil || input.UserID == "" || input.GuildID == "" {
		return nil, errors.New("input, user ID and guild ID cannot be empty")
	}

	openKey := fmt.Sprintf("%s%s:%s", openSessionPrefix, input.GuildID, input.UserID)
	sessionID, err := r.client.Get(ctx, openKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get open session ID: %w", err)
	}

	// A pointer without a session blob belongs to an in-flight create, or to
	// one that died mid-write and whose claim will lapse on its own. Either
	// way GetSession reports not found; deleting the pointer here would race
	// the in-flight create and release a claim it still holds.
	return r.GetSession(ctx, &GetSessionInput{
		SessionID: sessionID,
	})
}

// AppendEvent appends a lifecycle event and updates the session's status and
// UpdatedAt in one transaction. A stop also releases the open-session claim.
//
// The read-validate-write runs under WATCH on the session key, so a
// concurrent append invalidates the transaction and the event is re-validated
// against the session's new status instead of the one this call read.
func (r *redisRepository) AppendEvent(ctx context.Context, input *AppendEventInput) (*AppendEventOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	sessionKey := fmt.Sprintf("%s%s", sessionKeyPrefix, input.SessionID)

	var output *AppendEventOutput

	txf := func(tx *redis.Tx) error {
		sessionJSON, err := tx.Get(ctx, sessionKey).Result()
		if err != nil {
			if err == redis.Nil {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to get session: %w", err)
		}

		var session models.Session
		if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}

		status, err := nextStatus(session.Status, input.Type)
		if err != nil {
			return err
		}

		eventsKey := fmt.Sprintf("%s%s", sessionEventsPrefix, session.ID)
		seq, err := tx.ZCard(ctx, eventsKey).Result()
		if err != nil {
			return fmt.Errorf("failed to count events: %w", err)
		}

		event := &models.SessionEvent{
			ID:        uuid.New().String(),
			SessionID: session.ID,
			Type:      input.Type,
			Timestamp: input.Timestamp,
			Seq:       seq,
			CreatedAt: time.Now(),
		}

		eventJSON, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		session.Status = status
		session.UpdatedAt = input.Timestamp

		updatedJSON, err := json.Marshal(&session)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAdd(ctx, eventsKey, redis.Z{
				Score:  float64(event.Timestamp.UnixMilli()),
				Member: eventJSON,
			})

			pipe.Set(ctx, sessionKey, updatedJSON, 0)

			// A completed session no longer holds the open-session claim
			if status == models.SessionStatusCompleted {
				openKey := fmt.Sprintf("%s%s:%s", openSessionPrefix, session.GuildID, session.UserID)
				pipe.Del(ctx, openKey)

				guildOpenKey := fmt.Sprintf("%s%s", guildOpenPrefix, session.GuildID)
				pipe.ZRem(ctx, guildOpenKey, session.ID)
			}

			return nil
		})
		if err != nil {
			return err
		}

		output = &AppendEventOutput{
			Session: &session,
			Event:   event,
		}
		return nil
	}

	err := r.client.Watch(ctx, txf, sessionKey)
	if errors.Is(err, redis.TxFailedErr) {
		// A concurrent append moved the session; validate against its new state
		err = r.client.Watch(ctx, txf, sessionKey)
	}
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	return output, nil
}

// ListEvents retrieves a session's events ordered by timestamp ascending,
// with the append sequence breaking ties between equal timestamps
func (r *redisRepository) ListEvents(ctx context.Context, input *ListEventsInput) ([]*models.SessionEvent, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	eventsKey := fmt.Sprintf("%s%s", sessionEventsPrefix, input.SessionID)
	members, err := r.client.ZRange(ctx, eventsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	events := make([]*models.SessionEvent, 0, len(members))
	for _, member := range members {
		var event models.SessionEvent
		if err := json.Unmarshal([]byte(member), &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		events = append(events, &event)
	}

	// Equal scores come back in member order, not append order
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Seq < events[j].Seq
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	return events, nil
}

// ListOpenSessions retrieves all open sessions in a guild, ordered by creation time
func (r *redisRepository) ListOpenSessions(ctx context.Context, input *ListOpenSessionsInput) ([]*models.Session, error) {
	if input == nil || input.GuildID == "" {
		return nil, errors.New("input and guild ID cannot be empty")
	}

	guildOpenKey := fmt.Sprintf("%s%s", guildOpenPrefix, input.GuildID)
	sessionIDs, err := r.client.ZRange(ctx, guildOpenKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get open session IDs: %w", err)
	}

	if len(sessionIDs) == 0 {
		return []*models.Session{}, nil
	}

	// Fetch all sessions using a pipeline
	pipe := r.client.Pipeline()
	sessionCommands := make(map[string]*redis.StringCmd, len(sessionIDs))

	for _, sessionID := range sessionIDs {
		sessionKey := fmt.Sprintf("%s%s", sessionKeyPrefix, sessionID)
		sessionCommands[sessionID] = pipe.Get(ctx, sessionKey)
	}

	_, err = pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get open sessions: %w", err)
	}

	sessions := make([]*models.Session, 0, len(sessionIDs))
	for _, sessionID := range sessionIDs {
		sessionJSON, err := sessionCommands[sessionID].Result()
		if err != nil {
			if err == redis.Nil {
				// Session was removed between reading the index and fetching it
				continue
			}
			return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
		}

		var session models.Session
		if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
		}

		sessions = append(sessions, &session)
	}

	return sessions, nil
}

// ListSessionsForUser retrieves all of a user's sessions in a guild,
// ordered by creation time, regardless of status
func (r *redisRepository) ListSessionsForUser(ctx context.Context, input *ListSessionsForUserInput) ([]*models.Session, error) {
	if input == nil || input.UserID == "" || input.GuildID == "" {
		return nil, errors.New("input, user ID and guild ID cannot be empty")
	}

	userSessionsKey := fmt.Sprintf("%s%s:%s", userSessionsPrefix, input.GuildID, input.UserID)
	sessionIDs, err := r.client.ZRange(ctx, userSessionsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session IDs: %w", err)
	}

	sessions := make([]*models.Session, 0, len(sessionIDs))
	for _, sessionID := range sessionIDs {
		session, err := r.GetSession(ctx, &GetSessionInput{SessionID: sessionID})
		if err != nil {
			// Skip sessions that can't be found
			if errors.Is(err, ErrSessionNotFound) {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// ListUsers retrieves the IDs of all users with at least one session in a guild
func (r *redisRepository) ListUsers(ctx context.Context, input *ListUsersInput) ([]string, error) {
	if input == nil || input.GuildID == "" {
		return nil, errors.New("input and guild ID cannot be empty")
	}

	guildUsersKey := fmt.Sprintf("%s%s", guildUsersPrefix, input.GuildID)
	userIDs, err := r.client.SMembers(ctx, guildUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get guild users: %w", err)
	}

	return userIDs, nil
}

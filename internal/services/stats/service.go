package stats

import (
	"context"
	"errors"
	"sort"

	"github.com/rgeorgiev/clockin/internal/common/clock"
	"github.com/rgeorgiev/clockin/internal/duration"
	"github.com/rgeorgiev/clockin/internal/models"
	sessionRepo "github.com/rgeorgiev/clockin/internal/repositories/session"
)

// Config holds configuration for the stats service
type Config struct {
	// Session repository
	SessionRepo sessionRepo.Repository

	// Clock provides the reference time for still-open sessions
	Clock clock.Clock
}

// service implements the Service interface
type service struct {
	sessionRepo sessionRepo.Repository
	clock       clock.Clock
}

// New creates a new stats service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.SessionRepo == nil {
		return nil, ErrNilSessionRepo
	}

	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	return &service{
		sessionRepo: cfg.SessionRepo,
		clock:       cfg.Clock,
	}, nil
}

// GetUserStats replays every session of the user through the duration
// calculator. Completed sessions are summed up to their last event; open
// ones up to now. The session count includes zero-duration sessions.
func (s *service) GetUserStats(ctx context.Context, input *GetUserStatsInput) (*GetUserStatsOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	sessions, err := s.sessionRepo.ListSessionsForUser(ctx, &sessionRepo.ListSessionsForUserInput{
		UserID:  input.UserID,
		GuildID: input.GuildID,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	userStats := &models.UserStats{
		UserID:   input.UserID,
		GuildID:  input.GuildID,
		Sessions: len(sessions),
	}

	for _, session := range sessions {
		events, err := s.sessionRepo.ListEvents(ctx, &sessionRepo.ListEventsInput{
			SessionID: session.ID,
		})
		if err != nil {
			return nil, err
		}

		ref := now
		if session.Status == models.SessionStatusCompleted {
			if last, ok := duration.LastEventTime(events); ok {
				ref = last
			}
		}

		userStats.TotalActive += duration.Elapsed(events, ref)

		if last, ok := duration.LastEventTime(events); ok && last.After(userStats.LastActivity) {
			userStats.LastActivity = last
		}
	}

	return &GetUserStatsOutput{Stats: userStats}, nil
}

// GetLeaderboard computes totals for every user with at least one session in
// the guild, drops zero-time entries, and sorts by total descending. Equal
// totals are ordered by user ID ascending so the board is deterministic.
func (s *service) GetLeaderboard(ctx context.Context, input *GetLeaderboardInput) (*GetLeaderboardOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	userIDs, err := s.sessionRepo.ListUsers(ctx, &sessionRepo.ListUsersInput{
		GuildID: input.GuildID,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*models.LeaderboardEntry, 0, len(userIDs))
	for _, userID := range userIDs {
		output, err := s.GetUserStats(ctx, &GetUserStatsInput{
			UserID:  userID,
			GuildID: input.GuildID,
		})
		if err != nil {
			return nil, err
		}

		if output.Stats.TotalActive <= 0 {
			continue
		}

		entries = append(entries, &models.LeaderboardEntry{
			UserID:      userID,
			TotalActive: output.Stats.TotalActive,
			Sessions:    output.Stats.Sessions,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalActive != entries[j].TotalActive {
			return entries[i].TotalActive > entries[j].TotalActive
		}
		return entries[i].UserID < entries[j].UserID
	})

	if input.Limit > 0 && len(entries) > input.Limit {
		entries = entries[:input.Limit]
	}

	return &GetLeaderboardOutput{Entries: entries}, nil
}

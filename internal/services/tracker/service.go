package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/rgeorgiev/clockin/internal/common/clock"
	"github.com/rgeorgiev/clockin/internal/duration"
	"github.com/rgeorgiev/clockin/internal/models"
	sessionRepo "github.com/rgeorgiev/clockin/internal/repositories/session"
)

// Config holds configuration for the tracker service
type Config struct {
	// Session repository
	SessionRepo sessionRepo.Repository

	// Clock provides the current time
	Clock clock.Clock
}

// service implements the Service interface
type service struct {
	sessionRepo sessionRepo.Repository
	clock       clock.Clock
}

// New creates a new tracker service
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

// at resolves the caller-supplied action time, defaulting to now
func (s *service) at(t time.Time) time.Time {
	if t.IsZero() {
		return s.clock.Now()
	}
	return t
}

// elapsed computes a session's active time at the reference time
func (s *service) elapsed(ctx context.Context, sessionID string, ref time.Time) (time.Duration, error) {
	events, err := s.sessionRepo.ListEvents(ctx, &sessionRepo.ListEventsInput{
		SessionID: sessionID,
	})
	if err != nil {
		return 0, err
	}
	return duration.Elapsed(events, ref), nil
}

// StartSession clocks a user in. If the user already has an open session it
// is returned with IsNew false and its live duration — starting twice is not
// an error, so the caller can show "you're already clocked in" with stats.
func (s *service) StartSession(ctx context.Context, input *StartSessionInput) (*StartSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	now := s.at(input.At)

	existing, err := s.sessionRepo.GetOpenSession(ctx, &sessionRepo.GetOpenSessionInput{
		UserID:  input.UserID,
		GuildID: input.GuildID,
	})
	if err == nil {
		return s.existingSessionOutput(ctx, existing, now)
	}
	if !errors.Is(err, sessionRepo.ErrSessionNotFound) {
		return nil, err
	}

	output, err := s.sessionRepo.CreateSession(ctx, &sessionRepo.CreateSessionInput{
		UserID:  input.UserID,
		GuildID: input.GuildID,
		StartAt: now,
	})
	if err != nil {
		// Lost a race against a concurrent start; report the winner's session
		if errors.Is(err, sessionRepo.ErrOpenSessionExists) {
			existing, err := s.sessionRepo.GetOpenSession(ctx, &sessionRepo.GetOpenSessionInput{
				UserID:  input.UserID,
				GuildID: input.GuildID,
			})
			if err != nil {
				return nil, err
			}
			return s.existingSessionOutput(ctx, existing, now)
		}
		return nil, err
	}

	return &StartSessionOutput{
		Session: output.Session,
		IsNew:   true,
		Elapsed: 0,
	}, nil
}

func (s *service) existingSessionOutput(ctx context.Context, session *models.Session, now time.Time) (*StartSessionOutput, error) {
	elapsed, err := s.elapsed(ctx, session.ID, now)
	if err != nil {
		return nil, err
	}
	return &StartSessionOutput{
		Session: session,
		IsNew:   false,
		Elapsed: elapsed,
	}, nil
}

// PauseSession pauses a user's running session and returns the active time
// accrued up to the pause
func (s *service) PauseSession(ctx context.Context, input *PauseSessionInput) (*PauseSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	now := s.at(input.At)

	open, err := s.sessionRepo.GetOpenSession(ctx, &sessionRepo.GetOpenSessionInput{
		UserID:  input.UserID,
		GuildID: input.GuildID,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			return nil, ErrNoOpenSession
		}
		return nil, err
	}

	if open.Status == models.SessionStatusPaused {
		return nil, ErrAlreadyPaused
	}

	elapsed, err := s.elapsed(ctx, open.ID, now)
	if err != nil {
		return nil, err
	}

	output, err := s.sessionRepo.AppendEvent(ctx, &sessionRepo.AppendEventInput{
		SessionID: open.ID,
		Type:      models.EventTypePause,
		Timestamp: now,
	})
	if err != nil {
		// A concurrent pause got there first
		if errors.Is(err, sessionRepo.ErrInvalidTransition) {
			return nil, ErrAlreadyPaused
		}
		return nil, err
	}

	return &PauseSessionOutput{
		Session: output.Session,
		Elapsed: elapsed,
	}, nil
}

// ResumeSession resumes a user's paused session and returns the total active
// time so far; the paused gap contributes nothing
func (s *service) ResumeSession(ctx context.Context, input *ResumeSessionInput) (*ResumeSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	now := s.at(input.At)

	open, err := s.sessionRepo.GetOpenSession(ctx, &sessionRepo.GetOpenSessionInput{
		UserID:  input.UserID,
		GuildID: input.GuildID,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			return nil, ErrNoOpenSession
		}
		return nil, err
	}

	if open.Status == models.SessionStatusActive {
		return nil, ErrNotPaused
	}

	output, err := s.sessionRepo.AppendEvent(ctx, &sessionRepo.AppendEventInput{
		SessionID: open.ID,
		Type:      models.EventTypeResume,
		Timestamp: now,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrInvalidTransition) {
			return nil, ErrNotPaused
		}
		return nil, err
	}

	elapsed, err := s.elapsed(ctx, open.ID, now)
	if err != nil {
		return nil, err
	}

	return &ResumeSessionOutput{
		Session: output.Session,
		Elapsed: elapsed,
	}, nil
}

// StopSession clocks a user out. The final duration is computed over the
// pre-stop events with now as the reference, then the stop event is written
// at the same instant, so replaying the closed log yields the same total.
func (s *service) StopSession(ctx context.Context, input *StopSessionInput) (*StopSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	now := s.at(input.At)

	open, err := s.sessionRepo.GetOpenSession(ctx, &sessionRepo.GetOpenSessionInput{
		UserID:  input.UserID,
		GuildID: input.GuildID,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			return nil, ErrNoOpenSession
		}
		return nil, err
	}

	elapsed, err := s.elapsed(ctx, open.ID, now)
	if err != nil {
		return nil, err
	}

	output, err := s.sessionRepo.AppendEvent(ctx, &sessionRepo.AppendEventInput{
		SessionID: open.ID,
		Type:      models.EventTypeStop,
		Timestamp: now,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrInvalidTransition) {
			return nil, ErrNoOpenSession
		}
		return nil, err
	}

	return &StopSessionOutput{
		Session: output.Session,
		Elapsed: elapsed,
	}, nil
}

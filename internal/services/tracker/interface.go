package tracker

import "context"

// Service defines the interface for session lifecycle operations
type Service interface {
	// StartSession clocks a user in, or reports their already-open session
	StartSession(ctx context.Context, input *StartSessionInput) (*StartSessionOutput, error)

	// PauseSession pauses a user's running session
	PauseSession(ctx context.Context, input *PauseSessionInput) (*PauseSessionOutput, error)

	// ResumeSession resumes a user's paused session
	ResumeSession(ctx context.Context, input *ResumeSessionInput) (*ResumeSessionOutput, error)

	// StopSession clocks a user out and closes their session for good
	StopSession(ctx context.Context, input *StopSessionInput) (*StopSessionOutput, error)
}

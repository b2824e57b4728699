package tracker

// TrackerError is a custom error type for session tracking errors
type TrackerError string

// Error implements the error interface
func (e TrackerError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrNoOpenSession  TrackerError = "no open session for this user"
	ErrAlreadyPaused  TrackerError = "session is already paused"
	ErrNotPaused      TrackerError = "session is not paused"
	ErrNilConfig      TrackerError = "config cannot be nil"
	ErrNilSessionRepo TrackerError = "session repository cannot be nil"
	ErrNilClock       TrackerError = "clock cannot be nil"
)

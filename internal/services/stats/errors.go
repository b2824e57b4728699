package stats

// StatsError is a custom error type for aggregation errors
type StatsError string

// Error implements the error interface
func (e StatsError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrNilConfig      StatsError = "config cannot be nil"
	ErrNilSessionRepo StatsError = "session repository cannot be nil"
	ErrNilClock       StatsError = "clock cannot be nil"
)

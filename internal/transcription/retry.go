package transcription

import "time"

// Schedule describes a bounded retry plan with linearly increasing
// delays between attempts. It is plain data so the same plan works
// with a blocking sleep here or timer-based scheduling elsewhere.
type Schedule struct {
	// MaxAttempts is the total attempt budget, including the first.
	MaxAttempts int

	// BaseDelay is the backoff unit; the wait after attempt n is
	// n * BaseDelay.
	BaseDelay time.Duration
}

// Delay returns the pause after the given 1-based failed attempt.
func (s Schedule) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * s.BaseDelay
}

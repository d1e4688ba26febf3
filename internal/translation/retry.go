package translation

import "time"

// RetryPolicy is the linear backoff used between translation attempts.
// Attempt n (1-based) that fails is followed by a wait of n*Step, until
// MaxRetries retries have been spent.
type RetryPolicy struct {
	MaxRetries int
	Step       time.Duration
}

// DefaultRetryPolicy retries 9 times, waiting 1s, 2s, ... 9s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 9, Step: time.Second}
}

// MaxAttempts is the total number of calls a batch may make
func (p RetryPolicy) MaxAttempts() int {
	return max(0, p.MaxRetries) + 1
}

// Delay returns the wait after the given failed attempt
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return time.Duration(attempt) * p.Step
}

// Next decides what happens after a failed attempt: retry after delay, or
// give up when the attempt was the last one allowed
func (p RetryPolicy) Next(attempt int) (retry bool, delay time.Duration) {
	if attempt >= p.MaxAttempts() {
		return false, 0
	}
	return true, p.Delay(attempt)
}

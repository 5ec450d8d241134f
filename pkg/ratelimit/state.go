// Package ratelimit tracks the store API request quota.
// It reads the X-Rate-Limit-* response headers and holds requests back
// when the current window is spent, so fewer requests end in 429.
package ratelimit

import (
	"time"
)

// Quota response headers sent by the store API.
const (
	HeaderRequestsLeft  = "X-Rate-Limit-Requests-Left"
	HeaderRequestsQuota = "X-Rate-Limit-Requests-Quota"
	HeaderTimeResetMs   = "X-Rate-Limit-Time-Reset-Ms"
	HeaderTimeWindowMs  = "X-Rate-Limit-Time-Window-Ms"
)

// ThresholdWarning starts spreading the remaining requests over the rest of
// the window when fewer than this many requests are left.
const ThresholdWarning = 10

// QuotaState represents the request quota of the current window.
type QuotaState struct {
	// RequestsLeft is the number of requests allowed before the window resets.
	RequestsLeft int `json:"requests_left"`

	// RequestsQuota is the window size in requests (0 if unknown).
	RequestsQuota int `json:"requests_quota"`

	// ResetAt is when the current window ends.
	ResetAt time.Time `json:"reset_at"`

	// Window is the length of a quota window (0 if unknown).
	Window time.Duration `json:"window"`

	// LastUpdate is when the state was last read from response headers.
	LastUpdate time.Time `json:"last_update"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *QuotaState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// Exhausted reports whether the window is spent and has not reset yet.
func (s *QuotaState) Exhausted() bool {
	return s.RequestsLeft <= 0 && s.TimeUntilReset() > 0
}

// NeedsThrottling reports whether requests should be paced for the rest of the window.
func (s *QuotaState) NeedsThrottling() bool {
	return s.RequestsLeft < ThresholdWarning && !s.Exhausted() && s.TimeUntilReset() > 0
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *QuotaState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// Pause returns how long a request should wait before going out.
func (s *QuotaState) Pause() time.Duration {
	switch {
	case s.Exhausted():
		return s.TimeUntilReset()
	case s.NeedsThrottling():
		return s.TimeUntilReset() / time.Duration(s.RequestsLeft+1)
	default:
		return 0
	}
}

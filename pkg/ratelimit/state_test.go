package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuotaState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *QuotaState
		maxAge   time.Duration
		expected bool
	}{
		{
			name:     "fresh state",
			state:    &QuotaState{LastUpdate: time.Now()},
			maxAge:   time.Minute,
			expected: false,
		},
		{
			name:     "stale state",
			state:    &QuotaState{LastUpdate: time.Now().Add(-10 * time.Minute)},
			maxAge:   time.Minute,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.IsStale(tt.maxAge))
		})
	}
}

func TestQuotaState_Pause(t *testing.T) {
	tests := []struct {
		name      string
		state     *QuotaState
		exhausted bool
		throttled bool
		minPause  time.Duration
		maxPause  time.Duration
	}{
		{
			name:     "healthy",
			state:    &QuotaState{RequestsLeft: 100, ResetAt: time.Now().Add(10 * time.Second)},
			minPause: 0,
			maxPause: 0,
		},
		{
			name:      "exhausted waits for reset",
			state:     &QuotaState{RequestsLeft: 0, ResetAt: time.Now().Add(2 * time.Second)},
			exhausted: true,
			minPause:  1900 * time.Millisecond,
			maxPause:  2 * time.Second,
		},
		{
			name:     "exhausted but window already reset",
			state:    &QuotaState{RequestsLeft: 0, ResetAt: time.Now().Add(-time.Second)},
			minPause: 0,
			maxPause: 0,
		},
		{
			name:      "low quota spreads remaining requests",
			state:     &QuotaState{RequestsLeft: 3, ResetAt: time.Now().Add(4 * time.Second)},
			throttled: true,
			minPause:  900 * time.Millisecond,
			maxPause:  time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.exhausted, tt.state.Exhausted(), "Exhausted")
			assert.Equal(t, tt.throttled, tt.state.NeedsThrottling(), "NeedsThrottling")

			pause := tt.state.Pause()
			assert.GreaterOrEqual(t, pause, tt.minPause)
			assert.LessOrEqual(t, pause, tt.maxPause)
		})
	}
}

func TestQuotaState_TimeUntilReset(t *testing.T) {
	past := &QuotaState{ResetAt: time.Now().Add(-time.Minute)}
	assert.Zero(t, past.TimeUntilReset())

	future := &QuotaState{ResetAt: time.Now().Add(time.Minute)}
	assert.InDelta(t, float64(time.Minute), float64(future.TimeUntilReset()), float64(time.Second))
}

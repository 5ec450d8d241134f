package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	requestsLeftGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_quota_requests_left",
		Help: "Requests left in the current store API quota window",
	})

	quotaWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_quota_waits_total",
		Help: "Total number of requests held back by the quota tracker",
	}, []string{"reason"})
)

// DefaultMaxPause caps how long a single request is held back.
const DefaultMaxPause = 30 * time.Second

// Tracker monitors the store API quota and paces requests.
type Tracker struct {
	store    Store
	logger   zerolog.Logger
	maxPause time.Duration
}

// NewTracker creates a new quota tracker backed by store.
func NewTracker(store Store, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Tracker{
		store:    store,
		logger:   logger,
		maxPause: DefaultMaxPause,
	}
}

// SetMaxPause overrides the cap on a single pause.
func (t *Tracker) SetMaxPause(d time.Duration) {
	t.maxPause = d
}

// GetState retrieves the current quota state.
// Returns a default healthy state if nothing has been recorded.
func (t *Tracker) GetState(ctx context.Context) (*QuotaState, error) {
	state, err := t.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load quota state: %w", err)
	}
	if state == nil {
		return &QuotaState{
			RequestsLeft: ThresholdWarning * 10,
			ResetAt:      time.Now(),
			LastUpdate:   time.Now(),
		}, nil
	}
	return state, nil
}

// UpdateFromHeaders parses quota headers and stores the new state.
// Responses without quota headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	leftStr := headers.Get(HeaderRequestsLeft)
	if leftStr == "" {
		return nil
	}

	left, err := strconv.Atoi(leftStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRequestsLeft, err)
	}

	resetStr := headers.Get(HeaderTimeResetMs)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderTimeResetMs)
	}
	resetMs, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderTimeResetMs, err)
	}

	now := time.Now()
	state := &QuotaState{
		RequestsLeft: left,
		ResetAt:      now.Add(time.Duration(resetMs) * time.Millisecond),
		LastUpdate:   now,
	}
	if q, err := strconv.Atoi(headers.Get(HeaderRequestsQuota)); err == nil {
		state.RequestsQuota = q
	}
	if w, err := strconv.ParseInt(headers.Get(HeaderTimeWindowMs), 10, 64); err == nil {
		state.Window = time.Duration(w) * time.Millisecond
	}

	if err := t.store.Save(ctx, state); err != nil {
		return err
	}

	requestsLeftGauge.Set(float64(left))

	if state.Exhausted() || state.NeedsThrottling() {
		t.logger.Warn().
			Int("requests_left", left).
			Time("reset_at", state.ResetAt).
			Msg("Store API quota running low")
	} else {
		t.logger.Debug().
			Int("requests_left", left).
			Time("reset_at", state.ResetAt).
			Msg("Store API quota updated")
	}

	return nil
}

// Wait blocks until a request may be sent under the current quota.
// A failing store never blocks requests; the server's 429 is the backstop.
func (t *Tracker) Wait(ctx context.Context) error {
	state, err := t.GetState(ctx)
	if err != nil {
		t.logger.Warn().Err(err).Msg("Quota state unavailable, not pacing")
		return nil
	}

	// a state older than one window describes a window that has ended
	if state.Window > 0 && state.IsStale(state.Window) {
		t.logger.Debug().
			Time("last_update", state.LastUpdate).
			Dur("window", state.Window).
			Msg("Quota state outdated, not pacing")
		return nil
	}

	pause := state.Pause()
	if pause <= 0 {
		return nil
	}
	if t.maxPause > 0 && pause > t.maxPause {
		pause = t.maxPause
	}

	reason := "throttle"
	if state.Exhausted() {
		reason = "exhausted"
	}
	quotaWaitsTotal.WithLabelValues(reason).Inc()

	t.logger.Debug().
		Str("reason", reason).
		Int("requests_left", state.RequestsLeft).
		Dur("pause", pause).
		Msg("Holding request for quota")

	timer := time.NewTimer(pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

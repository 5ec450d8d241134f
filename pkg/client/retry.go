package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_retry_wait_seconds",
		Help:    "Wait before a retry by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retrying rate-limited requests.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// RetryAfterUnit is the duration of one Retry-After unit (seconds on the wire).
	RetryAfterUnit time.Duration

	// DefaultRetryAfter is used when the Retry-After header is missing or unparsable,
	// in RetryAfterUnit units.
	DefaultRetryAfter int

	// MaxWait caps a single wait regardless of what the server asks for.
	MaxWait time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		RetryAfterUnit:    time.Second,
		DefaultRetryAfter: 1,
		MaxWait:           60 * time.Second,
	}
}

// WaitFor returns how long to wait before retrying a response carrying headers.
func (rc RetryConfig) WaitFor(headers http.Header) time.Duration {
	units := rc.DefaultRetryAfter
	if v := strings.TrimSpace(headers.Get("Retry-After")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			units = n
		}
	}

	wait := time.Duration(units) * rc.RetryAfterUnit
	if rc.MaxWait > 0 && wait > rc.MaxWait {
		wait = rc.MaxWait
	}
	return wait
}

// retryableError marks an attempt that may be repeated after Wait.
type retryableError struct {
	Class ErrorClass
	Wait  time.Duration
	Err   error
}

func (e *retryableError) Error() string { return e.Err.Error() }

func (e *retryableError) Unwrap() error { return e.Err }

// retryWithBackoff runs fn until it succeeds, returns a non-retryable error,
// or MaxAttempts is reached. The wait between attempts is whatever the failed
// attempt asked for; it does not grow.
func retryWithBackoff(ctx context.Context, config RetryConfig, endpoint string, fn func(attempt int) error) error {
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var last *retryableError
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				log.Debug().
					Str("endpoint", endpoint).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		if !errors.As(err, &last) || !shouldRetry(last.Class) {
			return err
		}

		if attempt >= maxAttempts {
			break
		}

		retriesTotal.WithLabelValues(string(last.Class)).Inc()
		retryWaitSeconds.WithLabelValues(string(last.Class)).Observe(last.Wait.Seconds())

		log.Debug().
			Str("endpoint", endpoint).
			Str("error_class", string(last.Class)).
			Int("attempt", attempt).
			Dur("wait", last.Wait).
			Msg("Retrying request after server-requested delay")

		timer := time.NewTimer(last.Wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Msg("Context cancelled during retry wait")
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}

	retryExhaustedTotal.WithLabelValues(string(last.Class)).Inc()
	log.Warn().
		Str("endpoint", endpoint).
		Str("error_class", string(last.Class)).
		Int("max_attempts", maxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, maxAttempts, last.Err)
}

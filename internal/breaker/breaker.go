package breaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"fingreat/internal/logger"
	"fingreat/internal/metrics"
	"fingreat/internal/store"
)

const countInterval = 10 * time.Second

// New builds a ratio-tripping breaker for one downstream service.
// It returns nil when the breaker is disabled; callers treat nil as pass-through.
func New(name string, s store.BreakerSettings) *gobreaker.CircuitBreaker {
	if !s.Enabled {
		return nil
	}
	metrics.BreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.HalfOpenMaxRequests,
		Interval:    countInterval,
		Timeout:     time.Duration(s.OpenTimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
			logger.Warn(context.Background(), "Circuit breaker state changed",
				"service", name, "from", from.String(), "to", to.String())
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// Do runs fn through cb, or directly when cb is nil.
func Do[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	if cb == nil {
		return fn()
	}
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

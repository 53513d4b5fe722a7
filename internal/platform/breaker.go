package platform

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/metrics"
	"github.com/sakif/codeminder/internal/model"
)

// BreakerSettings configures WithBreaker. Zero values get defaults.
type BreakerSettings struct {
	MaxRequests  uint32        // probes allowed while half-open (default 1)
	Interval     time.Duration // closed-state count reset period (default 1m)
	Timeout      time.Duration // open -> half-open delay (default 30s)
	MinRequests  uint32        // requests before the ratio is considered (default 5)
	FailureRatio float64       // trip threshold (default 0.6)
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}
	return s
}

type breakerAdapter struct {
	next Adapter
	cb   *gobreaker.CircuitBreaker[*model.PlatformStats]
}

// WithBreaker wraps next in a circuit breaker. Unknown handles, bad input
// and caller cancellation do not count as failures; only upstream errors do.
// While the breaker is open Fetch fails fast with apperror.ErrUpstream.
func WithBreaker(next Adapter, s BreakerSettings, logger *slog.Logger) Adapter {
	s = s.withDefaults()
	name := string(next.Platform()) + "-api"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*model.PlatformStats](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, apperror.ErrNotFound) ||
				errors.Is(err, apperror.ErrValidation) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &breakerAdapter{next: next, cb: cb}
}

func (b *breakerAdapter) Platform() model.Platform { return b.next.Platform() }

func (b *breakerAdapter) Fetch(ctx context.Context, handle string) (*model.PlatformStats, error) {
	stats, err := b.cb.Execute(func() (*model.PlatformStats, error) {
		return b.next.Fetch(ctx, handle)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperror.Upstream(string(b.next.Platform()), err)
	}
	return stats, err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}

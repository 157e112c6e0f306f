// Package circuitbreaker adapts github.com/sony/gobreaker/v2 into a
// small generic wrapper matching the call pattern used across the
// chain, vat, oracle and peg adapters: construct once per RPC
// dependency, then Execute every call through it so a wedged node
// trips the breaker instead of cascading timeouts.
package circuitbreaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config controls breaker trip/reset behavior.
type Config struct {
	Name          string
	MaxRequests   uint32
	Interval      time.Duration
	Timeout       time.Duration
	FailureRatio  float64
	MinRequests   uint32
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns sane defaults: half-open after 30s, trips once
// 60% of at least 5 requests in a 60s window fail.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  5,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker[T].
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New constructs a breaker from cfg.
func New[T any](cfg Config) *CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			cfg.OnStateChange(name, from, to)
		}
	}
	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker, returning gobreaker's sentinel
// errors (ErrOpenState / ErrTooManyRequests) when the breaker itself
// refuses the call.
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	return c.cb.Execute(fn)
}

// ExecuteCtx is Execute with an early-out if ctx is already done,
// matching the ctx-first convention used by the rest of the adapters
// even though gobreaker itself is not context-aware.
func (c *CircuitBreaker[T]) ExecuteCtx(ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	return c.cb.Execute(fn)
}

// State returns the current breaker state.
func (c *CircuitBreaker[T]) State() gobreaker.State {
	return c.cb.State()
}

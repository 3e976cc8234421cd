// Package resilience wraps outbound HTTP calls to upstream providers with a
// per-call timeout and a circuit breaker. Calls are attempted exactly once.
package resilience

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds configuration for the circuit breaker.
type BreakerConfig struct {
	// Name identifies the breaker in logs and the provider registry.
	Name string

	// MaxRequests is the number of probe requests allowed while half-open.
	MaxRequests uint32

	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration

	// MinRequests is the minimum request volume before the breaker may trip.
	MinRequests uint32

	// FailureRatio trips the breaker once reached (0 < ratio <= 1).
	FailureRatio float64

	// OnStateChange is called when the breaker changes state.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultBreakerConfig trips after 10 requests with at least 60% failures
// and probes again after 30 seconds.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		OpenTimeout:  30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// ReadyToTrip returns the trip predicate for this configuration.
func (c BreakerConfig) ReadyToTrip() func(counts gobreaker.Counts) bool {
	minRequests := c.MinRequests
	ratio := c.FailureRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.6
	}
	return func(counts gobreaker.Counts) bool {
		if counts.Requests < minRequests || counts.Requests == 0 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
	}
}

func newBreaker[T any](cfg BreakerConfig) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: cfg.ReadyToTrip(),
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}
	return gobreaker.NewCircuitBreaker[T](settings)
}

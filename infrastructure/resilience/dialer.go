// Package resilience guards feed connections with retry, circuit breaking
// and a concurrency limit using fortify.
package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// Dialer establishes connections of type T with resilience patterns applied.
type Dialer[T any] struct {
	bulkhead bulkhead.Bulkhead[T]
	breaker  circuitbreaker.CircuitBreaker[T]
	retry    retry.Retry[T]
	timeout  time.Duration
}

// Config configures a resilient dialer.
type Config struct {
	// MaxConcurrent limits concurrent dial attempts.
	MaxConcurrent int

	// CircuitBreakerThreshold is the number of consecutive failed dial
	// cycles before the breaker opens.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration

	// RetryMaxAttempts is the maximum number of attempts per dial cycle.
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between attempts.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// DialTimeout bounds one whole dial cycle, retries included.
	DialTimeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:           1,
		CircuitBreakerThreshold: 3,
		CircuitBreakerTimeout:   30 * time.Second,
		RetryMaxAttempts:        5,
		RetryInitialDelay:       200 * time.Millisecond,
		RetryBackoffMultiplier:  2.0,
		DialTimeout:             30 * time.Second,
	}
}

// NewDialer creates a new resilient dialer.
func NewDialer[T any](config Config) *Dialer[T] {
	// Ensure non-negative values for uint32 conversion (G115 fix)
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	threshold := config.CircuitBreakerThreshold
	if threshold <= 0 {
		threshold = 3
	}
	attempts := config.RetryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	multiplier := config.RetryBackoffMultiplier
	if multiplier < 1 {
		multiplier = 2.0
	}
	timeout := config.DialTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Dialer[T]{
		bulkhead: bulkhead.New[T](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		breaker: circuitbreaker.New[T](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    config.CircuitBreakerTimeout,
			Timeout:     config.CircuitBreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[T](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    multiplier,
		}),
		timeout: timeout,
	}
}

// Dial runs dial with resilience patterns applied.
// Composition order: Bulkhead → Timeout → Circuit Breaker → Retry.
// The breaker counts whole dial cycles, so one exhausted retry loop is one
// failure.
func (d *Dialer[T]) Dial(ctx context.Context, dial func(context.Context) (T, error)) (T, error) {
	return d.bulkhead.Execute(ctx, func(ctx context.Context) (T, error) {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		return d.breaker.Execute(ctx, func(ctx context.Context) (T, error) {
			return d.retry.Do(ctx, dial)
		})
	})
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (d *Dialer[T]) CircuitBreakerState() circuitbreaker.State {
	return d.breaker.State()
}

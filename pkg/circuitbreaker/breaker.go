package circuitbreaker

import (
	"time"

	"github.com/angelmondragon/vitrine-checkout/pkg/config"
	"github.com/sony/gobreaker/v2"
)

// ErrOpen is returned while the breaker refuses calls.
var ErrOpen = gobreaker.ErrOpenState

// ErrTooManyRequests is returned when the half-open probe budget is spent.
var ErrTooManyRequests = gobreaker.ErrTooManyRequests

// StateListener is notified whenever a breaker changes state.
type StateListener func(name string, open bool)

// New builds a typed breaker for one upstream. Errors for which ignore returns
// true count as successes, so client-side rejections never trip the breaker.
func New[T any](name string, cfg config.BreakerConfig, ignore func(error) bool, listener StateListener) *gobreaker.CircuitBreaker[T] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return ignore != nil && ignore(err)
		},
	}
	if listener != nil {
		settings.OnStateChange = func(name string, _ gobreaker.State, to gobreaker.State) {
			listener(name, to == gobreaker.StateOpen)
		}
	}
	return gobreaker.NewCircuitBreaker[T](settings)
}

// IsOpen reports whether err came from a breaker refusing the call.
func IsOpen(err error) bool {
	return err == ErrOpen || err == ErrTooManyRequests
}

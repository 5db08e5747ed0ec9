package upstream

import (
	"golang.org/x/time/rate"
)

// NewLocalLimiter returns a process-wide token bucket refilled at rps
// tokens per second holding at most burst tokens. *rate.Limiter is safe
// for concurrent use and satisfies Limiter.
func NewLocalLimiter(rps float64, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

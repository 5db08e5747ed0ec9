package upstream

import (
	"math"
	"math/rand/v2"
	"time"
)

// minBackoff keeps retries from busy-looping when the jitter draws near 0.
const minBackoff = 100 * time.Millisecond

type backoff struct {
	base    time.Duration
	ceiling time.Duration
	rand    func() float64
}

func newBackoff(base, ceiling time.Duration) backoff {
	return backoff{base: base, ceiling: ceiling, rand: rand.Float64}
}

// delay returns the wait before retry n (1-based) using exponential backoff
// with full jitter: random(0, min(ceiling, base * 2^(n-1))).
func (b backoff) delay(n int) time.Duration {
	exp := float64(b.base) * math.Pow(2, float64(n-1))
	if exp > float64(b.ceiling) {
		exp = float64(b.ceiling)
	}
	d := time.Duration(b.rand() * exp)
	if d < minBackoff {
		d = minBackoff
	}
	return d
}

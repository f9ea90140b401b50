package retry

import (
	"math"
	"math/rand"
	"time"
)

type backoff struct {
	initial    time.Duration
	multiplier float64
	max        time.Duration
}

// delay returns initial * multiplier^(attempt-1), capped at max
func (b backoff) delay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	d := float64(b.initial) * math.Pow(b.multiplier, float64(attempt-1))
	if d > float64(b.max) || math.IsInf(d, 0) {
		return b.max
	}
	return time.Duration(d)
}

// JitterFunc jitter function type
type JitterFunc func(time.Duration) time.Duration

// FullJitter full jitter function - random within [0, delay) range
func FullJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(delay)))
}

// EqualJitter equal jitter function - delay/2 + random(0, delay/2)
func EqualJitter(delay time.Duration) time.Duration {
	if delay <= 1 {
		return delay
	}
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)))
}

// ProportionalJitter returns a jitter that moves the delay by up to
// factor*delay in either direction
func ProportionalJitter(factor float64) JitterFunc {
	if factor <= 0 || factor > 1 {
		factor = 0.1
	}
	return func(delay time.Duration) time.Duration {
		if delay <= 0 {
			return 0
		}
		spread := float64(delay) * factor
		result := delay + time.Duration((rand.Float64()-0.5)*2*spread)
		if result < 0 {
			result = delay / 2
		}
		return result
	}
}

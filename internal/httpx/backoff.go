package httpx

import "time"

// BackoffPolicy maps a retry attempt number to a wait duration. It is a
// pure value; the retry driver owns the sleeping.
type BackoffPolicy struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait before retrying attempt (counted from 0). A
// positive hint, such as an upstream Retry-After, always wins over the
// computed exponential value.
func (p BackoffPolicy) Delay(attempt int, hint time.Duration) time.Duration {
	if hint > 0 {
		return hint
	}
	base := p.Base
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	max := p.Max
	if max <= 0 {
		max = 8 * time.Second
	}
	if attempt < 0 {
		attempt = 0
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

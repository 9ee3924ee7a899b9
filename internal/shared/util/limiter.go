package util

import (
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter to provide a simpler interface.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a token bucket limiter.
// r: tokens per second; r <= 0 means unlimited.
// b: burst size.
func NewLimiter(r float64, b int) *Limiter {
	limit := rate.Limit(r)
	if r <= 0 {
		limit = rate.Inf
	}
	if b <= 0 {
		b = 1
	}
	return &Limiter{
		inner: rate.NewLimiter(limit, b),
	}
}

// AllowAt reports whether one event may happen at the given instant.
// A nil limiter allows everything.
func (l *Limiter) AllowAt(now time.Time) bool {
	if l == nil {
		return true
	}
	return l.inner.AllowN(now, 1)
}

// Package ratelimit implements the fixed-window daily caps applied to paid
// provider calls. Windows roll over at UTC midnight.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter counts requests against a per-UTC-day cap. A nil Limiter allows
// everything, so optional caps need no call-site guards.
type Limiter struct {
	mu    sync.Mutex
	cap   int
	day   string
	count int
	now   func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Tests use this to control window
// rollover.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Limiter with the given daily cap. A cap of zero or less
// means unlimited.
func New(dailyCap int, opts ...Option) *Limiter {
	limiter := &Limiter{cap: dailyCap, now: time.Now}
	for _, opt := range opts {
		opt(limiter)
	}
	return limiter
}

// Allow consumes one slot from today's window and reports whether the call
// may proceed. Denied calls consume nothing.
func (l *Limiter) Allow() bool {
	if l == nil || l.cap <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll()
	if l.count >= l.cap {
		return false
	}
	l.count++
	return true
}

// Remaining reports how many slots are left in today's window. Unlimited
// limiters report -1.
func (l *Limiter) Remaining() int {
	if l == nil || l.cap <= 0 {
		return -1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll()
	remaining := l.cap - l.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (l *Limiter) roll() {
	today := l.now().UTC().Format("2006-01-02")
	if today != l.day {
		l.day = today
		l.count = 0
	}
}

package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestAllowEnforcesCap(t *testing.T) {
	limiter := New(2)
	if !limiter.Allow() || !limiter.Allow() {
		t.Fatal("first two calls should pass")
	}
	if limiter.Allow() {
		t.Fatal("third call should be denied")
	}
	if got := limiter.Remaining(); got != 0 {
		t.Fatalf("Remaining = %d, want 0", got)
	}
}

func TestWindowRollsAtUTCMidnight(t *testing.T) {
	current := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	limiter := New(1, WithClock(func() time.Time { return current }))

	if !limiter.Allow() {
		t.Fatal("first call should pass")
	}
	if limiter.Allow() {
		t.Fatal("cap reached, call should be denied")
	}

	current = current.Add(2 * time.Minute)
	if !limiter.Allow() {
		t.Fatal("new UTC day should reset the window")
	}
}

func TestUnlimitedAndNil(t *testing.T) {
	var nilLimiter *Limiter
	if !nilLimiter.Allow() {
		t.Fatal("nil limiter should allow")
	}
	if nilLimiter.Remaining() != -1 {
		t.Fatal("nil limiter should report -1 remaining")
	}
	unlimited := New(0)
	for i := 0; i < 100; i++ {
		if !unlimited.Allow() {
			t.Fatal("unlimited limiter should always allow")
		}
	}
}

func TestAllowConcurrent(t *testing.T) {
	limiter := New(50)
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 50 {
		t.Fatalf("allowed %d calls, want exactly 50", allowed)
	}
}

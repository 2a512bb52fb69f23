package main

import (
	"sync"
	"time"
)

type rateWindow struct {
	count int
	reset time.Time
}

// RateLimiter counts submissions per hostname in fixed windows.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]rateWindow
}

// NewRateLimiter allows limit requests per key and window. A limit of zero
// or less disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		entries: make(map[string]rateWindow),
	}
}

// Allow returns true if key may proceed and counts the attempt.
func (rl *RateLimiter) Allow(key string) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.entries[key]
	if !ok || !now.Before(rec.reset) {
		rl.prune(now)
		rec = rateWindow{reset: now.Add(rl.window)}
	}
	if rec.count >= rl.limit {
		return false
	}
	rec.count++
	rl.entries[key] = rec
	return true
}

// prune drops expired windows so hostnames that stop reporting are forgotten.
func (rl *RateLimiter) prune(now time.Time) {
	for key, rec := range rl.entries {
		if !now.Before(rec.reset) {
			delete(rl.entries, key)
		}
	}
}

func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}

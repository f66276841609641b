package http

import (
	"sync"
	"time"
)

// JoinRateLimiter caps join submissions per client token within a sliding
// window. Only well-formed joins are counted; the handler validates first.
type JoinRateLimiter struct {
	mu       sync.Mutex
	history  map[string][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
	lastGC   time.Time
}

func NewJoinRateLimiter(limit int, interval time.Duration) *JoinRateLimiter {
	return &JoinRateLimiter{
		history:  make(map[string][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

// Allow records a join attempt for token. When the window is full it
// returns false and how long until the oldest attempt expires.
func (rl *JoinRateLimiter) Allow(token string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.gc(now)

	fresh := rl.fresh(token, now)
	if len(fresh) > 0 && len(fresh) >= rl.limit {
		rl.history[token] = fresh
		return false, fresh[0].Add(rl.interval).Sub(now)
	}
	rl.history[token] = append(fresh, now)
	return true, 0
}

// Tracked is the number of client tokens with attempts still in the window.
func (rl *JoinRateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.history)
}

func (rl *JoinRateLimiter) fresh(token string, now time.Time) []time.Time {
	windowStart := now.Add(-rl.interval)
	attempts := rl.history[token]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	return fresh
}

// gc drops tokens whose attempts all left the window, at most once per window.
func (rl *JoinRateLimiter) gc(now time.Time) {
	if now.Sub(rl.lastGC) < rl.interval {
		return
	}
	rl.lastGC = now
	for token := range rl.history {
		if len(rl.fresh(token, now)) == 0 {
			delete(rl.history, token)
		}
	}
}

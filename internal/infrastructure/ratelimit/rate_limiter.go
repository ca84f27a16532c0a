package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionCreateListing     = "create_listing"
	ActionSubmitOffer       = "submit_offer"
	ActionSendMessage       = "send_message"
	ActionStartConversation = "start_conversation"
	ActionAuth              = "auth"
)

// Policy is a token bucket: Burst tokens, refilled one every Every.
type Policy struct {
	Burst int
	Every time.Duration
}

// PerMinute spreads n tokens evenly over a minute.
func PerMinute(n int) Policy {
	if n <= 0 {
		n = 1
	}
	return Policy{Burst: n, Every: time.Minute / time.Duration(n)}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one bucket per key and action.
type RateLimiter struct {
	policies map[string]Policy
	fallback Policy
	buckets  map[string]*bucket
	mutex    sync.Mutex
	now      func() time.Time
}

func NewRateLimiter(fallback Policy, policies map[string]Policy) *RateLimiter {
	if policies == nil {
		policies = map[string]Policy{}
	}
	return &RateLimiter{
		policies: policies,
		fallback: fallback,
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

// DefaultPolicies returns the per-action limits used by the API.
func DefaultPolicies(authPerMinute int) map[string]Policy {
	return map[string]Policy{
		ActionCreateListing:     {Burst: 5, Every: 12 * time.Second},
		ActionSubmitOffer:       {Burst: 10, Every: 6 * time.Second},
		ActionSendMessage:       {Burst: 10, Every: 6 * time.Second},
		ActionStartConversation: {Burst: 5, Every: 12 * time.Minute},
		ActionAuth:              PerMinute(authPerMinute),
	}
}

// Allow consumes a token for key and action. When none is available it
// returns how long until one is.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	now := rl.now()
	b := rl.bucketFor(key, action, now)

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) bucketFor(key, action string, now time.Time) *bucket {
	id := key + ":" + action

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	b, ok := rl.buckets[id]
	if !ok {
		policy, ok := rl.policies[action]
		if !ok {
			policy = rl.fallback
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Every(policy.Every), policy.Burst)}
		rl.buckets[id] = b
	}
	b.lastSeen = now
	return b
}

// Cleanup removes buckets idle for longer than idle.
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	now := rl.now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	for id, b := range rl.buckets {
		if now.Sub(b.lastSeen) > idle {
			delete(rl.buckets, id)
		}
	}
}

// StartCleanupRoutine runs Cleanup every interval until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}

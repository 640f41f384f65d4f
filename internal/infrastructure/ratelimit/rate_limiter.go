package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage = "send_message"
	ActionCreateChat  = "create_chat"
	ActionTyping      = "typing"
	ActionHTTP        = "http"
)

// Policy is a token bucket: Burst tokens, one refilled every Every.
type Policy struct {
	Every time.Duration
	Burst int
}

// DefaultPolicies maps actions to their buckets. Unknown actions use the "" entry.
var DefaultPolicies = map[string]Policy{
	// 10 messages per minute
	ActionSendMessage: {Every: 6 * time.Second, Burst: 10},
	// 5 chat creations per hour
	ActionCreateChat: {Every: 12 * time.Minute, Burst: 5},
	// 30 typing events per minute
	ActionTyping: {Every: 2 * time.Second, Burst: 30},
	// 60 requests per minute per IP
	ActionHTTP: {Every: time.Second, Burst: 60},
	"":         {Every: 3 * time.Second, Burst: 20},
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one bucket per key and action.
type RateLimiter struct {
	policies map[string]Policy
	buckets  map[string]*bucket
	mutex    sync.Mutex
	now      func() time.Time
}

func NewRateLimiter(policies map[string]Policy) *RateLimiter {
	if policies == nil {
		policies = DefaultPolicies
	}
	return &RateLimiter{
		policies: policies,
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

// Allow consumes a token for key and action. When the bucket is empty it
// returns false and how long until the next token. A nil limiter allows everything.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	if rl == nil {
		return true, 0
	}
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
			policy = rl.policies[""]
		}
		if policy.Burst <= 0 {
			policy = DefaultPolicies[""]
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Every(policy.Every), policy.Burst)}
		rl.buckets[id] = b
	}
	b.lastSeen = now
	return b
}

// Cleanup removes buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for id, b := range rl.buckets {
		if now.Sub(b.lastSeen) > maxIdle {
			delete(rl.buckets, id)
		}
	}
}

func (rl *RateLimiter) Size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.buckets)
}

// StartCleanupRoutine evicts idle buckets every 30 minutes until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
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

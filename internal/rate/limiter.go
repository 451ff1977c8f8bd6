package rate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key fits in its budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// KeyedLimiter keeps one in-memory token bucket per key.
type KeyedLimiter struct {
	mu              sync.Mutex
	rate            rate.Limit
	burst           int
	items           map[string]*keyedEntry
	idleTTL         time.Duration
	lastCleanup     time.Time
	cleanupInterval time.Duration
	now             func() time.Time
}

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows perMinute requests per key per minute on average,
// with bursts up to perMinute.
func NewKeyedLimiter(perMinute int) *KeyedLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &KeyedLimiter{
		rate:            rate.Every(time.Minute / time.Duration(perMinute)),
		burst:           perMinute,
		items:           make(map[string]*keyedEntry),
		idleTTL:         10 * time.Minute,
		lastCleanup:     time.Now(),
		cleanupInterval: time.Minute,
		now:             time.Now,
	}
}

func (l *KeyedLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybeCleanup(now)

	entry, ok := l.items[key]
	if !ok {
		entry = &keyedEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.items[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1), nil
}

// maybeCleanup drops buckets that have been idle for idleTTL.
func (l *KeyedLimiter) maybeCleanup(now time.Time) {
	if l.cleanupInterval <= 0 {
		return
	}
	if !l.lastCleanup.IsZero() && now.Sub(l.lastCleanup) < l.cleanupInterval {
		return
	}
	for key, entry := range l.items {
		if now.Sub(entry.lastSeen) >= l.idleTTL {
			delete(l.items, key)
		}
	}
	l.lastCleanup = now
}

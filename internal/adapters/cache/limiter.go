package cache

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/pulse/pkg/logger"
)

// Decision is the outcome of one budget check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter enforces a fixed-window request budget per client using the
// INCR, EXPIRE-on-first and TTL operations of a Store.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
	prefix string
	clock  clockwork.Clock
	log    logger.Logger
}

// NewLimiter creates a Limiter allowing max requests per window. It returns
// nil when store is nil or max is not positive; a nil Limiter allows all.
func NewLimiter(store Store, max int, window time.Duration, opts ...LimiterOption) *Limiter {
	if store == nil || max <= 0 {
		return nil
	}
	if window <= 0 {
		window = defaultWindow
	}
	l := &Limiter{
		store:  store,
		max:    max,
		window: window,
		prefix: "ratelimit",
		clock:  clockwork.NewRealClock(),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow counts one request for client. Store failures let the request
// through.
func (l *Limiter) Allow(ctx context.Context, client string) Decision {
	if l == nil {
		return Decision{Allowed: true, Remaining: -1}
	}
	now := l.clock.Now()
	key := l.prefix + ":" + client + ":count"

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		l.log.Warn(ctx, "rate limit counter unavailable", logger.String("key", key), logger.Error(err))
		return Decision{Allowed: true, Remaining: l.max, ResetAt: now.Add(l.window)}
	}
	if count == 1 {
		if err := l.store.Expire(ctx, key, l.window); err != nil {
			l.log.Warn(ctx, "rate limit expire failed", logger.String("key", key), logger.Error(err))
		}
	}

	resetAt := now.Add(l.window)
	ttl, err := l.store.TTL(ctx, key)
	switch {
	case err != nil:
	case ttl > 0:
		resetAt = now.Add(ttl)
	default:
		// The counter has no expiry, so an earlier EXPIRE was lost. Re-arm
		// the window or the client stays blocked forever.
		if err := l.store.Expire(ctx, key, l.window); err != nil {
			l.log.Warn(ctx, "rate limit expire failed", logger.String("key", key), logger.Error(err))
		}
	}

	if count > int64(l.max) {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}
	return Decision{Allowed: true, Remaining: l.max - int(count), ResetAt: resetAt}
}

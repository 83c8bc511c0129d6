package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

// Fixed lifetimes per keyspace. The combined view is the shortest so fresh
// source data reaches it quickly; Strava is the longest because a rebuild
// walks every activity page.
const (
	GithubTTL   = time.Hour
	StravaTTL   = 6 * time.Hour
	OsrsTTL     = 2 * time.Hour
	CombinedTTL = 30 * time.Minute
)

// Keyspaces used for metrics labels.
const (
	KeyspaceGithub   = "github"
	KeyspaceStrava   = "strava"
	KeyspaceOsrs     = "osrs"
	KeyspaceCombined = "combined"
	KeyspaceToken    = "token"
)

// Cache operation results.
const (
	resultHit      = "hit"
	resultMiss     = "miss"
	resultError    = "error"
	resultDisabled = "disabled"
)

// SourceKey builds the key for one source's year: activity:<source>:<identity>:<year>.
func SourceKey(source, identity string, year int) string {
	return fmt.Sprintf("activity:%s:%s:%d", source, strings.ToLower(identity), year)
}

// CombinedKey builds the key for the aggregated year.
func CombinedKey(year int) string {
	return fmt.Sprintf("activity:combined:%d", year)
}

// TokenKey builds the key holding the Strava access token for an athlete.
func TokenKey(athleteID string) string {
	return "strava:token:" + athleteID
}

// Policy applies read-through caching on a Store. A Policy without a store
// passes every call straight to the fetcher.
type Policy struct {
	store Store
	log   logger.Logger
}

// NewPolicy creates a Policy over store. store may be nil.
func NewPolicy(store Store, opts ...Option) *Policy {
	p := &Policy{store: store, log: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enabled reports whether a backend is configured.
func (p *Policy) Enabled() bool {
	return p != nil && p.store != nil
}

// Store returns the underlying store, nil when disabled.
func (p *Policy) Store() Store {
	if p == nil {
		return nil
	}
	return p.store
}

// Load decodes the value at key into dst. Backend failures and undecodable
// payloads are logged and reported as a miss.
func (p *Policy) Load(ctx context.Context, keyspace, key string, dst any) bool {
	if !p.Enabled() {
		metrics.RecordCacheOperation(keyspace, resultDisabled)
		return false
	}
	raw, ok, err := p.store.Get(ctx, key)
	if err != nil {
		p.log.Warn(ctx, "cache read failed",
			logger.String("key", key),
			logger.Error(err))
		metrics.RecordCacheOperation(keyspace, resultError)
		return false
	}
	if !ok {
		metrics.RecordCacheOperation(keyspace, resultMiss)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		p.log.Warn(ctx, "cache payload undecodable",
			logger.String("key", key),
			logger.Error(err))
		metrics.RecordCacheOperation(keyspace, resultError)
		return false
	}
	metrics.RecordCacheOperation(keyspace, resultHit)
	return true
}

// Save encodes v under key for ttl. Failures are logged and dropped.
func (p *Policy) Save(ctx context.Context, key string, v any, ttl time.Duration) {
	if !p.Enabled() {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		p.log.Warn(ctx, "cache encode failed", logger.String("key", key), logger.Error(err))
		return
	}
	if err := p.store.Set(ctx, key, raw, ttl); err != nil {
		p.log.Warn(ctx, "cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// Through returns the cached value at key, or calls fetch and stores its
// result for ttl. The bool is true when the value came from the cache.
// Errors from fetch are returned as is and never cached.
func Through[T any](ctx context.Context, p *Policy, keyspace, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, bool, error) {
	var cached T
	if p.Load(ctx, keyspace, key, &cached) {
		return cached, true, nil
	}
	if p != nil && !p.Enabled() {
		p.log.Debug(ctx, "cache disabled, fetching directly", logger.String("key", key))
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	p.Save(ctx, key, v, ttl)
	return v, false, nil
}

package strava

import (
	"github.com/jonboulle/clockwork"
	"github.com/okian/pulse/internal/adapters/cache"
	"github.com/okian/pulse/internal/adapters/sources/upstream"
	"github.com/okian/pulse/pkg/logger"
	"golang.org/x/time/rate"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithAPIBase overrides the REST API root.
func WithAPIBase(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.apiBase = base
		}
	}
}

// WithPagesPerSecond paces page requests. Non-positive values disable pacing.
func WithPagesPerSecond(n float64) Option {
	return func(c *Client) {
		if n <= 0 {
			c.pager = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.pager = rate.NewLimiter(rate.Limit(n), 1)
	}
}

// WithUpstream sets the HTTP client used for API requests.
func WithUpstream(u *upstream.Client) Option {
	return func(c *Client) {
		if u != nil {
			c.http = u
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// TokenOption applies a configuration option to the TokenManager.
type TokenOption func(*TokenManager)

// WithOAuthBase overrides the host of the OAuth endpoints.
func WithOAuthBase(base string) TokenOption {
	return func(m *TokenManager) {
		if base != "" {
			m.oauthBase = base
		}
	}
}

// WithPolicy sets the cache holding access tokens.
func WithPolicy(p *cache.Policy) TokenOption {
	return func(m *TokenManager) {
		m.policy = p
	}
}

// WithClock sets the clock used for expiry checks.
func WithClock(c clockwork.Clock) TokenOption {
	return func(m *TokenManager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithTokenUpstream sets the HTTP client used for OAuth requests.
func WithTokenUpstream(u *upstream.Client) TokenOption {
	return func(m *TokenManager) {
		if u != nil {
			m.http = u
		}
	}
}

// WithTokenLogger sets the token manager logger.
func WithTokenLogger(l logger.Logger) TokenOption {
	return func(m *TokenManager) {
		if l != nil {
			m.log = l
		}
	}
}

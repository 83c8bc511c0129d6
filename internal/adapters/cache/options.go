package cache

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/pulse/pkg/logger"
)

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithLogger sets the logger used to report degraded cache operations.
func WithLogger(l logger.Logger) Option {
	return func(p *Policy) {
		if l != nil {
			p.log = l
		}
	}
}

// LimiterOption applies a configuration option to the Limiter.
type LimiterOption func(*Limiter)

// WithLimiterClock sets the clock used to compute reset times.
func WithLimiterClock(c clockwork.Clock) LimiterOption {
	return func(l *Limiter) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithLimiterPrefix sets the key prefix for counters.
func WithLimiterPrefix(prefix string) LimiterOption {
	return func(l *Limiter) {
		if prefix != "" {
			l.prefix = prefix
		}
	}
}

// WithLimiterLogger sets the limiter logger.
func WithLimiterLogger(log logger.Logger) LimiterOption {
	return func(l *Limiter) {
		if log != nil {
			l.log = log
		}
	}
}

// defaultWindow applies when a limiter is created with a non-positive window.
const defaultWindow = 60 * time.Second

package api

import (
	"github.com/okian/pulse/internal/adapters/cache"
	"github.com/okian/pulse/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLimiter enables the per-client request budget on /api routes.
func WithLimiter(l *cache.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithTrustedProxy keys the request budget on X-Forwarded-For and X-Real-IP.
// Only enable it when a proxy in front overwrites those headers.
func WithTrustedProxy(trust bool) Option {
	return func(s *Server) {
		s.trustProxy = trust
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

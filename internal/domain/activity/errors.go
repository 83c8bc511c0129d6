package activity

import (
	"context"
	"errors"
	"net"
)

// Sentinel error kinds. Adapters wrap these so callers can classify failures
// with errors.Is.
var (
	ErrInvalidYear   = errors.New("invalid year")
	ErrNotConfigured = errors.New("source not configured")
	ErrUpstream      = errors.New("upstream error")
)

// Failure kinds reported in logs and metrics.
const (
	KindNotConfigured = "not_configured"
	KindTimeout       = "timeout"
	KindCanceled      = "canceled"
	KindUpstream      = "upstream"
	KindUnknown       = "unknown"
)

// FailureKind maps an adapter error to a coarse kind.
func FailureKind(err error) string {
	var netErr net.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return KindNotConfigured
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	default:
		return KindUnknown
	}
}

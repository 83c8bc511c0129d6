package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrInvalidKey = errors.New("invalid cache key")
	ErrInvalidTTL = errors.New("invalid cache ttl")
)

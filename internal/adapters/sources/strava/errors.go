package strava

import "errors"

// Sentinel kinds for Strava errors.
var (
	ErrTokenRefresh  = errors.New("strava token refresh failed")
	ErrCodeExchange  = errors.New("strava code exchange failed")
	ErrMissingCode   = errors.New("missing authorization code")
	ErrMissingClient = errors.New("strava client id not configured")
)

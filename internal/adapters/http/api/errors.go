package api

import "errors"

// ErrBadYear reports a year query parameter that is not a number.
var ErrBadYear = errors.New("invalid year")

// Messages returned to clients.
const (
	msgInvalidYear      = "Invalid year"
	msgGithubNotSetUp   = "GitHub token not configured"
	msgStravaNotSetUp   = "Strava not configured or token refresh failed"
	msgTooManyRequests  = "Too many requests, please try again later"
	msgMissingCode      = "Missing authorization code"
	msgStravaSetup      = "Strava API setup required: set ACTIVITY_STRAVA_CLIENT_ID and ACTIVITY_STRAVA_CLIENT_SECRET, then visit /api/strava/auth again"
	msgStravaExchange   = "Token exchange failed"
	msgStravaAuthFailed = "Authorization failed"
)

// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Redis backs the cache. An empty address disables caching.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	GithubToken    string `koanf:"github_token"`
	GithubUsername string `koanf:"github_username"`
	GithubEndpoint string `koanf:"github_endpoint"`

	StravaClientID       string  `koanf:"strava_client_id"`
	StravaClientSecret   string  `koanf:"strava_client_secret"`
	StravaRefreshToken   string  `koanf:"strava_refresh_token"`
	StravaAthleteID      string  `koanf:"strava_athlete_id"`
	StravaAPIBase        string  `koanf:"strava_api_base"`
	StravaOAuthBase      string  `koanf:"strava_oauth_base"`
	StravaPagesPerSecond float64 `koanf:"strava_pages_per_second"`

	OsrsUsername string `koanf:"osrs_username"`
	OsrsAPIKey   string `koanf:"osrs_api_key"`
	OsrsAPIBase  string `koanf:"osrs_api_base"`

	// UpstreamTimeoutMS bounds each outbound HTTP call.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`
	// SourceTimeoutMS bounds one source inside a combined fetch, pagination included.
	SourceTimeoutMS int `koanf:"source_timeout_ms"`

	// RateLimitMax requests per RateLimitWindowSeconds per client; 0 disables.
	RateLimitMax           int `koanf:"rate_limit_max"`
	RateLimitWindowSeconds int `koanf:"rate_limit_window_seconds"`
	// TrustProxy identifies clients by X-Forwarded-For / X-Real-IP. Set it
	// only when a reverse proxy in front rewrites those headers.
	TrustProxy bool `koanf:"trust_proxy"`

	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":8080",
		GithubUsername:         "austinmrobinson",
		GithubEndpoint:         "https://api.github.com/graphql",
		StravaAthleteID:        "13603808",
		StravaAPIBase:          "https://www.strava.com/api/v3",
		StravaOAuthBase:        "https://www.strava.com",
		StravaPagesPerSecond:   10,
		OsrsUsername:           "maximvs597",
		OsrsAPIBase:            "https://api.wiseoldman.net/v2",
		UpstreamTimeoutMS:      10_000,
		SourceTimeoutMS:        20_000,
		RateLimitMax:           60,
		RateLimitWindowSeconds: 60,
		ShutdownTimeoutMS:      10_000,
	}
}

// UpstreamTimeout returns UpstreamTimeoutMS as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// SourceTimeout returns SourceTimeoutMS as a duration.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutMS) * time.Millisecond
}

// RateLimitWindow returns RateLimitWindowSeconds as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

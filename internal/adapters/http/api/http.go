// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/pulse/internal/adapters/cache"
	"github.com/okian/pulse/internal/adapters/http/swagger"
	"github.com/okian/pulse/internal/adapters/sources/strava"
	"github.com/okian/pulse/internal/domain/activity"
	"github.com/okian/pulse/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	FetchGithub(ctx context.Context, year int) (activity.GithubYear, bool, error)
	FetchStrava(ctx context.Context, year int) (activity.StravaYear, bool, error)
	FetchOsrs(ctx context.Context, year int) (activity.OsrsYear, bool, error)
	FetchCombined(ctx context.Context, year int) (activity.Year, bool, error)

	CacheEnabled() bool
	CurrentYear() int
}

// StravaOAuth runs the one-time authorization flow that yields a refresh token.
type StravaOAuth interface {
	AuthorizeURL(redirectURI string) (string, error)
	ExchangeCode(ctx context.Context, code string) (strava.Authorization, error)
}

// Server wires HTTP routes for the activity API.
type Server struct {
	activityHandler *ActivityHandler
	stravaHandler   *StravaHandler
	healthHandler   *HealthHandler
	limiter         *cache.Limiter
	trustProxy      bool
	logger          logger.Logger
}

// NewServer creates a new API server with all handlers. oauth may be nil.
func NewServer(deps Dependencies, oauth StravaOAuth, opts ...Option) *Server {
	s := &Server{
		activityHandler: NewActivityHandler(deps),
		stravaHandler:   NewStravaHandler(oauth),
		healthHandler:   NewHealthHandler(deps),
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	limit := func(next http.HandlerFunc) http.HandlerFunc {
		return RateLimitMiddleware(s.limiter, s.trustProxy, next)
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/api/activity", MetricsMiddleware(limit(s.activityHandler.HandleCombined), "activity"))
	mux.HandleFunc("/api/activity/github", MetricsMiddleware(limit(s.activityHandler.HandleGithub), "activity_github"))
	mux.HandleFunc("/api/activity/strava", MetricsMiddleware(limit(s.activityHandler.HandleStrava), "activity_strava"))
	mux.HandleFunc("/api/activity/osrs", MetricsMiddleware(limit(s.activityHandler.HandleOsrs), "activity_osrs"))
	mux.HandleFunc("/api/strava/auth", MetricsMiddleware(limit(s.stravaHandler.HandleAuth), "strava_auth"))
	mux.HandleFunc("/api/strava/callback", MetricsMiddleware(limit(s.stravaHandler.HandleCallback), "strava_callback"))
	swagger.Register(mux)
}

// Handler returns the registered routes wrapped with request ids.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return RequestIDMiddleware(s.logger, mux)
}

// envelope is the response shape of every API route.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Cached  *bool  `json:"cached,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any, cached bool) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Cached: &cached})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// parseYear reads ?year=, defaulting to the current year.
func parseYear(r *http.Request, current int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return current, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrBadYear
	}
	return year, nil
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadYear), errors.Is(err, activity.ErrInvalidYear):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

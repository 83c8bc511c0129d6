package api

import (
	"errors"
	"net/http"

	"github.com/okian/pulse/internal/adapters/sources/strava"
)

// callbackPath is where Strava sends the athlete after consent.
const callbackPath = "/api/strava/callback"

// StravaHandler serves the OAuth bootstrap routes.
type StravaHandler struct {
	oauth StravaOAuth
}

// NewStravaHandler creates a new Strava OAuth handler.
func NewStravaHandler(oauth StravaOAuth) *StravaHandler {
	return &StravaHandler{oauth: oauth}
}

// HandleAuth handles GET /api/strava/auth by redirecting to the consent page.
func (h *StravaHandler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if h.oauth == nil {
		writeError(w, http.StatusInternalServerError, msgStravaSetup)
		return
	}
	target, err := h.oauth.AuthorizeURL(origin(r) + callbackPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, msgStravaSetup)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleCallback handles GET /api/strava/callback?code=... and returns the
// refresh token to put in configuration.
func (h *StravaHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeError(w, http.StatusBadRequest, msgStravaAuthFailed+": "+e)
		return
	}
	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, msgMissingCode)
		return
	}
	if h.oauth == nil {
		writeError(w, http.StatusInternalServerError, msgStravaSetup)
		return
	}

	auth, err := h.oauth.ExchangeCode(r.Context(), code)
	switch {
	case errors.Is(err, strava.ErrMissingClient):
		writeError(w, http.StatusInternalServerError, msgStravaSetup)
	case errors.Is(err, strava.ErrMissingCode):
		writeError(w, http.StatusBadRequest, msgMissingCode)
	case err != nil:
		writeError(w, http.StatusBadGateway, msgStravaExchange+": "+err.Error())
	default:
		writeData(w, auth, false)
	}
}

// origin rebuilds scheme://host for the incoming request.
func origin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host
}

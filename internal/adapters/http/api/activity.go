package api

import (
	"errors"
	"net/http"

	"github.com/okian/pulse/internal/adapters/sources/strava"
	"github.com/okian/pulse/internal/domain/activity"
)

// ActivityHandler serves the combined and per-source activity routes.
type ActivityHandler struct {
	deps Dependencies
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(deps Dependencies) *ActivityHandler {
	return &ActivityHandler{deps: deps}
}

// HandleCombined handles GET /api/activity?year=YYYY.
func (h *ActivityHandler) HandleCombined(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	data, cached, err := h.deps.FetchCombined(r.Context(), year)
	if err != nil {
		h.fail(w, activity.SourceCombined, err)
		return
	}
	writeData(w, data, cached)
}

// HandleGithub handles GET /api/activity/github?year=YYYY.
func (h *ActivityHandler) HandleGithub(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	data, cached, err := h.deps.FetchGithub(r.Context(), year)
	if err != nil {
		h.fail(w, activity.SourceGithub, err)
		return
	}
	writeData(w, data, cached)
}

// HandleStrava handles GET /api/activity/strava?year=YYYY.
func (h *ActivityHandler) HandleStrava(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	data, cached, err := h.deps.FetchStrava(r.Context(), year)
	if err != nil {
		h.fail(w, activity.SourceStrava, err)
		return
	}
	writeData(w, data, cached)
}

// HandleOsrs handles GET /api/activity/osrs?year=YYYY.
func (h *ActivityHandler) HandleOsrs(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	data, cached, err := h.deps.FetchOsrs(r.Context(), year)
	if err != nil {
		h.fail(w, activity.SourceOsrs, err)
		return
	}
	writeData(w, data, cached)
}

func (h *ActivityHandler) year(w http.ResponseWriter, r *http.Request) (int, bool) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return 0, false
	}
	year, err := parseYear(r, h.deps.CurrentYear())
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidYear)
		return 0, false
	}
	return year, true
}

func (h *ActivityHandler) fail(w http.ResponseWriter, src activity.Source, err error) {
	status := statusFor(err)
	if status == http.StatusBadRequest {
		writeError(w, status, msgInvalidYear)
		return
	}
	switch {
	case src == activity.SourceGithub && errors.Is(err, activity.ErrNotConfigured):
		writeError(w, status, msgGithubNotSetUp)
	case src == activity.SourceStrava && (errors.Is(err, activity.ErrNotConfigured) || errors.Is(err, strava.ErrTokenRefresh)):
		writeError(w, status, msgStravaNotSetUp)
	default:
		writeError(w, status, err.Error())
	}
}

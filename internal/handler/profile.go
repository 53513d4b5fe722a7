package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/service"
)

// ProfileHandler serves cached platform statistics.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// profileResponse flattens the stats next to the cache metadata.
type profileResponse struct {
	model.PlatformStats
	LastUpdated time.Time `json:"lastUpdated"`
	Cached      bool      `json:"cached"`
}

// HandleGet returns the caller's statistics on one platform.
//
// HTTP: GET /api/profile/{platform}?refresh=true
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, ok := model.ParsePlatform(r.PathValue("platform"))
	if !ok {
		writeError(w, r, h.logger, apperror.ValidationFailed("platform", "platform must be github, leetcode or codeforces"))
		return
	}
	force := false
	if raw := r.URL.Query().Get("refresh"); raw != "" {
		force, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, h.logger, apperror.ValidationFailed("refresh", "refresh must be true or false"))
			return
		}
	}

	res, err := h.profiles.Get(r.Context(), userID, p, force)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		PlatformStats: res.Snapshot.Stats,
		LastUpdated:   res.Snapshot.LastUpdated,
		Cached:        res.Cached,
	})
}

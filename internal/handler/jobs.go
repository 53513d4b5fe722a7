package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/codeminder/internal/jobs"
)

// JobSearcher finds job listings for a category.
type JobSearcher interface {
	Search(ctx context.Context, category string) ([]jobs.Job, error)
}

type JobsHandler struct {
	search JobSearcher
	logger *slog.Logger
}

func NewJobsHandler(search JobSearcher, logger *slog.Logger) *JobsHandler {
	return &JobsHandler{search: search, logger: logger}
}

// HTTP: GET /api/jobs?category=
func (h *JobsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.search.Search(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": list})
}

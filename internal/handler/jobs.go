package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/swipejobs/internal/service"
)

// JobHandler serves job listings. Listings are public; no session needed.
type JobHandler struct {
	jobs   *service.JobService
	logger *slog.Logger
}

func NewJobHandler(jobs *service.JobService, logger *slog.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, logger: logger}
}

// HandleRemoteOK: GET /jobs/remoteok
func (h *JobHandler) HandleRemoteOK(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, h.jobs.RemoteOK)
}

// HandleGemini: GET /jobs/gemini
func (h *JobHandler) HandleGemini(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, h.jobs.Gemini)
}

// HandleAll returns both feeds. A failing source is reported inside the
// body; the response itself is still 200.
//
// HTTP: GET /jobs/all
func (h *JobHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.jobs.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *JobHandler) serveFeed(w http.ResponseWriter, r *http.Request, fetch func(context.Context) (*service.JobFeed, error)) {
	feed, err := fetch(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

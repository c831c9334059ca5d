package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/swipejobs/internal/service"
)

// GitHubHandler serves account linking and the repository mirror.
//
// FLOW:
//  1. GET /github/connect   → the client opens the returned URL
//  2. GitHub redirects the browser to GET /github/callback?code&state
//  3. GET /github/status and /github/repos read the mirror
//
// The callback carries no session. The signed state names the user.
type GitHubHandler struct {
	github *service.GitHubService
	logger *slog.Logger
}

func NewGitHubHandler(github *service.GitHubService, logger *slog.Logger) *GitHubHandler {
	return &GitHubHandler{github: github, logger: logger}
}

// HandleConnect: GET /github/connect
func (h *GitHubHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	url, err := h.github.ConnectURL(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authUrl": url})
}

// HandleCallback: GET /github/callback?code=...&state=...
func (h *GitHubHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if denied := q.Get("error"); denied != "" {
		h.logger.Info("github authorization denied", slog.String("error", denied))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "authorization_denied", Message: q.Get("error_description")})
		return
	}

	status, err := h.github.Callback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleStatus: GET /github/status
func (h *GitHubHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	status, err := h.github.Status(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleRepos: GET /github/repos
func (h *GitHubHandler) HandleRepos(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	repos, err := h.github.Repositories(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"repositories": repos, "count": len(repos)})
}

// HandleSync: POST /github/sync
func (h *GitHubHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := h.github.Sync(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "sync complete", "repositoryCount": n})
}

// HandleUnlink: DELETE /github/link
func (h *GitHubHandler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.github.Unlink(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

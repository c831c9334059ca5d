package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/service"
)

type ApplicationHandler struct {
	apps   *service.ApplicationService
	logger *slog.Logger
}

func NewApplicationHandler(apps *service.ApplicationService, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, logger: logger}
}

type applyResponse struct {
	Message     string                `json:"message"`
	Application *model.JobApplication `json:"application"`
}

// HandleApply records that the signed-in user applied to a listing.
//
// HTTP: POST /users/apply
// BODY: {"jobTitle": "...", "company": "...", "jobSource": "RemoteOK", "jobUrl": "..."}
func (h *ApplicationHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.ApplyInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	app, err := h.apps.Apply(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, applyResponse{Message: "Application recorded successfully", Application: app})
}

type applicationsResponse struct {
	Applications []model.JobApplication `json:"applications"`
	Count        int                    `json:"count"`
}

// HandleList returns the user's applications, newest first.
//
// HTTP: GET /users/applications/{id}
func (h *ApplicationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := h.apps.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, applicationsResponse{Applications: list, Count: len(list)})
}

package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/service"
	"github.com/sakif/swipejobs/internal/storage"
)

// ProfileHandler serves the composite profile, resume endpoints and the
// five child collections. Every route is scoped to /users/.../{id} and
// only the owner may use it.
type ProfileHandler struct {
	profiles  *service.ProfileService
	resumes   *service.ResumeService
	logger    *slog.Logger
	maxUpload int64
}

func NewProfileHandler(profiles *service.ProfileService, resumes *service.ResumeService, maxUpload int64, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, resumes: resumes, logger: logger, maxUpload: maxUpload}
}

// HandleGet returns the profile with every child collection.
//
// HTTP: GET /users/profile/{id}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleUpdate applies a partial update. Absent fields are left alone.
//
// HTTP: PUT /users/profile/{id}
// BODY: {"location": "Remote", "skills": ["Go"]}
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var u model.ProfileUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, err)
		return
	}
	profile, err := h.profiles.Update(r.Context(), userID, u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleUploadResume replaces the stored resume without parsing it.
//
// HTTP: POST /users/resume/{id}   (multipart field "resume")
func (h *ProfileHandler) HandleUploadResume(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	up, err := h.parseResume(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if up == nil {
		writeError(w, errMissingResume)
		return
	}
	user, err := h.resumes.Upload(r.Context(), userID, *up)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleProcessResume runs AI extraction over the resume and merges the
// result into the profile. A file in the body replaces the stored one
// first; without one the stored resume is processed.
//
// HTTP: POST /users/process-resume/{id}
func (h *ProfileHandler) HandleProcessResume(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	up, err := h.parseResume(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.resumes.Process(r.Context(), userID, up)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleDownloadResume streams the stored resume as an attachment.
//
// HTTP: GET /users/resume/{id}
func (h *ProfileHandler) HandleDownloadResume(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rc, filename, err := h.resumes.Download(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", storage.ContentType(filename))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("resume download interrupted", slog.String("userID", userID), slog.String("error", err.Error()))
	}
}

var errMissingResume = apperror.ValidationFailed("resume", "a resume file is required")

func (h *ProfileHandler) parseResume(w http.ResponseWriter, r *http.Request) (*service.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxJSONBody)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, formError(err)
	}
	return readUpload(r, "resume", h.maxUpload)
}

// =========================================================================
// CHILD COLLECTIONS
// =========================================================================
//
// The five child collections share one shape: list, add, patch, delete,
// all scoped to the owner. collection adapts a set of service methods to
// that shape so the routes are declared once.

type collection[T any, U any] struct {
	list   func(r *http.Request, userID string) ([]T, error)
	add    func(r *http.Request, userID string, item *T) error
	update func(r *http.Request, userID, id string, u U) error
	remove func(r *http.Request, userID, id string) error
}

// Mount registers GET/POST on "/" and PUT/DELETE on "/{itemID}".
func (c collection[T, U]) Mount(r chi.Router) {
	r.Get("/", c.handleList)
	r.Post("/", c.handleAdd)
	r.Put("/{itemID}", c.handleUpdate)
	r.Delete("/{itemID}", c.handleDelete)
}

func (c collection[T, U]) handleList(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := c.list(r, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (c collection[T, U]) handleAdd(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	item := new(T)
	if err := decodeJSON(w, r, item); err != nil {
		writeError(w, err)
		return
	}
	if err := c.add(r, userID, item); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (c collection[T, U]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var u U
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, err)
		return
	}
	if err := c.update(r, userID, chi.URLParam(r, "itemID"), u); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

func (c collection[T, U]) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := c.remove(r, userID, chi.URLParam(r, "itemID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MountChildren registers the five collections under the current router,
// which is expected to carry an {id} parameter.
func (h *ProfileHandler) MountChildren(r chi.Router) {
	p := h.profiles

	r.Route("/education", collection[model.Education, model.EducationUpdate]{
		list:   func(r *http.Request, uid string) ([]model.Education, error) { return p.ListEducation(r.Context(), uid) },
		add:    func(r *http.Request, uid string, e *model.Education) error { return p.AddEducation(r.Context(), uid, e) },
		update: func(r *http.Request, uid, id string, u model.EducationUpdate) error { return p.UpdateEducation(r.Context(), uid, id, u) },
		remove: func(r *http.Request, uid, id string) error { return p.DeleteEducation(r.Context(), uid, id) },
	}.Mount)

	r.Route("/certifications", collection[model.Certification, model.CertificationUpdate]{
		list:   func(r *http.Request, uid string) ([]model.Certification, error) { return p.ListCertifications(r.Context(), uid) },
		add:    func(r *http.Request, uid string, c *model.Certification) error { return p.AddCertification(r.Context(), uid, c) },
		update: func(r *http.Request, uid, id string, u model.CertificationUpdate) error { return p.UpdateCertification(r.Context(), uid, id, u) },
		remove: func(r *http.Request, uid, id string) error { return p.DeleteCertification(r.Context(), uid, id) },
	}.Mount)

	r.Route("/work-experience", collection[model.WorkExperience, model.WorkExperienceUpdate]{
		list:   func(r *http.Request, uid string) ([]model.WorkExperience, error) { return p.ListWorkExperience(r.Context(), uid) },
		add:    func(r *http.Request, uid string, x *model.WorkExperience) error { return p.AddWorkExperience(r.Context(), uid, x) },
		update: func(r *http.Request, uid, id string, u model.WorkExperienceUpdate) error { return p.UpdateWorkExperience(r.Context(), uid, id, u) },
		remove: func(r *http.Request, uid, id string) error { return p.DeleteWorkExperience(r.Context(), uid, id) },
	}.Mount)

	r.Route("/internships", collection[model.Internship, model.InternshipUpdate]{
		list:   func(r *http.Request, uid string) ([]model.Internship, error) { return p.ListInternships(r.Context(), uid) },
		add:    func(r *http.Request, uid string, i *model.Internship) error { return p.AddInternship(r.Context(), uid, i) },
		update: func(r *http.Request, uid, id string, u model.InternshipUpdate) error { return p.UpdateInternship(r.Context(), uid, id, u) },
		remove: func(r *http.Request, uid, id string) error { return p.DeleteInternship(r.Context(), uid, id) },
	}.Mount)

	r.Route("/projects", collection[model.Project, model.ProjectUpdate]{
		list:   func(r *http.Request, uid string) ([]model.Project, error) { return p.ListProjects(r.Context(), uid) },
		add:    func(r *http.Request, uid string, x *model.Project) error { return p.AddProject(r.Context(), uid, x) },
		update: func(r *http.Request, uid, id string, u model.ProjectUpdate) error { return p.UpdateProject(r.Context(), uid, id, u) },
		remove: func(r *http.Request, uid, id string) error { return p.DeleteProject(r.Context(), uid, id) },
	}.Mount)
}

package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/auth"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/service"
)

// UserHandler serves sign-up, login and account endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → multipart sign-up with an optional resume
//   - HandleLogin    → (name, code) → session cookie + token
//   - HandleLogout   → ends the session
//   - HandleMe       → the signed-in user
//   - HandleDelete   → removes the account and everything it owns
type UserHandler struct {
	accounts      *service.AccountService
	accountLimit  LoginThrottle
	logger        *slog.Logger
	maxUpload     int64
	secureCookies bool
}

// LoginThrottle limits login attempts per account name. Implemented by
// middleware.RateLimiter.
type LoginThrottle interface {
	Allow(key string) bool
}

// NewUserHandler creates a UserHandler. accountLimit may be nil, which
// disables the per-account login limit.
func NewUserHandler(accounts *service.AccountService, accountLimit LoginThrottle, maxUpload int64, secureCookies bool, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		accounts:      accounts,
		accountLimit:  accountLimit,
		logger:        logger,
		maxUpload:     maxUpload,
		secureCookies: secureCookies,
	}
}

type registerResponse struct {
	Message        string      `json:"message"`
	UserID         string      `json:"userId"`
	LoginCode      string      `json:"loginCode"`
	ResumeUploaded bool        `json:"resumeUploaded"`
	User           *model.User `json:"user"`
}

// HandleRegister creates an account.
//
// HTTP: POST /users/register
// BODY: multipart/form-data (or urlencoded) with name, email, phone,
// location, linkedin_url, github_url, portfolio_url, skills and
// preferences (comma separated) and an optional "resume" file.
//
// The login code appears in this response and nowhere else.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxJSONBody)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, formError(err))
		return
	}

	in := service.RegisterInput{
		Name:         r.FormValue("name"),
		Email:        r.FormValue("email"),
		Phone:        r.FormValue("phone"),
		Location:     r.FormValue("location"),
		LinkedInURL:  r.FormValue("linkedin_url"),
		GitHubURL:    r.FormValue("github_url"),
		PortfolioURL: r.FormValue("portfolio_url"),
		Skills:       splitList(r.FormValue("skills")),
		Preferences:  splitList(r.FormValue("preferences")),
	}

	upload, err := readUpload(r, "resume", h.maxUpload)
	if err != nil {
		writeError(w, err)
		return
	}
	in.Resume = upload

	reg, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Message:        "Registration successful! Save your login code.",
		UserID:         reg.User.ID,
		LoginCode:      reg.LoginCode,
		ResumeUploaded: reg.User.ResumePath != "",
		User:           reg.User,
	})
}

type loginRequest struct {
	Name      string `json:"name"`
	LoginCode string `json:"loginCode"`
}

type loginResponse struct {
	Message   string      `json:"message"`
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// HandleLogin opens a session.
//
// HTTP: POST /users/login
// BODY: {"name": "Ada", "loginCode": "4821"}
//
// The token is returned in the body for API clients and set as an HttpOnly
// cookie for browsers. Either works on later requests.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	// Keyed on the account so one name cannot be guessed at from many
	// addresses. The per-address bucket runs in front of this handler.
	account := strings.ToLower(strings.TrimSpace(req.Name))
	if h.accountLimit != nil && account != "" && !h.accountLimit.Allow("name:"+account) {
		h.logger.Warn("login attempts exceeded for account", slog.String("name", account))
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Error:   "rate_limited",
			Message: "too many attempts, try again later",
		})
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Name, req.LoginCode)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			h.logger.Info("login rejected", slog.String("remote", r.RemoteAddr))
		}
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    res.Session.Token,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Message:   "Login successful",
		User:      res.User,
		Token:     res.Session.Token,
		ExpiresAt: res.Session.ExpiresAt,
	})
}

// HandleLogout ends the current session and clears the cookie.
//
// HTTP: POST /users/logout
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.TokenFromContext(r.Context())
	if err := h.accounts.Logout(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	h.clearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the signed-in user.
//
// HTTP: GET /users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.accounts.Me(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete removes the account.
//
// HTTP: DELETE /users/profile/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := ownerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.accounts.Delete(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	h.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// splitList turns "Go, Python,," into ["Go", "Python"].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readUpload returns the file in the given multipart field, or nil when the
// request carries none. The form must already be parsed.
func readUpload(r *http.Request, field string, max int64) (*service.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, apperror.ValidationFailed(field, fmt.Sprintf("could not read %s upload", field))
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, nil
	}
	if header.Size > max {
		return nil, apperror.ValidationFailed(field, fmt.Sprintf("file exceeds the %d byte limit", max))
	}
	data, err := io.ReadAll(io.LimitReader(file, max+1))
	if err != nil {
		return nil, apperror.ValidationFailed(field, fmt.Sprintf("could not read %s upload", field))
	}
	return &service.Upload{Filename: header.Filename, Data: data}, nil
}

func formError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperror.ValidationFailed("resume", "upload too large")
	}
	return apperror.ValidationFailed("", "invalid form body")
}

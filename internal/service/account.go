// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept plain Go values, never *http.Request, and return
// apperror values that the handler layer maps to status codes. Every
// dependency (repositories, adapters, clock) is injected through the
// constructor so tests can substitute fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/auth"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/repository"
)

// DefaultCodeAttempts bounds the login code generation loop. With 9000
// possible codes a miss streak this long means the space is nearly full.
const DefaultCodeAttempts = 50

// RegisterInput is the data accepted at sign-up.
type RegisterInput struct {
	Name         string   `json:"name" validate:"required,max=100"`
	Email        string   `json:"email" validate:"required,email"`
	Phone        string   `json:"phone" validate:"max=50"`
	Location     string   `json:"location" validate:"max=200"`
	LinkedInURL  string   `json:"linkedinUrl" validate:"omitempty,url"`
	GitHubURL    string   `json:"githubUrl" validate:"omitempty,url"`
	PortfolioURL string   `json:"portfolioUrl" validate:"omitempty,url"`
	Skills       []string `json:"skills"`
	Preferences  []string `json:"preferences"`
	Resume       *Upload  `json:"-"`
}

// Registration is returned once, at sign-up. LoginCode is the only time the
// plaintext code leaves the server.
type Registration struct {
	User      *model.User `json:"user"`
	LoginCode string      `json:"loginCode"`
}

// LoginResult bundles the user and the new session so the handler can set
// the cookie and respond in one step.
type LoginResult struct {
	User    *model.User    `json:"user"`
	Session *model.Session `json:"session"`
}

// AccountService handles registration, login, logout and account removal.
//
// DEPENDENCIES (injected via NewAccountService):
//   - users     repository.UserRepository → user rows
//   - sessions  *SessionService           → token issuance
//   - codes     *auth.CodeService         → login code generation and hashing
//   - resumes   *ResumeService            → optional resume at sign-up
type AccountService struct {
	users       repository.UserRepository
	sessions    *SessionService
	codes       *auth.CodeService
	resumes     *ResumeService
	logger      *slog.Logger
	maxAttempts int
	now         func() time.Time
}

func NewAccountService(
	users repository.UserRepository,
	sessions *SessionService,
	codes *auth.CodeService,
	resumes *ResumeService,
	maxAttempts int,
	logger *slog.Logger,
) *AccountService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultCodeAttempts
	}
	return &AccountService{
		users:       users,
		sessions:    sessions,
		codes:       codes,
		resumes:     resumes,
		logger:      logger,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Register creates a user with a fresh 4-digit login code.
//
// CODE UNIQUENESS:
// Codes are drawn at random and checked against the digest column. The
// UNIQUE constraint on that column is the real guard: if two sign-ups race
// for the same code, the loser gets a login_code duplicate error and draws
// again. After maxAttempts misses the call fails with a conflict.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		Location:     strings.TrimSpace(in.Location),
		LinkedInURL:  strings.TrimSpace(in.LinkedInURL),
		GitHubURL:    strings.TrimSpace(in.GitHubURL),
		PortfolioURL: strings.TrimSpace(in.PortfolioURL),
		Skills:       cleanList(in.Skills),
		Preferences:  cleanList(in.Preferences),
	}

	if in.Resume != nil {
		saved, err := s.resumes.store(ctx, *in.Resume)
		if err != nil {
			return nil, err
		}
		uploaded := s.now().UTC()
		user.ResumeFilename = saved.OriginalName
		user.ResumePath = saved.StoredName
		user.ResumeUploadedAt = &uploaded
	}

	code, err := s.createWithCode(ctx, user)
	if err != nil {
		if user.ResumePath != "" {
			s.resumes.discard(ctx, user.ResumePath)
		}
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.Bool("resume", user.ResumePath != ""),
	)
	return &Registration{User: user, LoginCode: code}, nil
}

func (s *AccountService) createWithCode(ctx context.Context, user *model.User) (string, error) {
	for range s.maxAttempts {
		code, err := s.codes.Generate()
		if err != nil {
			return "", err
		}
		digest := s.codes.Digest(code)

		taken, err := s.users.CodeDigestExists(ctx, digest)
		if err != nil {
			return "", fmt.Errorf("service/account: checking login code: %w", err)
		}
		if taken {
			continue
		}

		hash, err := s.codes.Hash(code)
		if err != nil {
			return "", err
		}
		user.CodeHash = hash
		user.CodeDigest = digest

		err = s.users.CreateUser(ctx, user)
		if err == nil {
			return code, nil
		}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && errors.Is(err, apperror.ErrDuplicate) && appErr.Field == "login_code" {
			continue
		}
		return "", err
	}

	s.logger.Error("login code space exhausted", slog.Int("attempts", s.maxAttempts))
	return "", &apperror.AppError{Err: apperror.ErrConflict, Message: "login code space exhausted, try again later"}
}

// Login checks (name, code) and opens a session.
//
// Every failure (malformed code, unknown name, wrong code) returns the same
// message so a caller cannot tell which half was wrong.
func (s *AccountService) Login(ctx context.Context, name, code string) (*LoginResult, error) {
	invalid := apperror.Unauthorized("invalid name or code")

	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" || !auth.ValidCode(code) {
		return nil, invalid
	}

	user, err := s.users.FindUserByCredentials(ctx, name, s.codes.Digest(code))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/account: looking up credentials: %w", err)
	}
	if err := s.codes.Verify(user.CodeHash, code); err != nil {
		return nil, invalid
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &LoginResult{User: user, Session: session}, nil
}

// Logout ends the session bound to token.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Me returns the user behind the current session.
func (s *AccountService) Me(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// Delete removes the account and everything it owns. The stored resume file
// is removed after the row; a failure there is only logged.
func (s *AccountService) Delete(ctx context.Context, userID string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	if user.ResumePath != "" {
		s.resumes.discard(ctx, user.ResumePath)
	}

	s.logger.Info("user deleted", slog.String("userID", userID))
	return nil
}

// cleanList trims entries and drops blanks. The result is never nil.
func cleanList(in []string) model.StringList {
	out := model.StringList{}
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

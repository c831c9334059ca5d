package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/repository"
)

// ApplicationService records the jobs a user applied to. Applications are
// append-only.
type ApplicationService struct {
	apps   repository.ApplicationRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewApplicationService(apps repository.ApplicationRepository, users repository.UserRepository, logger *slog.Logger) *ApplicationService {
	return &ApplicationService{apps: apps, users: users, logger: logger}
}

// ApplyInput is what a client sends when applying to a listing.
type ApplyInput struct {
	JobTitle  string `json:"jobTitle"`
	Company   string `json:"company"`
	JobSource string `json:"jobSource"`
	JobURL    string `json:"jobUrl"`
}

// Apply records an application. The user's current email is copied onto
// the record so it survives later profile edits.
func (s *ApplicationService) Apply(ctx context.Context, userID string, in ApplyInput) (*model.JobApplication, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	app := &model.JobApplication{
		UserID:    userID,
		UserEmail: user.Email,
		JobTitle:  strings.TrimSpace(in.JobTitle),
		Company:   strings.TrimSpace(in.Company),
		JobSource: strings.TrimSpace(in.JobSource),
		JobURL:    strings.TrimSpace(in.JobURL),
	}
	if err := validateStruct(app); err != nil {
		return nil, err
	}
	if err := s.apps.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	s.logger.Info("job application recorded",
		slog.String("userID", userID),
		slog.String("company", app.Company),
		slog.String("source", app.JobSource),
	)
	return app, nil
}

// List returns the user's applications, newest first.
func (s *ApplicationService) List(ctx context.Context, userID string) ([]model.JobApplication, error) {
	return s.apps.ListApplications(ctx, userID)
}

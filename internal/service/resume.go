package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/swipejobs/internal/aggregator"
	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/repository"
	"github.com/sakif/swipejobs/internal/resume"
	"github.com/sakif/swipejobs/internal/storage"
)

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// ResumeExtractor structures resume text. *resume.Extractor implements it.
type ResumeExtractor interface {
	Extract(ctx context.Context, text string) (*model.ResumeExtract, error)
}

// ResumeService stores resumes and runs AI extraction over them.
type ResumeService struct {
	users     repository.UserRepository
	projects  repository.ProfileRepository
	files     *storage.Resumes
	extractor ResumeExtractor
	logger    *slog.Logger
	now       func() time.Time
}

// NewResumeService wires the resume workflow. extractor may be nil, in which
// case Process reports the feature as unavailable.
func NewResumeService(
	users repository.UserRepository,
	projects repository.ProfileRepository,
	files *storage.Resumes,
	extractor ResumeExtractor,
	logger *slog.Logger,
) *ResumeService {
	return &ResumeService{
		users:     users,
		projects:  projects,
		files:     files,
		extractor: extractor,
		logger:    logger,
		now:       time.Now,
	}
}

// Upload replaces the user's stored resume. The new file is marked unparsed.
func (s *ResumeService) Upload(ctx context.Context, userID string, up Upload) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	saved, err := s.store(ctx, up)
	if err != nil {
		return nil, err
	}

	uploaded := s.now().UTC()
	parsed := false
	err = s.users.UpdateProfile(ctx, userID, model.ProfileUpdate{
		ResumeFilename:   &saved.OriginalName,
		ResumePath:       &saved.StoredName,
		ResumeUploadedAt: &uploaded,
		ResumeParsed:     &parsed,
	})
	if err != nil {
		s.discard(ctx, saved.StoredName)
		return nil, err
	}
	if user.ResumePath != "" && user.ResumePath != saved.StoredName {
		s.discard(ctx, user.ResumePath)
	}

	s.logger.Info("resume uploaded",
		slog.String("userID", userID),
		slog.String("file", saved.StoredName),
		slog.Int64("size", saved.Size),
	)
	return s.users.GetUserByID(ctx, userID)
}

// ProcessResult is the profile after a resume run plus the raw extract.
type ProcessResult struct {
	Profile   *model.Profile       `json:"profile"`
	Extracted *model.ResumeExtract `json:"extracted"`
}

// Process parses the user's resume and merges the result into the profile.
// When up is non-nil it is uploaded first and becomes the stored resume.
//
// THE PROJECT LIST IS REPLACED, NOT MERGED:
// Running Process twice on the same resume must not double the projects,
// so every project row is dropped and the extracted ones are inserted in a
// single transaction.
func (s *ResumeService) Process(ctx context.Context, userID string, up *Upload) (*ProcessResult, error) {
	if s.extractor == nil {
		return nil, apperror.Unavailable("AI resume parsing is not configured")
	}

	if up != nil {
		if _, err := s.Upload(ctx, userID, *up); err != nil {
			return nil, err
		}
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ResumePath == "" {
		return nil, apperror.ValidationFailed("resume", "no resume uploaded")
	}

	data, err := s.files.Read(ctx, user.ResumePath)
	if err != nil {
		return nil, err
	}

	text, err := resume.ExtractText(user.ResumeFilename, data)
	if err != nil {
		if errors.Is(err, resume.ErrUnsupportedFormat) {
			return nil, apperror.ValidationFailed("resume",
				"this file type cannot be parsed; upload a .pdf, .docx, .txt or .tex file")
		}
		return nil, apperror.ValidationFailed("resume", "could not read text from the resume")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperror.ValidationFailed("resume", "the resume contains no readable text")
	}

	extracted, err := s.extractor.Extract(ctx, text)
	if err != nil {
		s.logger.Error("resume extraction failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.Upstream("Gemini", err)
	}

	if err := s.users.UpdateProfile(ctx, userID, aggregator.Merge(user, extracted)); err != nil {
		return nil, fmt.Errorf("service/resume: saving merged profile: %w", err)
	}
	projects := aggregator.Projects(userID, extracted)
	if err := s.projects.ReplaceProjects(ctx, userID, projects); err != nil {
		return nil, fmt.Errorf("service/resume: replacing projects: %w", err)
	}

	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("resume processed",
		slog.String("userID", userID),
		slog.Int("skills", len(extracted.Skills)),
		slog.Int("projects", len(projects)),
	)
	return &ProcessResult{Profile: profile, Extracted: extracted}, nil
}

// Download opens the user's stored resume. The caller closes the reader.
func (s *ResumeService) Download(ctx context.Context, userID string) (io.ReadCloser, string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if user.ResumePath == "" {
		return nil, "", apperror.NotFound("resume", userID)
	}
	rc, err := s.files.Open(ctx, user.ResumePath)
	if err != nil {
		return nil, "", err
	}
	return rc, user.ResumeFilename, nil
}

func (s *ResumeService) store(ctx context.Context, up Upload) (*storage.Saved, error) {
	return s.files.Save(ctx, up.Filename, up.Data)
}

// discard removes a stored file; failures are only logged.
func (s *ResumeService) discard(ctx context.Context, name string) {
	if err := s.files.Delete(ctx, name); err != nil {
		s.logger.Warn("failed to delete resume file",
			slog.String("file", name),
			slog.String("error", err.Error()),
		)
	}
}

// Package repository declares the storage interfaces the services depend on.
// internal/repository/sqlite is the only production implementation; tests
// substitute in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/swipejobs/internal/model"
)

type UserRepository interface {
	// CreateUser inserts the user. A taken email returns apperror.ErrDuplicate
	// with Field "email"; a taken login code digest with Field "login_code".
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// FindUserByCredentials matches name case-insensitively and the code
	// digest exactly.
	FindUserByCredentials(ctx context.Context, name, codeDigest string) (*model.User, error)
	CodeDigestExists(ctx context.Context, codeDigest string) (bool, error)
	// UpdateProfile applies a partial update and stamps updated_at.
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) error
	DeleteUser(ctx context.Context, id string) error
	// GetProfile returns the user with every child collection.
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, tokenDigest string, session *model.Session) error
	GetSession(ctx context.Context, tokenDigest string) (*model.Session, error)
	DeleteSession(ctx context.Context, tokenDigest string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// ProfileRepository covers the five child collections of a user.
// Update and delete are scoped by owning user: a row that exists but
// belongs to someone else is reported as not found.
type ProfileRepository interface {
	AddEducation(ctx context.Context, e *model.Education) error
	UpdateEducation(ctx context.Context, userID, id string, u model.EducationUpdate) error
	DeleteEducation(ctx context.Context, userID, id string) error
	ListEducation(ctx context.Context, userID string) ([]model.Education, error)

	AddCertification(ctx context.Context, c *model.Certification) error
	UpdateCertification(ctx context.Context, userID, id string, u model.CertificationUpdate) error
	DeleteCertification(ctx context.Context, userID, id string) error
	ListCertifications(ctx context.Context, userID string) ([]model.Certification, error)

	AddWorkExperience(ctx context.Context, w *model.WorkExperience) error
	UpdateWorkExperience(ctx context.Context, userID, id string, u model.WorkExperienceUpdate) error
	DeleteWorkExperience(ctx context.Context, userID, id string) error
	ListWorkExperience(ctx context.Context, userID string) ([]model.WorkExperience, error)

	AddInternship(ctx context.Context, i *model.Internship) error
	UpdateInternship(ctx context.Context, userID, id string, u model.InternshipUpdate) error
	DeleteInternship(ctx context.Context, userID, id string) error
	ListInternships(ctx context.Context, userID string) ([]model.Internship, error)

	AddProject(ctx context.Context, p *model.Project) error
	UpdateProject(ctx context.Context, userID, id string, u model.ProjectUpdate) error
	DeleteProject(ctx context.Context, userID, id string) error
	ListProjects(ctx context.Context, userID string) ([]model.Project, error)
	// ReplaceProjects deletes every project of the user and inserts projects,
	// in one transaction.
	ReplaceProjects(ctx context.Context, userID string, projects []model.Project) error
}

type ApplicationRepository interface {
	CreateApplication(ctx context.Context, app *model.JobApplication) error
	// ListApplications returns newest first.
	ListApplications(ctx context.Context, userID string) ([]model.JobApplication, error)
}

type GitHubRepository interface {
	// LinkGitHub creates or refreshes the user's link. If the GitHub account
	// is linked to a different user it returns apperror.ErrConflict.
	LinkGitHub(ctx context.Context, link *model.GitHubLink) error
	GetGitHubLink(ctx context.Context, userID string) (*model.GitHubLink, error)
	ListGitHubLinks(ctx context.Context) ([]model.GitHubLink, error)
	// UnlinkGitHub removes the link; mirrored repositories cascade.
	UnlinkGitHub(ctx context.Context, userID string) error
	// ReplaceRepositories swaps the user's mirrored set in one transaction
	// and stamps last_sync_at.
	ReplaceRepositories(ctx context.Context, userID string, repos []model.Repository) error
	ListRepositories(ctx context.Context, userID string) ([]model.Repository, error)
	CountRepositories(ctx context.Context, userID string) (int, error)
}

// CacheRepository is a key/expiry store for fetched job listings.
type CacheRepository interface {
	GetCache(ctx context.Context, key string, now time.Time) ([]byte, bool, error)
	SetCache(ctx context.Context, key string, payload []byte, expiresAt time.Time) error
	DeleteCache(ctx context.Context, keys ...string) error
	PurgeExpiredCache(ctx context.Context, now time.Time) (int64, error)
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/repository"
)

// ProfileService reads and edits a user's profile and its five child
// collections. Child updates and deletes are scoped by the owning user, so
// an id belonging to someone else reads as not found.
type ProfileService struct {
	users    repository.UserRepository
	children repository.ProfileRepository
	logger   *slog.Logger
}

func NewProfileService(users repository.UserRepository, children repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{users: users, children: children, logger: logger}
}

// Get returns the composite profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	return s.users.GetProfile(ctx, userID)
}

// Update applies a partial update and returns the fresh profile.
func (s *ProfileService) Update(ctx context.Context, userID string, u model.ProfileUpdate) (*model.Profile, error) {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		u.Name = &name
	}
	if u.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*u.Email))
		u.Email = &email
	}
	for _, list := range []*model.StringList{u.Skills, u.Preferences, u.JobTypes, u.PreferredRoles, u.PreferredLocations} {
		if list != nil {
			*list = cleanList(*list)
		}
	}
	if err := checkUpdate(u); err != nil {
		return nil, err
	}
	if u.SalaryMin != nil && u.SalaryMax != nil && *u.SalaryMin > *u.SalaryMax {
		return nil, apperror.ValidationFailed("salaryMin", "salaryMin must not exceed salaryMax")
	}

	if err := s.users.UpdateProfile(ctx, userID, u); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated",
		slog.String("userID", userID),
		slog.Int("fields", len(u.Assignments())),
	)
	return s.users.GetProfile(ctx, userID)
}

// updater is implemented by every typed partial update in model.
type updater interface {
	Assignments() []model.Assignment
}

func checkUpdate(u updater) error {
	if err := validateStruct(u); err != nil {
		return err
	}
	if len(u.Assignments()) == 0 {
		return apperror.ValidationFailed("", "no fields to update")
	}
	return nil
}

func checkNew(v any) error {
	return validateStruct(v)
}

// =========================================================================
// EDUCATION
// =========================================================================

func (s *ProfileService) AddEducation(ctx context.Context, userID string, e *model.Education) error {
	e.UserID = userID
	if err := checkNew(e); err != nil {
		return err
	}
	if err := s.children.AddEducation(ctx, e); err != nil {
		return fmt.Errorf("service/profile: adding education: %w", err)
	}
	return nil
}

func (s *ProfileService) UpdateEducation(ctx context.Context, userID, id string, u model.EducationUpdate) error {
	if err := checkUpdate(u); err != nil {
		return err
	}
	return s.children.UpdateEducation(ctx, userID, id, u)
}

func (s *ProfileService) DeleteEducation(ctx context.Context, userID, id string) error {
	return s.children.DeleteEducation(ctx, userID, id)
}

func (s *ProfileService) ListEducation(ctx context.Context, userID string) ([]model.Education, error) {
	return s.children.ListEducation(ctx, userID)
}

// =========================================================================
// CERTIFICATIONS
// =========================================================================

func (s *ProfileService) AddCertification(ctx context.Context, userID string, c *model.Certification) error {
	c.UserID = userID
	if err := checkNew(c); err != nil {
		return err
	}
	if err := s.children.AddCertification(ctx, c); err != nil {
		return fmt.Errorf("service/profile: adding certification: %w", err)
	}
	return nil
}

func (s *ProfileService) UpdateCertification(ctx context.Context, userID, id string, u model.CertificationUpdate) error {
	if err := checkUpdate(u); err != nil {
		return err
	}
	return s.children.UpdateCertification(ctx, userID, id, u)
}

func (s *ProfileService) DeleteCertification(ctx context.Context, userID, id string) error {
	return s.children.DeleteCertification(ctx, userID, id)
}

func (s *ProfileService) ListCertifications(ctx context.Context, userID string) ([]model.Certification, error) {
	return s.children.ListCertifications(ctx, userID)
}

// =========================================================================
// WORK EXPERIENCE
// =========================================================================

func (s *ProfileService) AddWorkExperience(ctx context.Context, userID string, w *model.WorkExperience) error {
	w.UserID = userID
	if err := checkNew(w); err != nil {
		return err
	}
	if err := s.children.AddWorkExperience(ctx, w); err != nil {
		return fmt.Errorf("service/profile: adding work experience: %w", err)
	}
	return nil
}

func (s *ProfileService) UpdateWorkExperience(ctx context.Context, userID, id string, u model.WorkExperienceUpdate) error {
	if err := checkUpdate(u); err != nil {
		return err
	}
	return s.children.UpdateWorkExperience(ctx, userID, id, u)
}

func (s *ProfileService) DeleteWorkExperience(ctx context.Context, userID, id string) error {
	return s.children.DeleteWorkExperience(ctx, userID, id)
}

func (s *ProfileService) ListWorkExperience(ctx context.Context, userID string) ([]model.WorkExperience, error) {
	return s.children.ListWorkExperience(ctx, userID)
}

// =========================================================================
// INTERNSHIPS
// =========================================================================

func (s *ProfileService) AddInternship(ctx context.Context, userID string, i *model.Internship) error {
	i.UserID = userID
	if err := checkNew(i); err != nil {
		return err
	}
	if err := s.children.AddInternship(ctx, i); err != nil {
		return fmt.Errorf("service/profile: adding internship: %w", err)
	}
	return nil
}

func (s *ProfileService) UpdateInternship(ctx context.Context, userID, id string, u model.InternshipUpdate) error {
	if err := checkUpdate(u); err != nil {
		return err
	}
	return s.children.UpdateInternship(ctx, userID, id, u)
}

func (s *ProfileService) DeleteInternship(ctx context.Context, userID, id string) error {
	return s.children.DeleteInternship(ctx, userID, id)
}

func (s *ProfileService) ListInternships(ctx context.Context, userID string) ([]model.Internship, error) {
	return s.children.ListInternships(ctx, userID)
}

// =========================================================================
// PROJECTS
// =========================================================================

// AddProject stores a hand-entered project. Source is always "manual";
// resume projects only arrive through ResumeService.Process.
func (s *ProfileService) AddProject(ctx context.Context, userID string, p *model.Project) error {
	p.UserID = userID
	p.Source = model.ProjectSourceManual
	if err := checkNew(p); err != nil {
		return err
	}
	if err := s.children.AddProject(ctx, p); err != nil {
		return fmt.Errorf("service/profile: adding project: %w", err)
	}
	return nil
}

func (s *ProfileService) UpdateProject(ctx context.Context, userID, id string, u model.ProjectUpdate) error {
	if err := checkUpdate(u); err != nil {
		return err
	}
	return s.children.UpdateProject(ctx, userID, id, u)
}

func (s *ProfileService) DeleteProject(ctx context.Context, userID, id string) error {
	return s.children.DeleteProject(ctx, userID, id)
}

func (s *ProfileService) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	return s.children.ListProjects(ctx, userID)
}

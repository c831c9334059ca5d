package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
)

func ptr[T any](v T) *T { return &v }

// =========================================================================
// PROFILE UPDATE TESTS
// =========================================================================

func TestUpdateProfile_StampsUpdatedAt(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.register(t, "ada")
	ctx := context.Background()

	env.clock.Advance(time.Minute)
	profile, err := env.profiles.Update(ctx, user.ID, model.ProfileUpdate{Location: ptr("Remote")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if profile.Location != "Remote" {
		t.Errorf("Location = %q, want Remote", profile.Location)
	}
	if !profile.UpdatedAt.After(user.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want after %v", profile.UpdatedAt, user.UpdatedAt)
	}
	if profile.Name != "ada" {
		t.Errorf("Name = %q, untouched field changed", profile.Name)
	}
}

func TestUpdateProfile_CleansInput(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.register(t, "ada")

	profile, err := env.profiles.Update(context.Background(), user.ID, model.ProfileUpdate{
		Email:  ptr("  Ada.L@Example.COM "),
		Skills: &model.StringList{" Go ", "", "Rust"},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if profile.Email != "ada.l@example.com" {
		t.Errorf("Email = %q", profile.Email)
	}
	if len(profile.Skills) != 2 || profile.Skills[0] != "Go" || profile.Skills[1] != "Rust" {
		t.Errorf("Skills = %v, want [Go Rust]", profile.Skills)
	}
}

func TestUpdateProfile_Rejects(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.register(t, "ada")
	env.register(t, "bob")

	tests := []struct {
		name string
		u    model.ProfileUpdate
		want error
	}{
		{"empty update", model.ProfileUpdate{}, apperror.ErrValidation},
		{"bad email", model.ProfileUpdate{Email: ptr("not-an-email")}, apperror.ErrValidation},
		{"bad url", model.ProfileUpdate{LinkedInURL: ptr("linkedin")}, apperror.ErrValidation},
		{"negative years", model.ProfileUpdate{YearsExperience: ptr(-1)}, apperror.ErrValidation},
		{"salary range", model.ProfileUpdate{SalaryMin: ptr(90000), SalaryMax: ptr(50000)}, apperror.ErrValidation},
		{"taken email", model.ProfileUpdate{Email: ptr("BOB@example.com")}, apperror.ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.profiles.Update(context.Background(), user.ID, tt.u)
			if !errors.Is(err, tt.want) {
				t.Errorf("Update() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.profiles.Update(context.Background(), "missing", model.ProfileUpdate{Location: ptr("Berlin")})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// CHILD RECORD TESTS
// =========================================================================

func TestEducation_CRUDScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	ada, _ := env.register(t, "ada")
	bob, _ := env.register(t, "bob")
	ctx := context.Background()

	edu := &model.Education{Degree: "BSc", Institution: "Cambridge"}
	if err := env.profiles.AddEducation(ctx, ada.ID, edu); err != nil {
		t.Fatalf("AddEducation() error = %v", err)
	}
	if edu.ID == "" || edu.UserID != ada.ID {
		t.Fatalf("AddEducation() did not assign id/owner: %+v", edu)
	}

	// Someone else's id reads as not found.
	if err := env.profiles.UpdateEducation(ctx, bob.ID, edu.ID, model.EducationUpdate{Degree: ptr("PhD")}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateEducation() by other user error = %v, want ErrNotFound", err)
	}
	if err := env.profiles.DeleteEducation(ctx, bob.ID, edu.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteEducation() by other user error = %v, want ErrNotFound", err)
	}

	if err := env.profiles.UpdateEducation(ctx, ada.ID, edu.ID, model.EducationUpdate{Degree: ptr("MSc")}); err != nil {
		t.Fatalf("UpdateEducation() error = %v", err)
	}
	list, err := env.profiles.ListEducation(ctx, ada.ID)
	if err != nil {
		t.Fatalf("ListEducation() error = %v", err)
	}
	if len(list) != 1 || list[0].Degree != "MSc" || list[0].Institution != "Cambridge" {
		t.Errorf("ListEducation() = %+v", list)
	}

	if err := env.profiles.DeleteEducation(ctx, ada.ID, edu.ID); err != nil {
		t.Fatalf("DeleteEducation() error = %v", err)
	}
	if list, _ := env.profiles.ListEducation(ctx, ada.ID); len(list) != 0 {
		t.Errorf("education still listed after delete: %+v", list)
	}
}

func TestChildRecords_Validation(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.register(t, "ada")
	ctx := context.Background()

	checks := map[string]error{
		"education missing institution": env.profiles.AddEducation(ctx, user.ID, &model.Education{Degree: "BSc"}),
		"certification missing name":    env.profiles.AddCertification(ctx, user.ID, &model.Certification{Issuer: "AWS"}),
		"work missing company":          env.profiles.AddWorkExperience(ctx, user.ID, &model.WorkExperience{JobTitle: "Dev"}),
		"internship missing title":      env.profiles.AddInternship(ctx, user.ID, &model.Internship{CompanyName: "ACME"}),
		"project missing title":         env.profiles.AddProject(ctx, user.ID, &model.Project{Description: "x"}),
		"empty project update":          env.profiles.UpdateProject(ctx, user.ID, "any", model.ProjectUpdate{}),
	}
	for name, err := range checks {
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("%s: error = %v, want validation error", name, err)
		}
	}
}

func TestChildRecords_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	err := env.profiles.AddCertification(context.Background(), "missing", &model.Certification{Name: "CKA"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("AddCertification() error = %v, want ErrNotFound", err)
	}
}

func TestAddProject_AlwaysManual(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.register(t, "ada")
	ctx := context.Background()

	p := &model.Project{Title: "Compiler", Source: model.ProjectSourceResume}
	if err := env.profiles.AddProject(ctx, user.ID, p); err != nil {
		t.Fatalf("AddProject() error = %v", err)
	}
	if p.Source != model.ProjectSourceManual {
		t.Errorf("Source = %q, want manual", p.Source)
	}
}

func TestProfile_IncludesAllChildren(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.register(t, "ada")
	ctx := context.Background()

	env.profiles.AddEducation(ctx, user.ID, &model.Education{Degree: "BSc", Institution: "MIT"})
	env.profiles.AddCertification(ctx, user.ID, &model.Certification{Name: "CKA"})
	env.profiles.AddWorkExperience(ctx, user.ID, &model.WorkExperience{JobTitle: "Dev", CompanyName: "ACME"})
	env.profiles.AddInternship(ctx, user.ID, &model.Internship{PositionTitle: "Intern", CompanyName: "ACME"})
	env.profiles.AddProject(ctx, user.ID, &model.Project{Title: "Engine"})

	p, err := env.profiles.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(p.Education) != 1 || len(p.Certifications) != 1 || len(p.WorkExperience) != 1 ||
		len(p.Internships) != 1 || len(p.Projects) != 1 {
		t.Errorf("Get() children = edu %d, cert %d, work %d, intern %d, projects %d, want 1 each",
			len(p.Education), len(p.Certifications), len(p.WorkExperience), len(p.Internships), len(p.Projects))
	}
}

package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
)

func TestProject_AddDefaultsToManual(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada")

	p := &model.Project{UserID: user.ID, Title: "swipejobs", Technologies: model.StringList{"Go"}}
	if err := db.AddProject(context.Background(), p); err != nil {
		t.Fatalf("AddProject() error = %v", err)
	}
	if p.Source != model.ProjectSourceManual {
		t.Errorf("Source = %q, want %q", p.Source, model.ProjectSourceManual)
	}
}

func TestProject_UpdateStampsUpdatedAt(t *testing.T) {
	db := newTestDB(t, WithClock(stepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))))
	ctx := context.Background()
	user := createTestUser(t, db, "Ada")

	p := &model.Project{UserID: user.ID, Title: "old"}
	if err := db.AddProject(ctx, p); err != nil {
		t.Fatalf("AddProject() error = %v", err)
	}

	title := "new"
	if err := db.UpdateProject(ctx, user.ID, p.ID, model.ProjectUpdate{Title: &title}); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}

	list, err := db.ListProjects(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if list[0].Title != "new" {
		t.Errorf("Title = %q, want new", list[0].Title)
	}
	if !list[0].UpdatedAt.After(list[0].CreatedAt) {
		t.Errorf("UpdatedAt %v not after CreatedAt %v", list[0].UpdatedAt, list[0].CreatedAt)
	}
}

func TestProject_UpdateEmpty(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada")

	p := &model.Project{UserID: user.ID, Title: "x"}
	if err := db.AddProject(context.Background(), p); err != nil {
		t.Fatalf("AddProject() error = %v", err)
	}
	err := db.UpdateProject(context.Background(), user.ID, p.ID, model.ProjectUpdate{})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("UpdateProject() error = %v, want ErrValidation", err)
	}
}

func TestReplaceProjects_DoesNotAccumulate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "Ada")

	extracted := func() []model.Project {
		return []model.Project{
			{Title: "Compiler", Source: model.ProjectSourceResume},
			{Title: "Chat bot", Source: model.ProjectSourceResume},
		}
	}

	for run := 1; run <= 2; run++ {
		if err := db.ReplaceProjects(ctx, user.ID, extracted()); err != nil {
			t.Fatalf("ReplaceProjects() run %d error = %v", run, err)
		}
	}

	list, err := db.ListProjects(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListProjects() returned %d rows after two runs, want 2", len(list))
	}
	for _, p := range list {
		if p.Source != model.ProjectSourceResume {
			t.Errorf("Source = %q, want resume", p.Source)
		}
	}
}

func TestReplaceProjects_UnknownUserRollsBack(t *testing.T) {
	db := newTestDB(t)

	err := db.ReplaceProjects(context.Background(), "ghost", []model.Project{{Title: "x"}})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ReplaceProjects() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// APPLICATION TESTS
// =========================================================================

func TestApplications_NewestFirst(t *testing.T) {
	db := newTestDB(t, WithClock(stepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))))
	ctx := context.Background()
	user := createTestUser(t, db, "Ada")

	for _, title := range []string{"first", "second", "third"} {
		app := &model.JobApplication{UserID: user.ID, UserEmail: user.Email, JobTitle: title, Company: "Acme"}
		if err := db.CreateApplication(ctx, app); err != nil {
			t.Fatalf("CreateApplication(%s) error = %v", title, err)
		}
	}

	apps, err := db.ListApplications(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListApplications() error = %v", err)
	}
	if len(apps) != 3 {
		t.Fatalf("ListApplications() returned %d, want 3", len(apps))
	}
	if apps[0].JobTitle != "third" || apps[2].JobTitle != "first" {
		t.Errorf("order = %s, %s, %s; want newest first", apps[0].JobTitle, apps[1].JobTitle, apps[2].JobTitle)
	}
}

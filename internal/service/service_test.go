package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sakif/swipejobs/internal/auth"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/repository/sqlite"
	"github.com/sakif/swipejobs/internal/storage"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================
//
// Repository-backed services run against a real in-memory SQLite database:
// the schema, cascades and unique constraints are part of what is under
// test. External collaborators (the AI model, GitHub, job sources) are
// hand-written fakes.

// testClock is a settable clock shared by the repository and the services.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeExtractor returns a fixed extract and counts calls.
type fakeExtractor struct {
	out   *model.ResumeExtract
	err   error
	calls int
	text  string
}

func (f *fakeExtractor) Extract(_ context.Context, text string) (*model.ResumeExtract, error) {
	f.calls++
	f.text = text
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.out
	return &cp, nil
}

type testEnv struct {
	db        *sqlite.DB
	clock     *testClock
	dir       string
	sessions  *SessionService
	accounts  *AccountService
	profiles  *ProfileService
	resumes   *ResumeService
	apps      *ApplicationService
	extractor *fakeExtractor
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := newTestClock()

	db, err := sqlite.New(":memory:", sqlite.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("sqlite.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	codes, err := auth.NewCodeService("test-login-code-secret", 4)
	if err != nil {
		t.Fatalf("NewCodeService() error = %v", err)
	}

	logger := testLogger()
	extractor := &fakeExtractor{out: &model.ResumeExtract{}}

	sessions := NewSessionService(db, DefaultSessionTTL, logger)
	sessions.now = clock.Now

	resumes := NewResumeService(db, db, storage.NewResumes(store, 5<<20), extractor, logger)
	resumes.now = clock.Now

	accounts := NewAccountService(db, sessions, codes, resumes, 0, logger)
	accounts.now = clock.Now

	return &testEnv{
		db:        db,
		clock:     clock,
		dir:       dir,
		sessions:  sessions,
		accounts:  accounts,
		profiles:  NewProfileService(db, db, logger),
		resumes:   resumes,
		apps:      NewApplicationService(db, db, logger),
		extractor: extractor,
	}
}

// register creates a user with the given name and returns it with its code.
func (e *testEnv) register(t *testing.T, name string) (*model.User, string) {
	t.Helper()
	reg, err := e.accounts.Register(context.Background(), RegisterInput{
		Name:  name,
		Email: name + "@example.com",
	})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", name, err)
	}
	return reg.User, reg.LoginCode
}

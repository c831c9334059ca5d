package sqlite

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
)

// Driver failures that an in-memory database cannot produce on demand are
// exercised against sqlmock.

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return newDB(conn), mock
}

var errDriver = errors.New("disk I/O error")

func TestGetUserByID_PropagatesDriverError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ?`)).
		WithArgs("u1").
		WillReturnError(errDriver)

	_, err := db.GetUserByID(context.Background(), "u1")
	if !errors.Is(err, errDriver) {
		t.Errorf("GetUserByID() error = %v, want wrapped driver error", err)
	}
	if errors.Is(err, apperror.ErrNotFound) {
		t.Error("driver error reported as not found")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceProjects_RollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_projects WHERE user_id = ?`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_projects`)).
		WillReturnError(errDriver)
	mock.ExpectRollback()

	err := db.ReplaceProjects(context.Background(), "u1", []model.Project{{Title: "x"}})
	if !errors.Is(err, errDriver) {
		t.Errorf("ReplaceProjects() error = %v, want wrapped driver error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceRepositories_RollsBackOnLanguageFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM github_repositories WHERE user_id = ?`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO github_repositories`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO github_repository_languages`)).
		WillReturnError(errDriver)
	mock.ExpectRollback()

	repos := []model.Repository{{
		GitHubID:  1,
		Name:      "alpha",
		FullName:  "octo/alpha",
		Languages: []model.Language{{Name: "Go", Bytes: 10, Percentage: 100}},
	}}
	err := db.ReplaceRepositories(context.Background(), "u1", repos)
	if !errors.Is(err, errDriver) {
		t.Errorf("ReplaceRepositories() error = %v, want wrapped driver error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteExpiredSessions_PropagatesDriverError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_sessions WHERE expires_at <= ?`)).
		WillReturnError(errDriver)

	_, err := db.DeleteExpiredSessions(context.Background(), time.Now())
	if !errors.Is(err, errDriver) {
		t.Errorf("DeleteExpiredSessions() error = %v, want wrapped driver error", err)
	}
}

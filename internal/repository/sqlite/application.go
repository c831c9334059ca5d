package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/repository"
)

var _ repository.ApplicationRepository = (*DB)(nil)

// CreateApplication appends a job application. Applications are never
// updated or deleted individually.
func (db *DB) CreateApplication(ctx context.Context, app *model.JobApplication) error {
	app.ID = xid.New().String()
	app.AppliedAt = db.timestamp()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO job_applications (id, user_id, user_email, job_title, company, job_source, job_url, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.UserID, app.UserEmail, app.JobTitle, app.Company, app.JobSource, app.JobURL, app.AppliedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", app.UserID)
		}
		return fmt.Errorf("sqlite: inserting application for user %s: %w", app.UserID, err)
	}
	return nil
}

// ListApplications returns the user's applications, newest first.
func (db *DB) ListApplications(ctx context.Context, userID string) ([]model.JobApplication, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, user_email, job_title, company, job_source, job_url, applied_at
		 FROM job_applications WHERE user_id = ? ORDER BY applied_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing applications for user %s: %w", userID, err)
	}
	defer rows.Close()

	out := []model.JobApplication{}
	for rows.Next() {
		var a model.JobApplication
		if err := rows.Scan(&a.ID, &a.UserID, &a.UserEmail, &a.JobTitle, &a.Company,
			&a.JobSource, &a.JobURL, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning application: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating applications: %w", err)
	}
	return out, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
)

// AddProject inserts a project. Source defaults to "manual".
func (db *DB) AddProject(ctx context.Context, p *model.Project) error {
	if err := insertProject(ctx, db.conn, db, p); err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", p.UserID)
		}
		return fmt.Errorf("sqlite: inserting project for user %s: %w", p.UserID, err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertProject(ctx context.Context, ex execer, db *DB, p *model.Project) error {
	now := db.timestamp()
	p.ID = xid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Source == "" {
		p.Source = model.ProjectSourceManual
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO user_projects
		   (id, user_id, title, description, technologies, project_url, repository_url,
		    start_date, end_date, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Title, p.Description, p.Technologies, p.ProjectURL, p.RepositoryURL,
		p.StartDate, p.EndDate, p.Source, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// UpdateProject applies a partial update and stamps updated_at.
func (db *DB) UpdateProject(ctx context.Context, userID, id string, u model.ProjectUpdate) error {
	sets := u.Assignments()
	if len(sets) == 0 {
		return apperror.ValidationFailed("", "no fields to update")
	}
	return db.updateColumns(ctx, "user_projects", "project", userID, id, sets,
		model.Assignment{Column: "updated_at", Value: db.timestamp()})
}

func (db *DB) DeleteProject(ctx context.Context, userID, id string) error {
	return db.deleteOwned(ctx, "user_projects", "project", userID, id)
}

// ListProjects returns the user's projects, oldest first.
func (db *DB) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, title, description, technologies, project_url, repository_url,
		        start_date, end_date, source, created_at, updated_at
		 FROM user_projects WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects for user %s: %w", userID, err)
	}
	defer rows.Close()

	out := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Technologies, &p.ProjectURL,
			&p.RepositoryURL, &p.StartDate, &p.EndDate, &p.Source, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating projects: %w", err)
	}
	return out, nil
}

// ReplaceProjects swaps the user's whole project list inside one
// transaction, so a reader never sees a half-replaced list.
func (db *DB) ReplaceProjects(ctx context.Context, userID string, projects []model.Project) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning project replace: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM user_projects WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlite: clearing projects for user %s: %w", userID, err)
	}
	for i := range projects {
		projects[i].UserID = userID
		if err = insertProject(ctx, tx, db, &projects[i]); err != nil {
			if isForeignKeyViolation(err) {
				err = apperror.NotFound("user", userID)
				return err
			}
			return fmt.Errorf("sqlite: inserting project for user %s: %w", userID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing project replace: %w", err)
	}
	return nil
}

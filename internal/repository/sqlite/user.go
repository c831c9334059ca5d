package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, email, code_hash, code_digest,
	phone, location, linkedin_url, github_url, portfolio_url, bio,
	skills, preferences, job_types, preferred_roles, preferred_locations,
	work_mode, experience_level, years_experience, salary_min, salary_max,
	salary_currency, notice_period, job_search_status, programming_languages, languages,
	resume_filename, resume_path, resume_uploaded_at, resume_parsed,
	ai_summary, ai_skills, resume_extracted, created_at, updated_at`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	var years, salaryMin, salaryMax sql.NullInt64
	var uploadedAt sql.NullTime
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.CodeHash, &u.CodeDigest,
		&u.Phone, &u.Location, &u.LinkedInURL, &u.GitHubURL, &u.PortfolioURL, &u.Bio,
		&u.Skills, &u.Preferences, &u.JobTypes, &u.PreferredRoles, &u.PreferredLocations,
		&u.WorkMode, &u.ExperienceLevel, &years, &salaryMin, &salaryMax,
		&u.SalaryCurrency, &u.NoticePeriod, &u.JobSearchStatus, &u.ProgrammingLanguages, &u.Languages,
		&u.ResumeFilename, &u.ResumePath, &uploadedAt, &u.ResumeParsed,
		&u.AISummary, &u.AISkills, &u.ResumeExtracted, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.YearsExperience = intPtr(years)
	u.SalaryMin = intPtr(salaryMin)
	u.SalaryMax = intPtr(salaryMax)
	u.ResumeUploadedAt = timePtr(uploadedAt)
	return &u, nil
}

// CreateUser inserts a new user. ID and timestamps are assigned here.
//
// The two UNIQUE columns are reported separately so the caller can tell a
// taken email (user error) from a login code collision (retry with a new code).
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := db.timestamp()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.CodeHash, user.CodeDigest,
		user.Phone, user.Location, user.LinkedInURL, user.GitHubURL, user.PortfolioURL, user.Bio,
		user.Skills, user.Preferences, user.JobTypes, user.PreferredRoles, user.PreferredLocations,
		user.WorkMode, user.ExperienceLevel, user.YearsExperience, user.SalaryMin, user.SalaryMax,
		user.SalaryCurrency, user.NoticePeriod, user.JobSearchStatus, user.ProgrammingLanguages, user.Languages,
		user.ResumeFilename, user.ResumePath, nullTime(user.ResumeUploadedAt), user.ResumeParsed,
		user.AISummary, user.AISkills, user.ResumeExtracted, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users.email"):
			return apperror.Duplicate("email", "email already exists")
		case isUniqueViolation(err, "users.code_digest"):
			return apperror.Duplicate("login_code", "login code already in use")
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// FindUserByCredentials returns the user whose name matches
// case-insensitively and whose login code digest matches exactly.
func (db *DB) FindUserByCredentials(ctx context.Context, name, codeDigest string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(name) = LOWER(?) AND code_digest = ?`,
		strings.TrimSpace(name), codeDigest,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", name)
		}
		return nil, fmt.Errorf("sqlite: finding user by credentials: %w", err)
	}
	return u, nil
}

// CodeDigestExists reports whether a login code digest is already taken.
func (db *DB) CodeDigestExists(ctx context.Context, codeDigest string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE code_digest = ?`, codeDigest,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking login code: %w", err)
	}
	return n > 0, nil
}

// UpdateProfile writes the non-nil fields of update and stamps updated_at.
// An empty update is rejected with a validation error.
func (db *DB) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) error {
	sets := update.Assignments()
	if len(sets) == 0 {
		return apperror.ValidationFailed("", "no fields to update")
	}
	sets = append(sets, model.Assignment{Column: "updated_at", Value: db.timestamp()})

	clauses, args := setClauses(sets)
	args = append(args, id)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(clauses, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return apperror.Duplicate("email", "email already exists")
		}
		return fmt.Errorf("sqlite: updating user %s: %w", id, err)
	}
	return expectAffected(res, "user", id)
}

// DeleteUser removes the user. Sessions, child records, applications and
// the GitHub link go with it through ON DELETE CASCADE.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	return expectAffected(res, "user", id)
}

// GetProfile assembles the composite profile with one query per table.
// Each query's rows are fully consumed before the next one starts.
func (db *DB) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	user, err := db.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p := &model.Profile{User: *user}
	if p.Education, err = db.ListEducation(ctx, id); err != nil {
		return nil, err
	}
	if p.Certifications, err = db.ListCertifications(ctx, id); err != nil {
		return nil, err
	}
	if p.WorkExperience, err = db.ListWorkExperience(ctx, id); err != nil {
		return nil, err
	}
	if p.Internships, err = db.ListInternships(ctx, id); err != nil {
		return nil, err
	}
	if p.Projects, err = db.ListProjects(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

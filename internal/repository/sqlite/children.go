package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/repository"
)

var _ repository.ProfileRepository = (*DB)(nil)

// =========================================================================
// EDUCATION
// =========================================================================

func (db *DB) AddEducation(ctx context.Context, e *model.Education) error {
	e.ID = xid.New().String()
	e.CreatedAt = db.timestamp()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_education
		   (id, user_id, degree, field_of_study, institution, start_date, end_date, gpa, location, description, achievements, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Degree, e.FieldOfStudy, e.Institution, e.StartDate, e.EndDate,
		e.GPA, e.Location, e.Description, e.Achievements, e.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", e.UserID)
		}
		return fmt.Errorf("sqlite: inserting education for user %s: %w", e.UserID, err)
	}
	return nil
}

func (db *DB) UpdateEducation(ctx context.Context, userID, id string, u model.EducationUpdate) error {
	return db.updateColumns(ctx, "user_education", "education", userID, id, u.Assignments())
}

func (db *DB) DeleteEducation(ctx context.Context, userID, id string) error {
	return db.deleteOwned(ctx, "user_education", "education", userID, id)
}

func (db *DB) ListEducation(ctx context.Context, userID string) ([]model.Education, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, degree, field_of_study, institution, start_date, end_date, gpa,
		        location, description, achievements, created_at
		 FROM user_education WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing education for user %s: %w", userID, err)
	}
	defer rows.Close()

	out := []model.Education{}
	for rows.Next() {
		var e model.Education
		var gpa sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Degree, &e.FieldOfStudy, &e.Institution, &e.StartDate,
			&e.EndDate, &gpa, &e.Location, &e.Description, &e.Achievements, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning education: %w", err)
		}
		e.GPA = floatPtr(gpa)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating education: %w", err)
	}
	return out, nil
}

// =========================================================================
// CERTIFICATIONS
// =========================================================================

func (db *DB) AddCertification(ctx context.Context, c *model.Certification) error {
	c.ID = xid.New().String()
	c.CreatedAt = db.timestamp()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_certifications
		   (id, user_id, name, issuer, year_achieved, credential_id, credential_url, expiry_date, skills, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Issuer, c.YearAchieved, c.CredentialID, c.CredentialURL,
		c.ExpiryDate, c.Skills, c.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", c.UserID)
		}
		return fmt.Errorf("sqlite: inserting certification for user %s: %w", c.UserID, err)
	}
	return nil
}

func (db *DB) UpdateCertification(ctx context.Context, userID, id string, u model.CertificationUpdate) error {
	return db.updateColumns(ctx, "user_certifications", "certification", userID, id, u.Assignments())
}

func (db *DB) DeleteCertification(ctx context.Context, userID, id string) error {
	return db.deleteOwned(ctx, "user_certifications", "certification", userID, id)
}

func (db *DB) ListCertifications(ctx context.Context, userID string) ([]model.Certification, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, name, issuer, year_achieved, credential_id, credential_url, expiry_date, skills, created_at
		 FROM user_certifications WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing certifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	out := []model.Certification{}
	for rows.Next() {
		var c model.Certification
		var year sql.NullInt64
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Issuer, &year, &c.CredentialID,
			&c.CredentialURL, &c.ExpiryDate, &c.Skills, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning certification: %w", err)
		}
		c.YearAchieved = intPtr(year)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating certifications: %w", err)
	}
	return out, nil
}

// =========================================================================
// WORK EXPERIENCE
// =========================================================================

func (db *DB) AddWorkExperience(ctx context.Context, w *model.WorkExperience) error {
	w.ID = xid.New().String()
	w.CreatedAt = db.timestamp()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_work_experience
		   (id, user_id, job_title, company_name, employment_type, start_date, end_date, is_current,
		    location, work_mode, responsibilities, achievements, technologies_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.UserID, w.JobTitle, w.CompanyName, w.EmploymentType, w.StartDate, w.EndDate, w.IsCurrent,
		w.Location, w.WorkMode, w.Responsibilities, w.Achievements, w.TechnologiesUsed, w.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", w.UserID)
		}
		return fmt.Errorf("sqlite: inserting work experience for user %s: %w", w.UserID, err)
	}
	return nil
}

func (db *DB) UpdateWorkExperience(ctx context.Context, userID, id string, u model.WorkExperienceUpdate) error {
	return db.updateColumns(ctx, "user_work_experience", "work experience", userID, id, u.Assignments())
}

func (db *DB) DeleteWorkExperience(ctx context.Context, userID, id string) error {
	return db.deleteOwned(ctx, "user_work_experience", "work experience", userID, id)
}

func (db *DB) ListWorkExperience(ctx context.Context, userID string) ([]model.WorkExperience, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, job_title, company_name, employment_type, start_date, end_date, is_current,
		        location, work_mode, responsibilities, achievements, technologies_used, created_at
		 FROM user_work_experience WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing work experience for user %s: %w", userID, err)
	}
	defer rows.Close()

	out := []model.WorkExperience{}
	for rows.Next() {
		var w model.WorkExperience
		if err := rows.Scan(&w.ID, &w.UserID, &w.JobTitle, &w.CompanyName, &w.EmploymentType, &w.StartDate,
			&w.EndDate, &w.IsCurrent, &w.Location, &w.WorkMode, &w.Responsibilities, &w.Achievements,
			&w.TechnologiesUsed, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning work experience: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating work experience: %w", err)
	}
	return out, nil
}

// =========================================================================
// INTERNSHIPS
// =========================================================================

func (db *DB) AddInternship(ctx context.Context, i *model.Internship) error {
	i.ID = xid.New().String()
	i.CreatedAt = db.timestamp()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_internships
		   (id, user_id, position_title, company_name, internship_type, start_date, end_date, location, work_mode,
		    responsibilities, achievements, technologies_used, stipend_amount, stipend_currency, certificate_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.UserID, i.PositionTitle, i.CompanyName, i.InternshipType, i.StartDate, i.EndDate, i.Location,
		i.WorkMode, i.Responsibilities, i.Achievements, i.TechnologiesUsed, i.StipendAmount, i.StipendCurrency,
		i.CertificateURL, i.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", i.UserID)
		}
		return fmt.Errorf("sqlite: inserting internship for user %s: %w", i.UserID, err)
	}
	return nil
}

func (db *DB) UpdateInternship(ctx context.Context, userID, id string, u model.InternshipUpdate) error {
	return db.updateColumns(ctx, "user_internships", "internship", userID, id, u.Assignments())
}

func (db *DB) DeleteInternship(ctx context.Context, userID, id string) error {
	return db.deleteOwned(ctx, "user_internships", "internship", userID, id)
}

func (db *DB) ListInternships(ctx context.Context, userID string) ([]model.Internship, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, position_title, company_name, internship_type, start_date, end_date, location, work_mode,
		        responsibilities, achievements, technologies_used, stipend_amount, stipend_currency, certificate_url, created_at
		 FROM user_internships WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing internships for user %s: %w", userID, err)
	}
	defer rows.Close()

	out := []model.Internship{}
	for rows.Next() {
		var i model.Internship
		var stipend sql.NullFloat64
		if err := rows.Scan(&i.ID, &i.UserID, &i.PositionTitle, &i.CompanyName, &i.InternshipType, &i.StartDate,
			&i.EndDate, &i.Location, &i.WorkMode, &i.Responsibilities, &i.Achievements, &i.TechnologiesUsed,
			&stipend, &i.StipendCurrency, &i.CertificateURL, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning internship: %w", err)
		}
		i.StipendAmount = floatPtr(stipend)
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating internships: %w", err)
	}
	return out, nil
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

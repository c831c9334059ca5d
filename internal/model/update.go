package model

import "time"

// Assignment is one "column = value" pair of an UPDATE statement.
// Column names come only from the Assignments methods below, never from
// request input.
type Assignment struct {
	Column string
	Value  any
}

func set[T any](out []Assignment, column string, v *T) []Assignment {
	if v == nil {
		return out
	}
	return append(out, Assignment{Column: column, Value: *v})
}

// ProfileUpdate is a partial update of the user row. A nil field is left
// untouched; a non-nil field (even an empty value) is written.
//
// The resume fields are tagged json:"-" so they can only be set by the
// resume workflow, never by a client PUT.
type ProfileUpdate struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Phone        *string `json:"phone" validate:"omitempty,max=50"`
	Location     *string `json:"location" validate:"omitempty,max=200"`
	LinkedInURL  *string `json:"linkedinUrl" validate:"omitempty,url"`
	GitHubURL    *string `json:"githubUrl" validate:"omitempty,url"`
	PortfolioURL *string `json:"portfolioUrl" validate:"omitempty,url"`
	Bio          *string `json:"bio" validate:"omitempty,max=5000"`

	Skills               *StringList `json:"skills"`
	Preferences          *StringList `json:"preferences"`
	JobTypes             *StringList `json:"jobTypes"`
	PreferredRoles       *StringList `json:"preferredRoles"`
	PreferredLocations   *StringList `json:"preferredLocations"`
	WorkMode             *string     `json:"workMode"`
	ExperienceLevel      *string     `json:"experienceLevel"`
	YearsExperience      *int        `json:"yearsExperience" validate:"omitempty,gte=0,lte=80"`
	SalaryMin            *int        `json:"salaryMin" validate:"omitempty,gte=0"`
	SalaryMax            *int        `json:"salaryMax" validate:"omitempty,gte=0"`
	SalaryCurrency       *string     `json:"salaryCurrency" validate:"omitempty,max=10"`
	NoticePeriod         *string     `json:"noticePeriod"`
	JobSearchStatus      *string     `json:"jobSearchStatus"`
	ProgrammingLanguages *StringMap  `json:"programmingLanguages"`
	Languages            *StringMap  `json:"languages"`

	ResumeFilename   *string        `json:"-"`
	ResumePath       *string        `json:"-"`
	ResumeUploadedAt *time.Time     `json:"-"`
	ResumeParsed     *bool          `json:"-"`
	AISummary        *string        `json:"-"`
	AISkills         *StringList    `json:"-"`
	ResumeExtracted  *ResumeExtract `json:"-"`
}

// Assignments lists the columns this update writes, in a fixed order.
func (u ProfileUpdate) Assignments() []Assignment {
	var out []Assignment
	out = set(out, "name", u.Name)
	out = set(out, "email", u.Email)
	out = set(out, "phone", u.Phone)
	out = set(out, "location", u.Location)
	out = set(out, "linkedin_url", u.LinkedInURL)
	out = set(out, "github_url", u.GitHubURL)
	out = set(out, "portfolio_url", u.PortfolioURL)
	out = set(out, "bio", u.Bio)
	out = set(out, "skills", u.Skills)
	out = set(out, "preferences", u.Preferences)
	out = set(out, "job_types", u.JobTypes)
	out = set(out, "preferred_roles", u.PreferredRoles)
	out = set(out, "preferred_locations", u.PreferredLocations)
	out = set(out, "work_mode", u.WorkMode)
	out = set(out, "experience_level", u.ExperienceLevel)
	out = set(out, "years_experience", u.YearsExperience)
	out = set(out, "salary_min", u.SalaryMin)
	out = set(out, "salary_max", u.SalaryMax)
	out = set(out, "salary_currency", u.SalaryCurrency)
	out = set(out, "notice_period", u.NoticePeriod)
	out = set(out, "job_search_status", u.JobSearchStatus)
	out = set(out, "programming_languages", u.ProgrammingLanguages)
	out = set(out, "languages", u.Languages)
	out = set(out, "resume_filename", u.ResumeFilename)
	out = set(out, "resume_path", u.ResumePath)
	out = set(out, "resume_uploaded_at", u.ResumeUploadedAt)
	out = set(out, "resume_parsed", u.ResumeParsed)
	out = set(out, "ai_summary", u.AISummary)
	out = set(out, "ai_skills", u.AISkills)
	out = set(out, "resume_extracted", u.ResumeExtracted)
	return out
}

// IsEmpty reports whether the update would write nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return len(u.Assignments()) == 0
}

// EducationUpdate is a partial update of an Education row.
type EducationUpdate struct {
	Degree       *string     `json:"degree" validate:"omitempty,min=1,max=200"`
	FieldOfStudy *string     `json:"fieldOfStudy" validate:"omitempty,max=200"`
	Institution  *string     `json:"institution" validate:"omitempty,min=1,max=200"`
	StartDate    *string     `json:"startDate"`
	EndDate      *string     `json:"endDate"`
	GPA          *float64    `json:"gpa" validate:"omitempty,gte=0,lte=10"`
	Location     *string     `json:"location"`
	Description  *string     `json:"description"`
	Achievements *StringList `json:"achievements"`
}

// Assignments lists the columns this update writes.
func (u EducationUpdate) Assignments() []Assignment {
	var out []Assignment
	out = set(out, "degree", u.Degree)
	out = set(out, "field_of_study", u.FieldOfStudy)
	out = set(out, "institution", u.Institution)
	out = set(out, "start_date", u.StartDate)
	out = set(out, "end_date", u.EndDate)
	out = set(out, "gpa", u.GPA)
	out = set(out, "location", u.Location)
	out = set(out, "description", u.Description)
	out = set(out, "achievements", u.Achievements)
	return out
}

// CertificationUpdate is a partial update of a Certification row.
type CertificationUpdate struct {
	Name          *string     `json:"name" validate:"omitempty,min=1,max=200"`
	Issuer        *string     `json:"issuer" validate:"omitempty,max=200"`
	YearAchieved  *int        `json:"yearAchieved" validate:"omitempty,gte=1900,lte=2100"`
	CredentialID  *string     `json:"credentialId"`
	CredentialURL *string     `json:"credentialUrl" validate:"omitempty,url"`
	ExpiryDate    *string     `json:"expiryDate"`
	Skills        *StringList `json:"skills"`
}

// Assignments lists the columns this update writes.
func (u CertificationUpdate) Assignments() []Assignment {
	var out []Assignment
	out = set(out, "name", u.Name)
	out = set(out, "issuer", u.Issuer)
	out = set(out, "year_achieved", u.YearAchieved)
	out = set(out, "credential_id", u.CredentialID)
	out = set(out, "credential_url", u.CredentialURL)
	out = set(out, "expiry_date", u.ExpiryDate)
	out = set(out, "skills", u.Skills)
	return out
}

// WorkExperienceUpdate is a partial update of a WorkExperience row.
type WorkExperienceUpdate struct {
	JobTitle         *string     `json:"jobTitle" validate:"omitempty,min=1,max=200"`
	CompanyName      *string     `json:"companyName" validate:"omitempty,min=1,max=200"`
	EmploymentType   *string     `json:"employmentType"`
	StartDate        *string     `json:"startDate"`
	EndDate          *string     `json:"endDate"`
	IsCurrent        *bool       `json:"isCurrent"`
	Location         *string     `json:"location"`
	WorkMode         *string     `json:"workMode"`
	Responsibilities *string     `json:"responsibilities"`
	Achievements     *string     `json:"achievements"`
	TechnologiesUsed *StringList `json:"technologiesUsed"`
}

// Assignments lists the columns this update writes.
func (u WorkExperienceUpdate) Assignments() []Assignment {
	var out []Assignment
	out = set(out, "job_title", u.JobTitle)
	out = set(out, "company_name", u.CompanyName)
	out = set(out, "employment_type", u.EmploymentType)
	out = set(out, "start_date", u.StartDate)
	out = set(out, "end_date", u.EndDate)
	out = set(out, "is_current", u.IsCurrent)
	out = set(out, "location", u.Location)
	out = set(out, "work_mode", u.WorkMode)
	out = set(out, "responsibilities", u.Responsibilities)
	out = set(out, "achievements", u.Achievements)
	out = set(out, "technologies_used", u.TechnologiesUsed)
	return out
}

// InternshipUpdate is a partial update of an Internship row.
type InternshipUpdate struct {
	PositionTitle    *string     `json:"positionTitle" validate:"omitempty,min=1,max=200"`
	CompanyName      *string     `json:"companyName" validate:"omitempty,min=1,max=200"`
	InternshipType   *string     `json:"internshipType"`
	StartDate        *string     `json:"startDate"`
	EndDate          *string     `json:"endDate"`
	Location         *string     `json:"location"`
	WorkMode         *string     `json:"workMode"`
	Responsibilities *string     `json:"responsibilities"`
	Achievements     *string     `json:"achievements"`
	TechnologiesUsed *StringList `json:"technologiesUsed"`
	StipendAmount    *float64    `json:"stipendAmount" validate:"omitempty,gte=0"`
	StipendCurrency  *string     `json:"stipendCurrency"`
	CertificateURL   *string     `json:"certificateUrl" validate:"omitempty,url"`
}

// Assignments lists the columns this update writes.
func (u InternshipUpdate) Assignments() []Assignment {
	var out []Assignment
	out = set(out, "position_title", u.PositionTitle)
	out = set(out, "company_name", u.CompanyName)
	out = set(out, "internship_type", u.InternshipType)
	out = set(out, "start_date", u.StartDate)
	out = set(out, "end_date", u.EndDate)
	out = set(out, "location", u.Location)
	out = set(out, "work_mode", u.WorkMode)
	out = set(out, "responsibilities", u.Responsibilities)
	out = set(out, "achievements", u.Achievements)
	out = set(out, "technologies_used", u.TechnologiesUsed)
	out = set(out, "stipend_amount", u.StipendAmount)
	out = set(out, "stipend_currency", u.StipendCurrency)
	out = set(out, "certificate_url", u.CertificateURL)
	return out
}

// ProjectUpdate is a partial update of a Project row.
type ProjectUpdate struct {
	Title         *string     `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string     `json:"description" validate:"omitempty,max=5000"`
	Technologies  *StringList `json:"technologies"`
	ProjectURL    *string     `json:"projectUrl" validate:"omitempty,url"`
	RepositoryURL *string     `json:"repositoryUrl" validate:"omitempty,url"`
	StartDate     *string     `json:"startDate"`
	EndDate       *string     `json:"endDate"`
}

// Assignments lists the columns this update writes.
func (u ProjectUpdate) Assignments() []Assignment {
	var out []Assignment
	out = set(out, "title", u.Title)
	out = set(out, "description", u.Description)
	out = set(out, "technologies", u.Technologies)
	out = set(out, "project_url", u.ProjectURL)
	out = set(out, "repository_url", u.RepositoryURL)
	out = set(out, "start_date", u.StartDate)
	out = set(out, "end_date", u.EndDate)
	return out
}

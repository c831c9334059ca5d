// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered job seeker.
//
// The login code itself is never stored: CodeHash is the bcrypt credential
// and CodeDigest is a keyed digest used for uniqueness and lookup.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	CodeHash   string `json:"-"`
	CodeDigest string `json:"-"`

	Phone        string `json:"phone"`
	Location     string `json:"location"`
	LinkedInURL  string `json:"linkedinUrl"`
	GitHubURL    string `json:"githubUrl"`
	PortfolioURL string `json:"portfolioUrl"`
	Bio          string `json:"bio"`

	Skills               StringList `json:"skills"`
	Preferences          StringList `json:"preferences"`
	JobTypes             StringList `json:"jobTypes"`
	PreferredRoles       StringList `json:"preferredRoles"`
	PreferredLocations   StringList `json:"preferredLocations"`
	WorkMode             string     `json:"workMode"`
	ExperienceLevel      string     `json:"experienceLevel"`
	YearsExperience      *int       `json:"yearsExperience"`
	SalaryMin            *int       `json:"salaryMin"`
	SalaryMax            *int       `json:"salaryMax"`
	SalaryCurrency       string     `json:"salaryCurrency"`
	NoticePeriod         string     `json:"noticePeriod"`
	JobSearchStatus      string     `json:"jobSearchStatus"`
	ProgrammingLanguages StringMap  `json:"programmingLanguages"` // language -> proficiency
	Languages            StringMap  `json:"languages"`            // spoken language -> level

	ResumeFilename   string        `json:"resumeFilename"`
	ResumePath       string        `json:"-"`
	ResumeUploadedAt *time.Time    `json:"resumeUploadedAt"`
	ResumeParsed     bool          `json:"resumeParsed"`
	AISummary        string        `json:"aiSummary"`
	AISkills         StringList    `json:"aiSkills"`
	ResumeExtracted  ResumeExtract `json:"resumeExtracted"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile is the composite view of a user and every child collection.
type Profile struct {
	User
	Education      []Education      `json:"education"`
	Certifications []Certification  `json:"certifications"`
	WorkExperience []WorkExperience `json:"workExperience"`
	Internships    []Internship     `json:"internships"`
	Projects       []Project        `json:"projects"`
}

// Session binds a bearer token to a user until ExpiresAt.
// Only the token digest is persisted; Token is filled in at creation.
type Session struct {
	Token     string    `json:"token,omitempty"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// JobApplication records a user applying to an external listing.
// Applications are append-only.
type JobApplication struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail"`
	JobTitle  string    `json:"jobTitle" validate:"required,max=300"`
	Company   string    `json:"company" validate:"required,max=300"`
	JobSource string    `json:"jobSource" validate:"max=100"`
	JobURL    string    `json:"jobUrl" validate:"omitempty,url"`
	AppliedAt time.Time `json:"appliedAt"`
}

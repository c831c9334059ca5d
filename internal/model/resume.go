package model

// ResumeExtract is the structured data an AI model pulls out of a resume.
// It is persisted whole on the user row and also feeds the profile merge.
type ResumeExtract struct {
	Name                 string              `json:"name,omitempty"`
	Email                string              `json:"email,omitempty"`
	Phone                string              `json:"phone,omitempty"`
	Location             string              `json:"location,omitempty"`
	LinkedInURL          string              `json:"linkedinUrl,omitempty"`
	GitHubURL            string              `json:"githubUrl,omitempty"`
	PortfolioURL         string              `json:"portfolioUrl,omitempty"`
	Summary              string              `json:"summary,omitempty"`
	Skills               []string            `json:"skills,omitempty"`
	ProgrammingLanguages map[string]string   `json:"programmingLanguages,omitempty"`
	YearsExperience      *int                `json:"yearsExperience,omitempty"`
	Education            []ExtractedSchool   `json:"education,omitempty"`
	WorkExperience       []ExtractedPosition `json:"workExperience,omitempty"`
	Projects             []ExtractedProject  `json:"projects,omitempty"`
}

// ExtractedSchool is an education entry found in a resume.
type ExtractedSchool struct {
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty"`
	Institution  string `json:"institution"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
}

// ExtractedPosition is a job found in a resume.
type ExtractedPosition struct {
	JobTitle     string   `json:"jobTitle"`
	CompanyName  string   `json:"companyName"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// ExtractedProject is a project found in a resume.
type ExtractedProject struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// JobListing is a normalised posting from any job source.
type JobListing struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location"`
	ApplyURL    string   `json:"applyUrl"`
	Description string   `json:"description"`
	Salary      string   `json:"salary"`
	Date        string   `json:"date"`
	Source      string   `json:"source"`
}

package model

import "time"

// Child records owned by a user. Every table has ON DELETE CASCADE on
// user_id, so deleting the user removes them all.

// Education is one degree or course of study.
type Education struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Degree       string     `json:"degree" validate:"required,max=200"`
	FieldOfStudy string     `json:"fieldOfStudy" validate:"max=200"`
	Institution  string     `json:"institution" validate:"required,max=200"`
	StartDate    string     `json:"startDate"`
	EndDate      string     `json:"endDate"`
	GPA          *float64   `json:"gpa" validate:"omitempty,gte=0,lte=10"`
	Location     string     `json:"location"`
	Description  string     `json:"description"`
	Achievements StringList `json:"achievements"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Certification is a professional certificate.
type Certification struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Name          string     `json:"name" validate:"required,max=200"`
	Issuer        string     `json:"issuer" validate:"max=200"`
	YearAchieved  *int       `json:"yearAchieved" validate:"omitempty,gte=1900,lte=2100"`
	CredentialID  string     `json:"credentialId"`
	CredentialURL string     `json:"credentialUrl" validate:"omitempty,url"`
	ExpiryDate    string     `json:"expiryDate"`
	Skills        StringList `json:"skills"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// WorkExperience is a position held at a company.
type WorkExperience struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	JobTitle         string     `json:"jobTitle" validate:"required,max=200"`
	CompanyName      string     `json:"companyName" validate:"required,max=200"`
	EmploymentType   string     `json:"employmentType"`
	StartDate        string     `json:"startDate"`
	EndDate          string     `json:"endDate"`
	IsCurrent        bool       `json:"isCurrent"`
	Location         string     `json:"location"`
	WorkMode         string     `json:"workMode"`
	Responsibilities string     `json:"responsibilities"`
	Achievements     string     `json:"achievements"`
	TechnologiesUsed StringList `json:"technologiesUsed"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Internship is a WorkExperience with stipend and certificate details.
type Internship struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	PositionTitle    string     `json:"positionTitle" validate:"required,max=200"`
	CompanyName      string     `json:"companyName" validate:"required,max=200"`
	InternshipType   string     `json:"internshipType"`
	StartDate        string     `json:"startDate"`
	EndDate          string     `json:"endDate"`
	Location         string     `json:"location"`
	WorkMode         string     `json:"workMode"`
	Responsibilities string     `json:"responsibilities"`
	Achievements     string     `json:"achievements"`
	TechnologiesUsed StringList `json:"technologiesUsed"`
	StipendAmount    *float64   `json:"stipendAmount" validate:"omitempty,gte=0"`
	StipendCurrency  string     `json:"stipendCurrency"`
	CertificateURL   string     `json:"certificateUrl" validate:"omitempty,url"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Project sources.
const (
	ProjectSourceManual = "manual"
	ProjectSourceResume = "resume"
)

// Project is a portfolio project, entered by hand or extracted from a resume.
type Project struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Title         string     `json:"title" validate:"required,max=200"`
	Description   string     `json:"description" validate:"max=5000"`
	Technologies  StringList `json:"technologies"`
	ProjectURL    string     `json:"projectUrl" validate:"omitempty,url"`
	RepositoryURL string     `json:"repositoryUrl" validate:"omitempty,url"`
	StartDate     string     `json:"startDate"`
	EndDate       string     `json:"endDate"`
	Source        string     `json:"source"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

package model

import "time"

// GitHubLink connects a user to one GitHub account. A GitHub account can be
// linked to at most one user.
type GitHubLink struct {
	UserID      string     `json:"userId"`
	GitHubID    int64      `json:"githubId"`
	Username    string     `json:"username"`
	AvatarURL   string     `json:"avatarUrl"`
	TokenCipher string     `json:"-"` // encrypted OAuth access token
	LinkedAt    time.Time  `json:"linkedAt"`
	LastSyncAt  *time.Time `json:"lastSyncAt"`
}

// Repository is a locally mirrored GitHub repository.
type Repository struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	GitHubID    int64      `json:"githubId"`
	Name        string     `json:"name"`
	FullName    string     `json:"fullName"`
	Description string     `json:"description"`
	HTMLURL     string     `json:"htmlUrl"`
	CloneURL    string     `json:"cloneUrl"`
	Language    string     `json:"language"`
	Stars       int        `json:"stars"`
	Forks       int        `json:"forks"`
	IsFork      bool       `json:"isFork"`
	IsPrivate   bool       `json:"isPrivate"`
	Topics      StringList `json:"topics"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Languages   []Language `json:"languages"`
	Readme      *Readme    `json:"readme,omitempty"`
}

// Language is one entry of a repository's language breakdown.
type Language struct {
	Name       string  `json:"name"`
	Bytes      int64   `json:"bytes"`
	Percentage float64 `json:"percentage"`
}

// Readme is the first README found for a repository.
type Readme struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// GitHubStatus is what the API reports about a user's link.
type GitHubStatus struct {
	Linked          bool       `json:"linked"`
	Username        string     `json:"username,omitempty"`
	AvatarURL       string     `json:"avatarUrl,omitempty"`
	LinkedAt        *time.Time `json:"linkedAt,omitempty"`
	LastSyncAt      *time.Time `json:"lastSyncAt,omitempty"`
	RepositoryCount int        `json:"repositoryCount"`
}

// Package jobs fetches entry-level job listings from RemoteOK and asks an
// AI model for suggestions. Both sources produce model.JobListing.
package jobs

import (
	"context"

	"github.com/sakif/swipejobs/internal/model"
)

const (
	SourceRemoteOK = "RemoteOK"
	SourceGemini   = "Gemini AI"
)

// Source is one provider of job listings.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.JobListing, error)
}

// nonNilTags keeps "tags" a JSON array even when a source omitted it.
func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

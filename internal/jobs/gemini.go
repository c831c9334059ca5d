package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/llm"
	"github.com/sakif/swipejobs/internal/model"
)

// ErrNotAList is returned when the model answers with something other than
// a JSON array.
var ErrNotAList = errors.New("model output is not a JSON array")

var _ Source = (*Generator)(nil)

// Generator asks an AI model for recent remote entry-level roles.
type Generator struct {
	model  llm.Model
	logger *slog.Logger
	now    func() time.Time
}

// NewGenerator returns a generator. A nil model makes every Fetch fail
// with apperror.ErrUnavailable.
func NewGenerator(m llm.Model, logger *slog.Logger) *Generator {
	return &Generator{model: m, logger: logger, now: time.Now}
}

func (g *Generator) Name() string { return SourceGemini }

func (g *Generator) Fetch(ctx context.Context) ([]model.JobListing, error) {
	if g.model == nil {
		return nil, apperror.Unavailable("Gemini is not configured")
	}

	out, err := g.model.Generate(ctx, Prompt(g.now()))
	if err != nil {
		g.logger.Error("gemini job generation failed", slog.String("error", err.Error()))
		return nil, apperror.Upstream(SourceGemini, err)
	}

	listings, err := ParseListings(out)
	if err != nil {
		g.logger.Error("gemini returned unusable output",
			slog.String("error", err.Error()),
			slog.String("output", truncate(out, 500)))
		return nil, apperror.Upstream(SourceGemini, err)
	}

	g.logger.Info("generated gemini jobs", slog.Int("count", len(listings)))
	return listings, nil
}

// Prompt builds the job search prompt for the week ending at today.
func Prompt(today time.Time) string {
	weekAgo := today.AddDate(0, 0, -7).Format(time.DateOnly)
	return fmt.Sprintf(`You are a job search assistant. Find 10 recent remote internships or junior developer roles
(frontend, backend, ML/AI) posted between %s and %s.

Return the results as a valid JSON array with exactly this structure:
[
  {
    "title": "Job Title",
    "company": "Company Name",
    "tags": ["tag1", "tag2", "tag3"],
    "location": "Remote" or specific location,
    "apply_url": "https://example.com/apply",
    "description": "Brief job description (2-3 sentences)"
  }
]

Focus on:
- Remote positions only
- Entry-level roles (intern, junior, graduate, entry-level)
- Technology roles (software engineering, web development, data science, ML/AI)
- Recent postings (last 7 days)
- Real companies and realistic job descriptions

Ensure the JSON is valid and contains exactly 10 job listings.`, weekAgo, today.Format(time.DateOnly))
}

type generatedJob struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location"`
	ApplyURL    string   `json:"apply_url"`
	Description string   `json:"description"`
}

// ParseListings decodes the model's answer. Elements that are not objects
// are dropped.
func ParseListings(out string) ([]model.JobListing, error) {
	text := llm.StripCodeFence(out)
	if text == "" {
		return nil, fmt.Errorf("empty model output")
	}
	if !strings.HasPrefix(text, "[") {
		return nil, ErrNotAList
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("decoding model output: %w", err)
	}

	listings := []model.JobListing{}
	for _, raw := range items {
		var j generatedJob
		if len(raw) == 0 || raw[0] != '{' || json.Unmarshal(raw, &j) != nil {
			continue
		}
		location := j.Location
		if location == "" {
			location = "Remote"
		}
		listings = append(listings, model.JobListing{
			Title:       j.Title,
			Company:     j.Company,
			Tags:        nonNilTags(j.Tags),
			Location:    location,
			ApplyURL:    j.ApplyURL,
			Description: j.Description,
			Source:      SourceGemini,
		})
	}
	return listings, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
)

const (
	DefaultRemoteOKURL = "https://remoteok.com/api"
	userAgent          = "SwipingForJobs-Backend/1.0"
)

var _ Source = (*RemoteOK)(nil)

// RemoteOK reads the public RemoteOK feed and keeps intern and junior roles.
type RemoteOK struct {
	url     string
	limit   int
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

func NewRemoteOK(url string, timeout time.Duration, limit int, logger *slog.Logger) *RemoteOK {
	if url == "" {
		url = DefaultRemoteOKURL
	}
	if limit <= 0 {
		limit = 10
	}
	return &RemoteOK{
		url:     url,
		limit:   limit,
		timeout: timeout,
		client:  &http.Client{},
		logger:  logger,
	}
}

func (r *RemoteOK) Name() string { return SourceRemoteOK }

// remoteOKJob is one element of the feed. Salary may be a number or a
// string depending on the posting.
type remoteOKJob struct {
	Position    string   `json:"position"`
	Company     string   `json:"company"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location"`
	ApplyURL    string   `json:"apply_url"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	SalaryMin   any      `json:"salary_min"`
	Date        string   `json:"date"`
}

// Fetch calls the feed once. The first element of the feed is a legal
// notice, not a job, and is skipped.
func (r *RemoteOK) Fetch(ctx context.Context) ([]model.JobListing, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("jobs: building remoteok request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("remoteok request failed", slog.String("error", err.Error()))
		return nil, apperror.Upstream(SourceRemoteOK, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("remoteok returned an error", slog.Int("status", resp.StatusCode))
		return nil, apperror.Upstream(SourceRemoteOK, fmt.Errorf("status %d", resp.StatusCode))
	}

	var feed []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, apperror.Upstream(SourceRemoteOK, fmt.Errorf("decoding feed: %w", err))
	}
	if len(feed) > 1 {
		feed = feed[1:]
	}

	out := []model.JobListing{}
	for _, raw := range feed {
		var j remoteOKJob
		if len(raw) == 0 || raw[0] != '{' || json.Unmarshal(raw, &j) != nil {
			continue
		}
		if !isEntryLevel(j.Position) {
			continue
		}
		out = append(out, j.listing())
		if len(out) >= r.limit {
			break
		}
	}

	r.logger.Info("fetched remoteok jobs", slog.Int("count", len(out)))
	return out, nil
}

func isEntryLevel(title string) bool {
	t := strings.ToLower(title)
	return strings.Contains(t, "intern") || strings.Contains(t, "junior")
}

func (j remoteOKJob) listing() model.JobListing {
	location := j.Location
	if location == "" {
		location = "Remote"
	}
	apply := j.ApplyURL
	if apply == "" {
		apply = j.URL
	}
	return model.JobListing{
		Title:       j.Position,
		Company:     j.Company,
		Tags:        nonNilTags(j.Tags),
		Location:    location,
		ApplyURL:    apply,
		Description: j.Description,
		Salary:      salaryString(j.SalaryMin),
		Date:        j.Date,
		Source:      SourceRemoteOK,
	}
}

func salaryString(v any) string {
	switch s := v.(type) {
	case float64:
		if s == 0 {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case string:
		return s
	default:
		return ""
	}
}

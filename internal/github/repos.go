package github

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/swipejobs/internal/model"
)

const perPage = 100

// ReadmeCandidates are tried in order; the first one found wins.
var ReadmeCandidates = []string{"README.md", "README.rst", "README.txt", "README"}

type apiRepo struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	HTMLURL     string    `json:"html_url"`
	CloneURL    string    `json:"clone_url"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Fork        bool      `json:"fork"`
	Private     bool      `json:"private"`
	Topics      []string  `json:"topics"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Repositories lists every repository of the token's owner, most recently
// updated first, following pages until a short one.
func (c *Client) Repositories(ctx context.Context, token string) ([]model.Repository, error) {
	var out []model.Repository
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))
		q.Set("sort", "updated")
		q.Set("direction", "desc")

		var batch []apiRepo
		if err := c.getJSON(ctx, token, "/user/repos", q, "GET /user/repos", &batch); err != nil {
			return nil, err
		}
		for _, r := range batch {
			out = append(out, model.Repository{
				GitHubID:    r.ID,
				Name:        r.Name,
				FullName:    r.FullName,
				Description: r.Description,
				HTMLURL:     r.HTMLURL,
				CloneURL:    r.CloneURL,
				Language:    r.Language,
				Stars:       r.Stars,
				Forks:       r.Forks,
				IsFork:      r.Fork,
				IsPrivate:   r.Private,
				Topics:      model.StringList(r.Topics),
				CreatedAt:   r.CreatedAt,
				UpdatedAt:   r.UpdatedAt,
				Languages:   []model.Language{},
			})
		}
		if len(batch) < perPage {
			return out, nil
		}
	}
}

// Languages returns the byte-count breakdown of a repository with
// percentages of the total, largest first.
func (c *Client) Languages(ctx context.Context, token, fullName string) ([]model.Language, error) {
	var counts map[string]int64
	if err := c.getJSON(ctx, token, "/repos/"+fullName+"/languages", nil, "GET languages", &counts); err != nil {
		return nil, err
	}
	return Breakdown(counts), nil
}

// Breakdown converts language byte counts into Language rows whose
// percentages are rounded to two decimals.
func Breakdown(counts map[string]int64) []model.Language {
	var total int64
	for _, n := range counts {
		total += n
	}

	out := make([]model.Language, 0, len(counts))
	for name, n := range counts {
		pct := 0.0
		if total > 0 {
			pct = math.Round(float64(n)/float64(total)*10000) / 100
		}
		out = append(out, model.Language{Name: name, Bytes: n, Percentage: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bytes != out[j].Bytes {
			return out[i].Bytes > out[j].Bytes
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type contentsResponse struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Readme returns the first README found among ReadmeCandidates, or nil when
// the repository has none. A candidate that cannot be fetched or decoded is
// skipped; only a canceled context stops the search.
func (c *Client) Readme(ctx context.Context, token, fullName string) (*model.Readme, error) {
	for _, name := range ReadmeCandidates {
		var body contentsResponse
		err := c.getJSON(ctx, token, "/repos/"+fullName+"/contents/"+name, nil, "GET contents", &body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var se *StatusError
			if !errors.As(err, &se) || se.Code != http.StatusNotFound {
				c.logger.Debug("readme candidate skipped",
					slog.String("repo", fullName),
					slog.String("file", name),
					slog.String("error", err.Error()),
				)
			}
			continue
		}

		content := body.Content
		if body.Encoding == "base64" {
			raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
			if err != nil {
				c.logger.Debug("readme candidate skipped",
					slog.String("repo", fullName),
					slog.String("file", name),
					slog.String("error", err.Error()),
				)
				continue
			}
			content = string(raw)
		}
		return &model.Readme{Filename: name, Content: content}, nil
	}
	return nil, nil
}

// FetchMirror lists the repositories and fills each one's language
// breakdown and README. Both are best effort per repository: a failure
// leaves that repository with no languages or no README. Only a failed
// listing or a canceled context aborts the fetch.
func (c *Client) FetchMirror(ctx context.Context, token string) ([]model.Repository, error) {
	repos, err := c.Repositories(ctx, token)
	if err != nil {
		return nil, err
	}

	for i := range repos {
		r := &repos[i]
		langs, err := c.Languages(ctx, token, r.FullName)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("repository languages unavailable",
				slog.String("repo", r.FullName),
				slog.String("error", err.Error()),
			)
			langs = []model.Language{}
		}
		r.Languages = langs

		readme, err := c.Readme(ctx, token, r.FullName)
		if err != nil {
			return nil, err
		}
		r.Readme = readme
	}
	return repos, nil
}

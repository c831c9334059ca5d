package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/cache"
	"github.com/sakif/swipejobs/internal/jobs"
	"github.com/sakif/swipejobs/internal/model"
)

// JobFeed is one source's listings.
type JobFeed struct {
	Jobs   []model.JobListing `json:"jobs"`
	Count  int                `json:"count"`
	Source string             `json:"source"`
	Error  *string            `json:"error,omitempty"`
}

// AllJobs is the combined answer of every source. A failing source carries
// its error message and an empty list; it never fails the whole call.
type AllJobs struct {
	RemoteOK   JobFeed `json:"remoteok"`
	Gemini     JobFeed `json:"gemini"`
	TotalCount int     `json:"total_count"`
}

// JobService fetches listings through a short-lived cache.
type JobService struct {
	remoteOK jobs.Source
	gemini   jobs.Source
	cache    cache.Cache
	ttl      time.Duration
	logger   *slog.Logger
}

// NewJobService wires the job sources. c may be nil to disable caching.
func NewJobService(remoteOK, gemini jobs.Source, c cache.Cache, ttl time.Duration, logger *slog.Logger) *JobService {
	return &JobService{remoteOK: remoteOK, gemini: gemini, cache: c, ttl: ttl, logger: logger}
}

func (s *JobService) RemoteOK(ctx context.Context) (*JobFeed, error) {
	return s.fetch(ctx, s.remoteOK)
}

func (s *JobService) Gemini(ctx context.Context) (*JobFeed, error) {
	return s.fetch(ctx, s.gemini)
}

// All queries both sources concurrently.
func (s *JobService) All(ctx context.Context) (*AllJobs, error) {
	var out AllJobs
	var g errgroup.Group

	g.Go(func() error {
		out.RemoteOK = s.feedOrError(ctx, s.remoteOK)
		return nil
	})
	g.Go(func() error {
		out.Gemini = s.feedOrError(ctx, s.gemini)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.TotalCount = out.RemoteOK.Count + out.Gemini.Count
	return &out, nil
}

func (s *JobService) feedOrError(ctx context.Context, src jobs.Source) JobFeed {
	feed, err := s.fetch(ctx, src)
	if err != nil {
		msg := err.Error()
		return JobFeed{Jobs: []model.JobListing{}, Source: src.Name(), Error: &msg}
	}
	return *feed
}

func (s *JobService) fetch(ctx context.Context, src jobs.Source) (*JobFeed, error) {
	key := cacheKey(src)

	if s.cache != nil {
		var cached []model.JobListing
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("job cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		if ok {
			return &JobFeed{Jobs: cached, Count: len(cached), Source: src.Name()}, nil
		}
	}

	listings, err := src.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, apperror.ErrUnavailable) {
			s.logger.Error("job source failed", slog.String("source", src.Name()), slog.String("error", err.Error()))
		}
		return nil, err
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.SetJSON(ctx, key, listings, s.ttl); err != nil {
			s.logger.Warn("job cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return &JobFeed{Jobs: listings, Count: len(listings), Source: src.Name()}, nil
}

// PurgeCache drops expired cache entries.
func (s *JobService) PurgeCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	n, err := s.cache.Purge(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("expired job cache entries removed", slog.Int64("count", n))
	}
	return nil
}

func cacheKey(src jobs.Source) string {
	return "jobs:" + strings.ToLower(strings.ReplaceAll(src.Name(), " ", "-"))
}

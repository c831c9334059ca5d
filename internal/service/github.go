package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/auth"
	"github.com/sakif/swipejobs/internal/github"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/repository"
)

// GitHubClient is the part of *github.Client the service uses.
type GitHubClient interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	CurrentUser(ctx context.Context, token string) (*github.User, error)
	ValidateToken(ctx context.Context, token string) (bool, error)
	FetchMirror(ctx context.Context, token string) ([]model.Repository, error)
}

// GitHubService links GitHub accounts and keeps a local mirror of their
// repositories.
//
// TOKEN HANDLING:
// The OAuth access token is encrypted with auth.TokenCipher before it is
// stored and decrypted only for the duration of a sync or validation call.
// It is never returned to the client.
//
// BACKGROUND WORK:
// SyncAll and SweepTokens walk every link one at a time with a fixed pause
// between users to stay under GitHub's rate limits. Both are driven by the
// scheduler; a failure for one user is logged and the walk continues.
type GitHubService struct {
	links      repository.GitHubRepository
	client     GitHubClient
	states     *auth.StateService
	cipher     *auth.TokenCipher
	logger     *slog.Logger
	syncDelay  time.Duration
	sweepDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// GitHubOptions tunes the background walks.
type GitHubOptions struct {
	SyncUserDelay  time.Duration
	SweepUserDelay time.Duration
}

// NewGitHubService wires the GitHub workflow. A nil client means the
// integration is not configured and every call returns ErrUnavailable.
func NewGitHubService(
	links repository.GitHubRepository,
	client GitHubClient,
	states *auth.StateService,
	cipher *auth.TokenCipher,
	opts GitHubOptions,
	logger *slog.Logger,
) *GitHubService {
	return &GitHubService{
		links:      links,
		client:     client,
		states:     states,
		cipher:     cipher,
		logger:     logger,
		syncDelay:  opts.SyncUserDelay,
		sweepDelay: opts.SweepUserDelay,
		sleep:      sleepCtx,
	}
}

// Enabled reports whether the integration is configured.
func (s *GitHubService) Enabled() bool {
	return s.client != nil
}

func (s *GitHubService) requireEnabled() error {
	if !s.Enabled() {
		return apperror.Unavailable("GitHub integration is not configured")
	}
	return nil
}

// ConnectURL returns the GitHub authorization URL for userID. The state
// parameter is a signed token naming the user, valid for ten minutes.
func (s *GitHubService) ConnectURL(_ context.Context, userID string) (string, error) {
	if err := s.requireEnabled(); err != nil {
		return "", err
	}
	state, err := s.states.Generate(userID)
	if err != nil {
		return "", fmt.Errorf("service/github: generating state: %w", err)
	}
	return s.client.AuthURL(state), nil
}

// Callback finishes the OAuth flow: checks state, exchanges the code,
// links the account and runs a first sync. A failed first sync does not
// undo the link; the scheduler retries it.
func (s *GitHubService) Callback(ctx context.Context, code, state string) (*model.GitHubStatus, error) {
	if err := s.requireEnabled(); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, apperror.ValidationFailed("code", "authorization code is required")
	}

	userID, err := s.states.Validate(state)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired OAuth state")
	}

	token, err := s.client.Exchange(ctx, code)
	if err != nil {
		s.logger.Error("github code exchange failed", slog.String("userID", userID), slog.String("error", err.Error()))
		return nil, apperror.Upstream("GitHub", err)
	}

	ghUser, err := s.client.CurrentUser(ctx, token)
	if err != nil {
		return nil, apperror.Upstream("GitHub", err)
	}

	sealed, err := s.cipher.Encrypt(token)
	if err != nil {
		return nil, fmt.Errorf("service/github: encrypting token: %w", err)
	}

	link := &model.GitHubLink{
		UserID:      userID,
		GitHubID:    ghUser.ID,
		Username:    ghUser.Login,
		AvatarURL:   ghUser.AvatarURL,
		TokenCipher: sealed,
	}
	if err := s.links.LinkGitHub(ctx, link); err != nil {
		return nil, err
	}

	s.logger.Info("github account linked",
		slog.String("userID", userID),
		slog.String("githubLogin", ghUser.Login),
	)

	if _, err := s.syncToken(ctx, userID, token); err != nil {
		s.logger.Warn("initial github sync failed", slog.String("userID", userID), slog.String("error", err.Error()))
	}
	return s.Status(ctx, userID)
}

// Status describes the user's link. An unlinked user gets Linked=false,
// not an error.
func (s *GitHubService) Status(ctx context.Context, userID string) (*model.GitHubStatus, error) {
	link, err := s.links.GetGitHubLink(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &model.GitHubStatus{Linked: false}, nil
		}
		return nil, err
	}

	count, err := s.links.CountRepositories(ctx, userID)
	if err != nil {
		return nil, err
	}
	linkedAt := link.LinkedAt
	return &model.GitHubStatus{
		Linked:          true,
		Username:        link.Username,
		AvatarURL:       link.AvatarURL,
		LinkedAt:        &linkedAt,
		LastSyncAt:      link.LastSyncAt,
		RepositoryCount: count,
	}, nil
}

// Repositories returns the mirrored repositories, most recently updated
// first.
func (s *GitHubService) Repositories(ctx context.Context, userID string) ([]model.Repository, error) {
	if _, err := s.links.GetGitHubLink(ctx, userID); err != nil {
		return nil, err
	}
	return s.links.ListRepositories(ctx, userID)
}

// Sync refreshes the user's mirror now and returns the repository count.
func (s *GitHubService) Sync(ctx context.Context, userID string) (int, error) {
	if err := s.requireEnabled(); err != nil {
		return 0, err
	}
	link, err := s.links.GetGitHubLink(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.syncLink(ctx, link)
}

// Unlink removes the link and the mirrored repositories.
func (s *GitHubService) Unlink(ctx context.Context, userID string) error {
	if err := s.links.UnlinkGitHub(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("github account unlinked", slog.String("userID", userID))
	return nil
}

func (s *GitHubService) syncLink(ctx context.Context, link *model.GitHubLink) (int, error) {
	token, err := s.cipher.Decrypt(link.TokenCipher)
	if err != nil {
		return 0, fmt.Errorf("service/github: decrypting token for user %s: %w", link.UserID, err)
	}
	return s.syncToken(ctx, link.UserID, token)
}

func (s *GitHubService) syncToken(ctx context.Context, userID, token string) (int, error) {
	repos, err := s.client.FetchMirror(ctx, token)
	if err != nil {
		return 0, apperror.Upstream("GitHub", err)
	}
	if err := s.links.ReplaceRepositories(ctx, userID, repos); err != nil {
		return 0, err
	}

	s.logger.Info("github repositories synced",
		slog.String("userID", userID),
		slog.Int("repositories", len(repos)),
	)
	return len(repos), nil
}

// SyncAll resyncs every linked user, pausing syncDelay between users.
func (s *GitHubService) SyncAll(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	links, err := s.links.ListGitHubLinks(ctx)
	if err != nil {
		return fmt.Errorf("service/github: listing links: %w", err)
	}

	failed := 0
	for i := range links {
		if i > 0 {
			if err := s.sleep(ctx, s.syncDelay); err != nil {
				return err
			}
		}
		if _, err := s.syncLink(ctx, &links[i]); err != nil {
			failed++
			s.logger.Error("github resync failed",
				slog.String("userID", links[i].UserID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("github resync cycle finished",
		slog.Int("users", len(links)),
		slog.Int("failed", failed),
	)
	return nil
}

// SweepTokens unlinks every account whose token GitHub no longer accepts,
// pausing sweepDelay between users. A token that cannot be decrypted is
// treated as invalid. A network failure leaves the link alone.
func (s *GitHubService) SweepTokens(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	links, err := s.links.ListGitHubLinks(ctx)
	if err != nil {
		return fmt.Errorf("service/github: listing links: %w", err)
	}

	removed := 0
	for i, link := range links {
		if i > 0 {
			if err := s.sleep(ctx, s.sweepDelay); err != nil {
				return err
			}
		}

		valid := false
		token, err := s.cipher.Decrypt(link.TokenCipher)
		if err == nil {
			valid, err = s.client.ValidateToken(ctx, token)
			if err != nil {
				s.logger.Warn("github token check failed",
					slog.String("userID", link.UserID),
					slog.String("error", err.Error()),
				)
				continue
			}
		}
		if valid {
			continue
		}

		if err := s.links.UnlinkGitHub(ctx, link.UserID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to unlink invalid github token",
				slog.String("userID", link.UserID),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
		s.logger.Info("github link removed: token no longer valid", slog.String("userID", link.UserID))
	}

	s.logger.Info("github token sweep finished",
		slog.Int("users", len(links)),
		slog.Int("removed", removed),
	)
	return nil
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/auth"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/repository"
)

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionService issues and resolves opaque session tokens.
//
// LIFECYCLE:
//
//	Create -> Active -> Expired (clock passes ExpiresAt) -> Deleted
//
// Expiry is lazy: Resolve deletes an expired row when it meets one. Sweep
// removes the rest and runs on the scheduler.
type SessionService struct {
	repo   repository.SessionRepository
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func NewSessionService(repo repository.SessionRepository, ttl time.Duration, logger *slog.Logger) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{repo: repo, ttl: ttl, now: time.Now, logger: logger}
}

var _ auth.SessionResolver = (*SessionService)(nil)

// Create starts a session for userID. The returned Session carries the
// plaintext token; only its digest is stored.
func (s *SessionService) Create(ctx context.Context, userID string) (*model.Session, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	if err := s.repo.CreateSession(ctx, auth.TokenDigest(token), session); err != nil {
		return nil, fmt.Errorf("service/session: creating session for user %s: %w", userID, err)
	}
	return session, nil
}

// Resolve returns the live session for token. Unknown and expired tokens
// both yield apperror.ErrUnauthorized.
func (s *SessionService) Resolve(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, apperror.Unauthorized("session token required")
	}

	digest := auth.TokenDigest(token)
	session, err := s.repo.GetSession(ctx, digest)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid or expired session")
		}
		return nil, fmt.Errorf("service/session: resolving session: %w", err)
	}

	if session.Expired(s.now()) {
		if err := s.repo.DeleteSession(ctx, digest); err != nil {
			s.logger.Warn("failed to delete expired session", slog.String("error", err.Error()))
		}
		return nil, apperror.Unauthorized("invalid or expired session")
	}
	return session, nil
}

// Delete ends the session. Unknown tokens are ignored.
func (s *SessionService) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, auth.TokenDigest(token)); err != nil {
		return fmt.Errorf("service/session: deleting session: %w", err)
	}
	return nil
}

// Sweep deletes every expired session.
func (s *SessionService) Sweep(ctx context.Context) error {
	n, err := s.repo.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return fmt.Errorf("service/session: sweeping: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", slog.Int64("count", n))
	}
	return nil
}

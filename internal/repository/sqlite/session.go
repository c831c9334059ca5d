package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// CreateSession stores a session under the digest of its token.
func (db *DB) CreateSession(ctx context.Context, tokenDigest string, s *model.Session) error {
	s.CreatedAt = db.timestamp()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_sessions (token_digest, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		tokenDigest, s.UserID, s.ExpiresAt.UTC(), s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session for user %s: %w", s.UserID, err)
	}
	return nil
}

// GetSession returns the session regardless of expiry; callers decide.
func (db *DB) GetSession(ctx context.Context, tokenDigest string) (*model.Session, error) {
	var s model.Session
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, expires_at, created_at FROM user_sessions WHERE token_digest = ?`,
		tokenDigest,
	).Scan(&s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("session", "(redacted)")
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}
	return &s, nil
}

// DeleteSession is idempotent: deleting an unknown token is not an error.
func (db *DB) DeleteSession(ctx context.Context, tokenDigest string) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_sessions WHERE token_digest = ?`, tokenDigest,
	); err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes every session whose expiry is at or before now.
func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_sessions WHERE expires_at <= ?`, now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: sweeping expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting swept sessions: %w", err)
	}
	return n, nil
}

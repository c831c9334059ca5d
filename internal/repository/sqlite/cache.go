package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/swipejobs/internal/repository"
)

var _ repository.CacheRepository = (*DB)(nil)

// GetCache returns the payload stored under key if it has not expired.
// An expired entry is deleted on the way out.
func (db *DB) GetCache(ctx context.Context, key string, now time.Time) ([]byte, bool, error) {
	var payload []byte
	var expiresAt time.Time
	err := db.conn.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM job_cache WHERE key = ?`, key,
	).Scan(&payload, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("sqlite: reading cache entry %s: %w", key, err)
	}

	if !now.Before(expiresAt) {
		if _, err := db.conn.ExecContext(ctx, `DELETE FROM job_cache WHERE key = ?`, key); err != nil {
			return nil, false, fmt.Errorf("sqlite: dropping expired cache entry %s: %w", key, err)
		}
		return nil, false, nil
	}
	return payload, true, nil
}

func (db *DB) SetCache(ctx context.Context, key string, payload []byte, expiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO job_cache (key, payload, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`,
		key, payload, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing cache entry %s: %w", key, err)
	}
	return nil
}

func (db *DB) DeleteCache(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := db.conn.ExecContext(ctx, `DELETE FROM job_cache WHERE key = ?`, key); err != nil {
			return fmt.Errorf("sqlite: deleting cache entry %s: %w", key, err)
		}
	}
	return nil
}

func (db *DB) PurgeExpiredCache(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM job_cache WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging job cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting purged cache entries: %w", err)
	}
	return n, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/xid"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
	"github.com/sakif/swipejobs/internal/repository"
)

var _ repository.GitHubRepository = (*DB)(nil)

// LinkGitHub creates the link or refreshes it when the same user re-links
// the same or a different GitHub account. A GitHub account already linked to
// another user is a conflict.
//
// When a user switches to a different GitHub account their mirrored
// repositories belong to the old account, so they are dropped.
func (db *DB) LinkGitHub(ctx context.Context, link *model.GitHubLink) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning github link: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var owner string
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM github_links WHERE github_id = ?`, link.GitHubID,
	).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return fmt.Errorf("sqlite: looking up github id %d: %w", link.GitHubID, err)
	case owner != link.UserID:
		err = apperror.Conflict("github account", strconv.FormatInt(link.GitHubID, 10))
		return err
	}

	var previous int64
	err = tx.QueryRowContext(ctx,
		`SELECT github_id FROM github_links WHERE user_id = ?`, link.UserID,
	).Scan(&previous)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return fmt.Errorf("sqlite: looking up link for user %s: %w", link.UserID, err)
	case previous != link.GitHubID:
		if _, err = tx.ExecContext(ctx, `DELETE FROM github_repositories WHERE user_id = ?`, link.UserID); err != nil {
			return fmt.Errorf("sqlite: dropping repositories of previous account: %w", err)
		}
	}

	link.LinkedAt = db.timestamp()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO github_links (user_id, github_id, username, avatar_url, token_cipher, linked_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   github_id = excluded.github_id,
		   username = excluded.username,
		   avatar_url = excluded.avatar_url,
		   token_cipher = excluded.token_cipher,
		   linked_at = excluded.linked_at`,
		link.UserID, link.GitHubID, link.Username, link.AvatarURL, link.TokenCipher, link.LinkedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			err = apperror.NotFound("user", link.UserID)
			return err
		}
		if isUniqueViolation(err, "github_links.github_id") {
			err = apperror.Conflict("github account", strconv.FormatInt(link.GitHubID, 10))
			return err
		}
		return fmt.Errorf("sqlite: saving github link for user %s: %w", link.UserID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing github link: %w", err)
	}
	return nil
}

const linkColumns = `user_id, github_id, username, avatar_url, token_cipher, linked_at, last_sync_at`

func scanLink(row scanner) (*model.GitHubLink, error) {
	var l model.GitHubLink
	var lastSync sql.NullTime
	if err := row.Scan(&l.UserID, &l.GitHubID, &l.Username, &l.AvatarURL, &l.TokenCipher, &l.LinkedAt, &lastSync); err != nil {
		return nil, err
	}
	l.LastSyncAt = timePtr(lastSync)
	return &l, nil
}

func (db *DB) GetGitHubLink(ctx context.Context, userID string) (*model.GitHubLink, error) {
	l, err := scanLink(db.conn.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM github_links WHERE user_id = ?`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("github link", userID)
		}
		return nil, fmt.Errorf("sqlite: getting github link for user %s: %w", userID, err)
	}
	return l, nil
}

// ListGitHubLinks returns every link, oldest first. The sync loops iterate it.
func (db *DB) ListGitHubLinks(ctx context.Context) ([]model.GitHubLink, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+linkColumns+` FROM github_links ORDER BY linked_at, user_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing github links: %w", err)
	}
	defer rows.Close()

	out := []model.GitHubLink{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning github link: %w", err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating github links: %w", err)
	}
	return out, nil
}

// UnlinkGitHub deletes the link row. The encrypted token goes with it and
// repositories, languages and READMEs cascade.
func (db *DB) UnlinkGitHub(ctx context.Context, userID string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM github_links WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("sqlite: unlinking github for user %s: %w", userID, err)
	}
	return expectAffected(res, "github link", userID)
}

// ReplaceRepositories deletes the user's mirrored repositories and inserts
// repos in their place, all in one transaction.
func (db *DB) ReplaceRepositories(ctx context.Context, userID string, repos []model.Repository) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning repository replace: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM github_repositories WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlite: clearing repositories for user %s: %w", userID, err)
	}

	for i := range repos {
		r := &repos[i]
		r.ID = xid.New().String()
		r.UserID = userID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO github_repositories
			   (id, user_id, github_id, name, full_name, description, html_url, clone_url, language,
			    stars, forks, is_fork, is_private, topics, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.UserID, r.GitHubID, r.Name, r.FullName, r.Description, r.HTMLURL, r.CloneURL, r.Language,
			r.Stars, r.Forks, r.IsFork, r.IsPrivate, r.Topics, r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				err = apperror.NotFound("github link", userID)
				return err
			}
			return fmt.Errorf("sqlite: inserting repository %s: %w", r.FullName, err)
		}

		for _, lang := range r.Languages {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO github_repository_languages (repository_id, language, bytes, percentage) VALUES (?, ?, ?, ?)`,
				r.ID, lang.Name, lang.Bytes, lang.Percentage,
			); err != nil {
				return fmt.Errorf("sqlite: inserting language %s of %s: %w", lang.Name, r.FullName, err)
			}
		}

		if r.Readme != nil {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO github_repository_readmes (repository_id, filename, content) VALUES (?, ?, ?)`,
				r.ID, r.Readme.Filename, r.Readme.Content,
			); err != nil {
				return fmt.Errorf("sqlite: inserting readme of %s: %w", r.FullName, err)
			}
		}
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE github_links SET last_sync_at = ? WHERE user_id = ?`, db.timestamp(), userID,
	); err != nil {
		return fmt.Errorf("sqlite: stamping last sync for user %s: %w", userID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing repository replace: %w", err)
	}
	return nil
}

// ListRepositories reads the mirror back: repositories first, then their
// languages and READMEs, stitched together by repository id.
func (db *DB) ListRepositories(ctx context.Context, userID string) ([]model.Repository, error) {
	repos, err := db.listRepositoryRows(ctx, userID)
	if err != nil || len(repos) == 0 {
		return repos, err
	}

	index := make(map[string]*model.Repository, len(repos))
	for i := range repos {
		index[repos[i].ID] = &repos[i]
	}

	if err := db.attachLanguages(ctx, userID, index); err != nil {
		return nil, err
	}
	if err := db.attachReadmes(ctx, userID, index); err != nil {
		return nil, err
	}
	return repos, nil
}

func (db *DB) listRepositoryRows(ctx context.Context, userID string) ([]model.Repository, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, github_id, name, full_name, description, html_url, clone_url, language,
		        stars, forks, is_fork, is_private, topics, created_at, updated_at
		 FROM github_repositories WHERE user_id = ? ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing repositories for user %s: %w", userID, err)
	}
	defer rows.Close()

	out := []model.Repository{}
	for rows.Next() {
		var r model.Repository
		if err := rows.Scan(&r.ID, &r.UserID, &r.GitHubID, &r.Name, &r.FullName, &r.Description, &r.HTMLURL,
			&r.CloneURL, &r.Language, &r.Stars, &r.Forks, &r.IsFork, &r.IsPrivate, &r.Topics,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning repository: %w", err)
		}
		r.Languages = []model.Language{}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating repositories: %w", err)
	}
	return out, nil
}

func (db *DB) attachLanguages(ctx context.Context, userID string, index map[string]*model.Repository) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT l.repository_id, l.language, l.bytes, l.percentage
		 FROM github_repository_languages l
		 JOIN github_repositories r ON r.id = l.repository_id
		 WHERE r.user_id = ?
		 ORDER BY l.repository_id, l.bytes DESC, l.language`, userID)
	if err != nil {
		return fmt.Errorf("sqlite: listing languages for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var repoID string
		var l model.Language
		if err := rows.Scan(&repoID, &l.Name, &l.Bytes, &l.Percentage); err != nil {
			return fmt.Errorf("sqlite: scanning language: %w", err)
		}
		if r, ok := index[repoID]; ok {
			r.Languages = append(r.Languages, l)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating languages: %w", err)
	}
	return nil
}

func (db *DB) attachReadmes(ctx context.Context, userID string, index map[string]*model.Repository) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.repository_id, m.filename, m.content
		 FROM github_repository_readmes m
		 JOIN github_repositories r ON r.id = m.repository_id
		 WHERE r.user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("sqlite: listing readmes for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var repoID string
		var m model.Readme
		if err := rows.Scan(&repoID, &m.Filename, &m.Content); err != nil {
			return fmt.Errorf("sqlite: scanning readme: %w", err)
		}
		if r, ok := index[repoID]; ok {
			readme := m
			r.Readme = &readme
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating readmes: %w", err)
	}
	return nil
}

func (db *DB) CountRepositories(ctx context.Context, userID string) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM github_repositories WHERE user_id = ?`, userID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting repositories for user %s: %w", userID, err)
	}
	return n, nil
}

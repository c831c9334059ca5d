// Package sqlite implements the repository interfaces on a single SQLite file.
//
// SCHEMA VERSIONING:
// The schema lives in migrations/*.sql, embedded into the binary and applied
// by goose. goose records every applied version in goose_db_version, so each
// step runs exactly once per database file and a fresh ":memory:" database
// (tests) goes through the same path as production.
//
// CONNECTION SETTINGS:
// PRAGMAs such as foreign_keys are per connection in SQLite. database/sql
// keeps a pool, so they are passed in the DSN (_pragma=...) and the driver
// applies them to every new connection. Without that, ON DELETE CASCADE would
// silently work on some connections and not others.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/swipejobs/internal/apperror"
	"github.com/sakif/swipejobs/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Option configures a DB.
type Option func(*DB)

// WithClock replaces time.Now for timestamps written by the repository.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// New opens (or creates) the database at dbPath and runs pending migrations.
//
// dbPath examples:
//   - "data/swipejobs.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
func New(dbPath string, opts ...Option) (*DB, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" is a brand new empty database,
	// so the pool must never grow past one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if dbPath != ":memory:" {
		// WAL lets readers proceed while a write is in progress.
		// The mode is persistent on the file, so once is enough.
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
		}
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return newDB(conn, opts...), nil
}

func newDB(conn *sql.DB, opts ...Option) *DB {
	db := &DB{conn: conn, now: time.Now}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func migrate(conn *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// timestamp returns the current time in UTC. All DATETIME columns are
// written in UTC so that their text form sorts chronologically.
func (db *DB) timestamp() time.Time {
	return db.now().UTC()
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint. column narrows the check to a specific "table.column".
func isUniqueViolation(err error, column string) bool {
	msg, ok := constraintError(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
	if !ok && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return column == "" || strings.Contains(msg, column)
}

func isForeignKeyViolation(err error) bool {
	msg, ok := constraintError(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY)
	return ok || strings.Contains(msg, "FOREIGN KEY constraint failed")
}

// constraintError returns the driver message of a constraint error and
// whether its extended code is one of codes.
func constraintError(err error, codes ...int) (string, bool) {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return "", false
	}
	msg := se.Error()
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return "", false
	}
	for _, c := range codes {
		if se.Code() == c {
			return msg, true
		}
	}
	return msg, false
}

// updateColumns runs "UPDATE table SET ... WHERE id = ? AND user_id = ?"
// built from typed assignments. It returns apperror.NotFound when no row
// matched.
func (db *DB) updateColumns(ctx context.Context, table, resource, userID, id string, sets []model.Assignment, extra ...model.Assignment) error {
	sets = append(sets, extra...)
	if len(sets) == 0 {
		return nil
	}

	clauses, args := setClauses(sets)
	args = append(args, id, userID)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ? AND user_id = ?`, table, strings.Join(clauses, ", "))
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating %s %s: %w", resource, id, err)
	}
	return expectAffected(res, resource, id)
}

func setClauses(sets []model.Assignment) ([]string, []any) {
	clauses := make([]string, 0, len(sets))
	args := make([]any, 0, len(sets)+2)
	for _, a := range sets {
		clauses = append(clauses, a.Column+" = ?")
		if t, ok := a.Value.(time.Time); ok {
			a.Value = t.UTC()
		}
		args = append(args, a.Value)
	}
	return clauses, args
}

// deleteOwned deletes one child row owned by userID.
func (db *DB) deleteOwned(ctx context.Context, table, resource, userID, id string) error {
	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND user_id = ?`, table),
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s %s: %w", resource, id, err)
	}
	return expectAffected(res, resource, id)
}

func expectAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected for %s %s: %w", resource, id, err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

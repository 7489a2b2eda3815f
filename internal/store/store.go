// Package store persists extracted startups in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ppiankov/startupscout/internal/model"
	"github.com/ppiankov/startupscout/migrations"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// Store is the SQLite-backed startup repository
type Store struct {
	db     *sqlx.DB
	path   string
	logger *zap.Logger
}

// QueryResult is the tabular answer to an ad-hoc SELECT
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

const insertStartupSQL = `
INSERT OR IGNORE INTO startups
    (startup_name, location, company_url, description, comment_text, comment_id, subreddit, created_utc)
VALUES
    (:startup_name, :location, :company_url, :description, :comment_text, :comment_id, :subreddit, :created_utc)`

const listStartupsSQL = `
SELECT id, startup_name, location, company_url, description, comment_text, comment_id, subreddit, created_utc
FROM startups
ORDER BY startup_name, id`

// Open connects to the database at cfg.Path, creating it and applying
// migrations as needed.
func Open(cfg model.StoreConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "store"))

	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" && !strings.HasPrefix(cfg.Path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create database directory: %w", model.ErrStorage, err)
		}
	}

	db, err := sqlx.Connect("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to %s: %w", model.ErrStorage, cfg.Path, err)
	}

	// SQLite allows one writer; a single connection also keeps :memory: alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: set busy timeout: %w", model.ErrStorage, err)
	}

	if err := applyMigrations(db.DB, logger); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database after migration failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("%w: apply migrations: %w", model.ErrStorage, err)
	}

	logger.Debug("database ready", zap.String("path", cfg.Path))

	return &Store{db: db, path: cfg.Path, logger: logger}, nil
}

// With opens the store, hands it to fn and closes it on every exit path,
// including a panic in fn. A close error is returned only if fn succeeded.
func With(cfg model.StoreConfig, logger *zap.Logger, fn func(*Store) error) (err error) {
	s, err := Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(s)
}

// applyMigrations runs the embedded migrations. The migrate instance is not
// closed: closing it would close db as well.
func applyMigrations(db *sql.DB, logger *zap.Logger) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("create embed source driver: %w", err)
	}

	dbDriver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("no database migrations to apply")
			return nil
		}
		return err
	}

	logger.Info("database migrations applied")
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close database: %w", model.ErrStorage, err)
	}
	s.logger.Debug("database closed")
	return nil
}

// Path returns the database location
func (s *Store) Path() string {
	return s.path
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", model.ErrStorage, err)
	}
	return nil
}

// InsertStartup writes one record unless its comment_id already exists.
// inserted is false, with a nil error, for a duplicate key.
func (s *Store) InsertStartup(ctx context.Context, rec model.StoredStartup) (bool, error) {
	res, err := s.db.NamedExecContext(ctx, insertStartupSQL, rec)
	if err != nil {
		return false, fmt.Errorf("%w: insert %s: %w", model.ErrStorage, rec.CommentID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %w", model.ErrStorage, err)
	}

	return n > 0, nil
}

// hasCommentSQL matches {commentID}_{seq}: the GLOB narrows to the prefix
// and a leading digit, the substr check rejects anything but digits after it.
const hasCommentSQL = `
SELECT EXISTS(
    SELECT 1 FROM startups
    WHERE comment_id GLOB ?
      AND substr(comment_id, ?) NOT GLOB '*[^0-9]*'
)`

// HasComment reports whether any record was stored for the source comment,
// i.e. a key of the form {commentID}_{digits} exists.
func (s *Store) HasComment(ctx context.Context, commentID string) (bool, error) {
	var exists bool
	// substr is 1-based and counts characters: skip the id and the underscore
	seqOffset := utf8.RuneCountInString(commentID) + 2
	err := s.db.GetContext(ctx, &exists, hasCommentSQL, globEscape(commentID)+"_[0-9]*", seqOffset)
	if err != nil {
		return false, fmt.Errorf("%w: lookup %s: %w", model.ErrStorage, commentID, err)
	}
	return exists, nil
}

// ListStartups returns every stored startup ordered by name
func (s *Store) ListStartups(ctx context.Context) ([]model.StoredStartup, error) {
	var out []model.StoredStartup
	if err := s.db.SelectContext(ctx, &out, listStartupsSQL); err != nil {
		return nil, fmt.Errorf("%w: list startups: %w", model.ErrStorage, err)
	}
	return out, nil
}

// Count returns the number of stored startups
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM startups`); err != nil {
		return 0, fmt.Errorf("%w: count: %w", model.ErrStorage, err)
	}
	return n, nil
}

// Query runs an arbitrary read-only statement (SELECT or WITH ... SELECT).
// The statement runs on a connection with PRAGMA query_only set, so a
// write hidden behind a WITH clause fails instead of changing data.
func (s *Store) Query(ctx context.Context, query string) (result *QueryResult, err error) {
	if !isReadQuery(query) {
		return nil, fmt.Errorf("%w: only SELECT statements are allowed", model.ErrStorage)
	}

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire connection: %w", model.ErrStorage, err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, `PRAGMA query_only = ON`); err != nil {
		return nil, fmt.Errorf("%w: enable query_only: %w", model.ErrStorage, err)
	}
	defer func() {
		if _, resetErr := conn.ExecContext(context.WithoutCancel(ctx), `PRAGMA query_only = OFF`); resetErr != nil && err == nil {
			result, err = nil, fmt.Errorf("%w: reset query_only: %w", model.ErrStorage, resetErr)
		}
	}()

	return scanQuery(ctx, conn, query)
}

func scanQuery(ctx context.Context, conn *sqlx.Conn, query string) (*QueryResult, error) {
	rows, err := conn.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", model.ErrStorage, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns: %w", model.ErrStorage, err)
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %w", model.ErrStorage, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", model.ErrStorage, err)
	}

	return result, nil
}

func isReadQuery(query string) bool {
	fields := strings.Fields(strings.TrimSpace(query))
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
		return true
	}
	return false
}

// globEscape quotes GLOB metacharacters so s matches literally
func globEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[':
			b.WriteByte('[')
			b.WriteRune(r)
			b.WriteByte(']')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Package sqlite provides the SQLite-backed persistence gateway for
// torchlight. All reads and writes route through this package; it is the
// only component that issues transactions against the database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/torchlight/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/torchlight/internal/storage"
	"github.com/louisbranch/torchlight/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

const (
	// maxStatementAttempts bounds the busy-retry loop for non-transactional
	// statements.
	maxStatementAttempts = 5
	// retryBaseDelay is doubled per attempt; a small random jitter is added
	// so competing statements do not retry in lockstep.
	retryBaseDelay   = 25 * time.Millisecond
	retryJitterBound = 10 * time.Millisecond
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// toNullString maps empty strings to NULL for nullable columns.
func toNullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func fromNullString(value sql.NullString) string {
	if !value.Valid {
		return ""
	}
	return value.String
}

// Store is the SQLite persistence gateway. It owns a single lazily reused
// connection and implements all torchlight storage interfaces.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at the provided path and applies embedded
// migrations. The pool is capped at one connection to keep the single-writer
// discipline explicit.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close closes the underlying SQLite database. Nil-safe so callers can defer
// it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

// isBusyError reports whether err is a transient SQLite busy/locked failure
// worth retrying.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "database is locked") ||
		strings.Contains(value, "table is locked") ||
		strings.Contains(value, "busy")
}

// retryDelay computes the backoff before the given zero-based attempt.
func retryDelay(attempt int) time.Duration {
	delay := retryBaseDelay << attempt
	jitter := time.Duration(rand.Int64N(int64(retryJitterBound)))
	return delay + jitter
}

// execute runs one write statement with bounded busy retries. Structural
// failures surface immediately; busy exhaustion wraps the last error in a
// *storage.DatabaseError.
func (s *Store) execute(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var lastErr error
	for attempt := 0; attempt < maxStatementAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := s.sqlDB.ExecContext(ctx, query, args...)
		if err == nil {
			return result, nil
		}
		if !isBusyError(err) {
			return nil, err
		}

		lastErr = err
		if attempt == maxStatementAttempts-1 {
			break
		}
		delay := retryDelay(attempt)
		log.Printf("storage busy, retrying op=%s attempt=%d delay=%s err=%v", op, attempt+1, delay, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, &storage.DatabaseError{Op: op, Err: lastErr}
}

// query runs one read statement with bounded busy retries and hands the rows
// to scan. The scan callback owns iteration; rows are closed afterwards.
func (s *Store) query(ctx context.Context, op, query string, args []any, scan func(*sql.Rows) error) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	var lastErr error
	for attempt := 0; attempt < maxStatementAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		rows, err := s.sqlDB.QueryContext(ctx, query, args...)
		if err == nil {
			scanErr := scan(rows)
			closeErr := rows.Close()
			if scanErr != nil {
				return scanErr
			}
			return closeErr
		}
		if !isBusyError(err) {
			return err
		}

		lastErr = err
		if attempt == maxStatementAttempts-1 {
			break
		}
		delay := retryDelay(attempt)
		log.Printf("storage busy, retrying op=%s attempt=%d delay=%s err=%v", op, attempt+1, delay, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return &storage.DatabaseError{Op: op, Err: lastErr}
}

// queryRow runs a single-row read through the retrying query helper.
// The scan callback receives sql.ErrNoRows when no row matched.
func (s *Store) queryRow(ctx context.Context, op, query string, args []any, scan func(*sql.Rows) error) error {
	return s.query(ctx, op, query, args, func(rows *sql.Rows) error {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return err
			}
			return sql.ErrNoRows
		}
		return scan(rows)
	})
}

// requireRowAffected maps zero-row writes to storage.ErrNotFound.
func requireRowAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

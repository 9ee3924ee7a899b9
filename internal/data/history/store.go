// Package history persists emitted notifications in sqlite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"serialguard/internal/core/ports"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timestampLayout is fixed width so ts_utc sorts and compares as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	driverName   = "sqlite"
	maxAttempts  = 5
	defaultScope = "default"
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

var _ ports.NotificationStore = (*Store)(nil)

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts when watch mode and the
	// history command share the file.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("history store closed")
	}
	return s.db.PingContext(ctx)
}

// SaveNotification stores n. Saving the same id twice keeps the first row.
func (s *Store) SaveNotification(n ports.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.At.IsZero() {
		n.At = time.Now()
	}

	query := `
INSERT INTO notifications (id, scope, ts_utc, severity, title, body, path, class_name)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`
	return s.withRetry("save notification", func() error {
		_, err := s.db.Exec(
			query,
			n.ID,
			normalizeScope(n.Scope),
			n.At.UTC().Format(timestampLayout),
			string(n.Severity),
			n.Title,
			n.Body,
			n.Path,
			n.Class,
		)
		return err
	})
}

// LoadNotifications returns notifications newest first. An empty scope
// matches every scope; a zero since and a non-positive limit disable the
// respective filter.
func (s *Store) LoadNotifications(scope string, since time.Time, limit int) ([]ports.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT id, scope, ts_utc, severity, title, body, path, class_name
FROM notifications
WHERE 1 = 1`
	args := make([]any, 0, 3)
	if scope = strings.TrimSpace(scope); scope != "" {
		query += " AND scope = ?"
		args = append(args, scope)
	}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(timestampLayout))
	}
	query += " ORDER BY ts_utc DESC, id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load notifications", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ports.Notification, 0)
	for rows.Next() {
		var (
			tsRaw    string
			severity string
			n        ports.Notification
		)
		if err := rows.Scan(&n.ID, &n.Scope, &tsRaw, &severity, &n.Title, &n.Body, &n.Path, &n.Class); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse notification timestamp %q: %w", tsRaw, err)
		}
		n.At = ts.UTC()
		n.Severity = ports.Severity(severity)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}
	return out, nil
}

// Prune deletes notifications older than before and returns how many went.
func (s *Store) Prune(before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	err := s.withRetry("prune notifications", func() error {
		res, err := s.db.Exec(`DELETE FROM notifications WHERE ts_utc < ?`, before.UTC().Format(timestampLayout))
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func normalizeScope(scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return defaultScope
	}
	return scope
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

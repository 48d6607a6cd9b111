package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const sqliteFile = "podnest-cache.db"

// SQLiteStore keeps all artifacts in a single SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLiteStore opens (or creates) the database inside dir.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	if dir == "" {
		return nil, errors.New("cache directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, sqliteFile)
	// pragmas in the DSN apply to every pooled connection
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	s := &SQLiteStore{db: db, path: path, now: time.Now}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			namespace  TEXT NOT NULL,
			stage      TEXT NOT NULL,
			name       TEXT NOT NULL,
			value      BLOB NOT NULL,
			stored_at  INTEGER NOT NULL,
			expires_at INTEGER,
			PRIMARY KEY (namespace, stage, name)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialise cache database: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key Key) ([]byte, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM entries WHERE namespace=? AND stage=? AND name=?`,
		key.Namespace, string(key.Stage), key.Name)

	var value []byte
	var expiresAt sql.NullInt64
	if err := row.Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	if expiresAt.Valid && !s.now().Before(time.Unix(0, expiresAt.Int64)) {
		return nil, ErrMiss
	}
	return value, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	now := s.now()
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).UnixNano(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO entries (namespace, stage, name, value, stored_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		key.Namespace, string(key.Stage), key.Name, value, now.UnixNano(), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}

	logrus.WithFields(logrus.Fields{
		"key":  key.String(),
		"size": len(value),
		"ttl":  ttl,
	}).Debug("Saved cache entry")
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE namespace=? AND stage=? AND name=?`,
		key.Namespace, string(key.Stage), key.Name)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Purge(ctx context.Context, namespace string, stage Stage) (int, error) {
	if namespace == "" {
		return 0, errors.New("namespace must not be empty")
	}

	var res sql.Result
	var err error
	if stage == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM entries WHERE namespace=?`, namespace)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM entries WHERE namespace=? AND stage=?`, namespace, string(stage))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to purge %s: %w", namespace, err)
	}

	n, _ := res.RowsAffected()
	logrus.WithFields(logrus.Fields{
		"namespace": namespace,
		"stage":     stage,
		"removed":   n,
	}).Info("Purged cache entries")
	return int(n), nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Location: s.path, ByStage: make(map[Stage]int64)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, COUNT(*), COALESCE(SUM(LENGTH(value)), 0),
			COALESCE(SUM(CASE WHEN expires_at IS NOT NULL AND expires_at <= ? THEN 1 ELSE 0 END), 0)
		FROM entries GROUP BY stage`, s.now().UnixNano())
	if err != nil {
		return stats, fmt.Errorf("failed to read cache stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stage string
		var count, size, expired int64
		if err := rows.Scan(&stage, &count, &size, &expired); err != nil {
			return stats, fmt.Errorf("failed to read cache stats: %w", err)
		}
		stats.ByStage[Stage(stage)] = count
		stats.Entries += count
		stats.TotalBytes += size
		stats.Expired += expired
	}
	return stats, rows.Err()
}

// Clear deletes every entry.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	logrus.WithField("path", s.path).Info("Cleared cache")
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlstore implements cache.Cache on top of database/sql. It
// registers the "sqlite" (modernc.org/sqlite) and "postgres" (pgx) backends.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leseb/beebot-mcp/pkg/cache"
)

// compile-time check
var _ cache.Cache = (*Store)(nil)

// dialect captures the small differences between SQL engines.
type dialect struct {
	driver    string
	blobType  string
	numbered  bool // $1 placeholders instead of ?
	singleCon bool // in-memory sqlite lives on one connection
}

var (
	sqliteDialect   = dialect{driver: "sqlite", blobType: "BLOB"}
	postgresDialect = dialect{driver: "pgx", blobType: "BYTEA", numbered: true}
)

// Store is a SQL-backed TTL cache.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func open(ctx context.Context, d dialect, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s cache: dsn is required", d.driver)
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", d.driver, err)
	}
	if d.singleCon {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s ping: %w", d.driver, err)
	}

	s := &Store{db: db, dialect: d, now: time.Now}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tool_cache (
			key TEXT PRIMARY KEY,
			value %s NOT NULL,
			expires_at BIGINT NOT NULL
		)`, s.dialect.blobType)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s create tables: %w", s.dialect.driver, err)
	}
	return nil
}

// bind rewrites ? placeholders for engines that number them.
func (s *Store) bind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Get returns a live value or cache.ErrMiss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT value, expires_at FROM tool_cache WHERE key = ?`), key).
		Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if s.now().UnixMilli() >= expiresAt {
		_, _ = s.db.ExecContext(ctx, s.bind(`DELETE FROM tool_cache WHERE key = ? AND expires_at = ?`), key, expiresAt)
		return nil, cache.ErrMiss
	}
	return value, nil
}

// Set upserts value with an absolute expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl).UnixMilli()
	_, err := s.db.ExecContext(ctx, s.bind(`INSERT INTO tool_cache (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`),
		key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Purge deletes every expired row and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM tool_cache WHERE expires_at <= ?`), s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

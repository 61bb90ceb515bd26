package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"newshub/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// SQLite - персистентный кэш на SQLite с той же политикой TTL/LRU, что и Memory.
// Ошибки чтения возвращаются вызывающему, который должен обойти кэш.
type SQLite struct {
	policy

	db     *sql.DB
	hits   atomic.Int64
	misses atomic.Int64
}

// NewSQLite открывает (и при необходимости создает) файл кэша.
func NewSQLite(dbPath string, opts ...Option) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &SQLite{policy: newPolicy(opts), db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]domain.Article, bool, error) {
	const op = "cache.sqlite.Get"
	var (
		payload   string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT articles, expires_at FROM result_cache WHERE key = ?", key,
	).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to read entry: %w", op, err)
	}
	now := s.clock().UnixNano()
	if expiresAt <= now {
		s.misses.Add(1)
		if _, err := s.db.ExecContext(ctx, "DELETE FROM result_cache WHERE key = ?", key); err != nil {
			return nil, false, fmt.Errorf("%s: failed to drop expired entry: %w", op, err)
		}
		return nil, false, nil
	}
	var articles []domain.Article
	if err := json.Unmarshal([]byte(payload), &articles); err != nil {
		return nil, false, fmt.Errorf("%s: failed to decode entry: %w", op, err)
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE result_cache SET accessed_at = ? WHERE key = ?", now, key,
	); err != nil {
		return nil, false, fmt.Errorf("%s: failed to touch entry: %w", op, err)
	}
	s.hits.Add(1)
	if articles == nil {
		articles = []domain.Article{}
	}
	return articles, true, nil
}

func (s *SQLite) Put(ctx context.Context, key string, articles []domain.Article) error {
	const op = "cache.sqlite.Put"
	payload, err := json.Marshal(clone(articles))
	if err != nil {
		return fmt.Errorf("%s: failed to encode entry: %w", op, err)
	}
	now := s.clock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO result_cache (key, articles, created_at, accessed_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, key, string(payload), now.UnixNano(), now.UnixNano(), now.Add(s.ttl).UnixNano()); err != nil {
		return fmt.Errorf("%s: failed to write entry: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM result_cache WHERE key NOT IN (
			SELECT key FROM result_cache ORDER BY accessed_at DESC LIMIT ?
		)
	`, s.maxEntries); err != nil {
		return fmt.Errorf("%s: failed to evict entries: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit: %w", op, err)
	}
	return nil
}

func (s *SQLite) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM result_cache").Scan(&stats.Entries); err != nil {
		return stats, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return stats, nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM result_cache"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Package pg implements the user registry on PostgreSQL via pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/compasshq/websignin/internal/observability/logger"
	"github.com/compasshq/websignin/internal/store/core"
)

type Store struct{ pool *pgxpool.Pool }

// Config tunes the connection pool.
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

func New(ctx context.Context, dsn string, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	// MaxIdleConns maps onto pgxpool MinConns.
	if cfg.MaxIdleConns > 0 {
		pcfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "" {
		if d, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
			pcfg.MaxConnLifetime = d
			pcfg.MaxConnIdleTime = d
		}
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 5
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	// Non-blocking startup: warn on ping failure instead of refusing to
	// start, so the service can come up while the database recovers.
	if err := pool.Ping(ctx); err != nil {
		logger.L().Warn("pg pool startup ping failed", logger.Err(err))
	} else {
		logger.L().Info("pg pool ready", logger.Int("max_conns", int(pcfg.MaxConns)))
	}

	return &Store{pool: pool}, nil
}

// Pool exposes the underlying pool for migrations and metrics.
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// UpsertUserByURL is a single atomic statement: the unique constraint on
// url decides between insert and update, so concurrent first logins for
// the same identity cannot double-insert.
func (s *Store) UpsertUserByURL(ctx context.Context, url string) (*core.User, error) {
	const q = `
		INSERT INTO users (url, created_at, last_login)
		VALUES ($1, now(), now())
		ON CONFLICT (url) DO UPDATE SET last_login = now()
		RETURNING id, url, created_at, last_login`

	var u core.User
	if err := s.pool.QueryRow(ctx, q, url).Scan(&u.ID, &u.URL, &u.CreatedAt, &u.LastLogin); err != nil {
		return nil, fmt.Errorf("pg: upsert user: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUserByURL(ctx context.Context, url string) (*core.User, error) {
	const q = `SELECT id, url, created_at, last_login FROM users WHERE url = $1`
	return s.getUser(ctx, q, url)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	const q = `SELECT id, url, created_at, last_login FROM users WHERE id = $1`
	return s.getUser(ctx, q, id)
}

func (s *Store) getUser(ctx context.Context, q, arg string) (*core.User, error) {
	var u core.User
	err := s.pool.QueryRow(ctx, q, arg).Scan(&u.ID, &u.URL, &u.CreatedAt, &u.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get user: %w", err)
	}
	return &u, nil
}

// RunMigrations applies the .sql files from the given fs in name order.
// Files are idempotent (CREATE ... IF NOT EXISTS), so no version table
// is kept.
func (s *Store) RunMigrations(ctx context.Context, fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("pg: read migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("pg: read migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("pg: apply migration %s: %w", name, err)
		}
		logger.L().Info("migration applied", logger.String("file", name))
	}
	return nil
}

// Package store opens the configured user registry backend.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/compasshq/websignin/internal/store/core"
	"github.com/compasshq/websignin/internal/store/memory"
	"github.com/compasshq/websignin/internal/store/pg"
)

type Config struct {
	Driver   string
	DSN      string
	Postgres pg.Config
}

// Open returns the core.Repository for the configured driver.
func Open(ctx context.Context, cfg Config) (core.Repository, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "pg", "postgresql":
		return pg.New(ctx, cfg.DSN, cfg.Postgres)
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("store: unsupported driver: %s", cfg.Driver)
	}
}

// Package memory implements the user registry in process memory.
// Used for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/compasshq/websignin/internal/store/core"
)

type Store struct {
	mu    sync.Mutex
	byURL map[string]*core.User
	byID  map[string]*core.User
}

func New() *Store {
	return &Store{
		byURL: make(map[string]*core.User),
		byID:  make(map[string]*core.User),
	}
}

// UpsertUserByURL holds the lock across lookup and insert, which gives the
// same at-most-one-record guarantee the unique constraint gives Postgres.
func (s *Store) UpsertUserByURL(ctx context.Context, url string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if u, ok := s.byURL[url]; ok {
		u.LastLogin = now
		cp := *u
		return &cp, nil
	}

	u := &core.User{
		ID:        uuid.NewString(),
		URL:       url,
		CreatedAt: now,
		LastLogin: now,
	}
	s.byURL[url] = u
	s.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByURL(ctx context.Context, url string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byURL[url]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() {}

package core

import "context"

// Repository is the durable user registry.
type Repository interface {
	// UpsertUserByURL inserts a user for url on first login, or bumps
	// last_login on subsequent ones, and returns the record. The operation
	// is atomic: concurrent first logins for the same url yield one record.
	UpsertUserByURL(ctx context.Context, url string) (*User, error)

	// GetUserByURL returns the user for an exact url match, or ErrNotFound.
	GetUserByURL(ctx context.Context, url string) (*User, error)

	// GetUserByID returns the user by id, or ErrNotFound.
	GetUserByID(ctx context.Context, id string) (*User, error)

	Ping(ctx context.Context) error
	Close()
}

// Package store defines persistence for accounts. Drivers live under
// drivers/ and share the behaviour tests in storetest.
package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is implemented by each database driver.
type Store interface {
	Users() Users

	// ApplyMigrations brings the schema up to date and is safe to call on
	// every boot. The postgres driver holds an advisory lock while it runs,
	// so replicas sharing one database may call it together.
	ApplyMigrations() error

	Ping(ctx context.Context) error
	Close() error
}

// Users persists accounts. Usernames compare byte for byte.
type Users interface {
	// CreateUser inserts u and returns it with the ID and timestamps the
	// database assigned. The schema's unique constraint turns a taken
	// username into ErrAlreadyExists, even under concurrent inserts.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)

	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
}

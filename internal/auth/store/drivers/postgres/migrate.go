package postgres

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"

	"github.com/aussiebroadwan/tabauth/internal/auth/store/drivers/postgres/migrations"
)

// ApplyMigrations applies any pending migrations embedded in the binary.
// A Postgres advisory lock serialises replicas that boot together.
func (s *Store) ApplyMigrations() error {
	ctx := context.Background()

	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return fmt.Errorf("postgres: migration lock: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, s.db, migrations.Migrations,
		goose.WithSessionLocker(locker),
	)
	if err != nil {
		return fmt.Errorf("postgres: goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("postgres: apply migrations: %w", err)
	}
	return nil
}

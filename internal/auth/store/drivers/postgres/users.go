package postgres

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/tabauth/internal/auth/domain"
)

const (
	userColumns = `id, username, password_hash, balance_cents, created_at, updated_at`

	getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	createUser        = `INSERT INTO users (username, password_hash, balance_cents)
VALUES ($1, $2, $3)
RETURNING ` + userColumns
)

type usersRepo struct {
	db *sql.DB
}

func (r *usersRepo) scanOne(ctx context.Context, query string, args ...any) (domain.User, error) {
	var row userRow
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&row.id,
		&row.username,
		&row.passwordHash,
		&row.balanceCents,
		&row.createdAt,
		&row.updatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return row.domain(), nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	u, err := r.scanOne(ctx, getUserByUsername, username)
	return u, mapNotFound(err)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	created, err := r.scanOne(ctx, createUser, u.Username, u.PasswordHash, int64(u.Balance))
	if err != nil {
		return domain.User{}, mapConstraint(err)
	}
	return created, nil
}

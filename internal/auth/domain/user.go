package domain

import "time"

// User is an account that can log in. Username is unique across the store.
type User struct {
	ID           int64
	Username     string
	PasswordHash string // bcrypt of the peppered password
	Balance      Cents
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

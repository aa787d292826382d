package domain

import "context"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// FriendRepository stores symmetric friendships. Add is idempotent.
type FriendRepository interface {
	Add(ctx context.Context, userID, friendID int64) error
	ListNames(ctx context.Context, userID int64) ([]string, error)
}

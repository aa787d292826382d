package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimpz/clic/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	user := domain.User{Username: username, PasswordHash: passwordHash}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id`,
		username, passwordHash).Scan(&user.ID)
	if hasCode(err, pgUniqueViolation) {
		return nil, domain.ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

func (r *UserRepo) getOne(ctx context.Context, where string, key any) (*domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx, `SELECT id, username, password_hash FROM users `+where, key).
		Scan(&user.ID, &user.Username, &user.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFound("users", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// FriendRepo stores each friendship once with the smaller id first.
type FriendRepo struct {
	pool *pgxpool.Pool
}

func NewFriendRepo(pool *pgxpool.Pool) *FriendRepo {
	return &FriendRepo{pool: pool}
}

func (r *FriendRepo) Add(ctx context.Context, userID, friendID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO friends (user1_id, user2_id) VALUES (LEAST($1::bigint, $2::bigint), GREATEST($1::bigint, $2::bigint))
		 ON CONFLICT DO NOTHING`, userID, friendID)
	if hasCode(err, pgForeignKeyViolation) {
		return domain.NewNotFound("users", friendID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert friendship: %w", err)
	}
	return nil
}

func (r *FriendRepo) ListNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.username
		  FROM friends f
		  JOIN users u ON u.id = CASE WHEN f.user1_id = $1 THEN f.user2_id ELSE f.user1_id END
		 WHERE f.user1_id = $1 OR f.user2_id = $1
		 ORDER BY u.username`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan friends: %w", err)
	}
	return names, nil
}

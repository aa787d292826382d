package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimpz/clic/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepo struct {
	pool *pgxpool.Pool
}

func NewRoomRepo(pool *pgxpool.Pool) *RoomRepo {
	return &RoomRepo{pool: pool}
}

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var room domain.Room
	if err := row.Scan(&room.ID, &room.RoomType, &room.Title); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepo) Create(ctx context.Context, room domain.RoomCreate) (*domain.Room, error) {
	created, err := scanRoom(r.pool.QueryRow(ctx,
		`INSERT INTO rooms (room_type, title) VALUES ($1, $2) RETURNING id, room_type, title`,
		room.RoomType, room.Title))
	if err != nil {
		return nil, fmt.Errorf("failed to insert room: %w", err)
	}
	return created, nil
}

func (r *RoomRepo) Get(ctx context.Context, id int64) (*domain.Room, error) {
	room, err := scanRoom(r.pool.QueryRow(ctx, `SELECT id, room_type, title FROM rooms WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFound("rooms", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

func (r *RoomRepo) List(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, room_type, title FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	rooms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Room, error) {
		room, err := scanRoom(row)
		if err != nil {
			return domain.Room{}, err
		}
		return *room, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan rooms: %w", err)
	}
	return rooms, nil
}

// Update applies the non-nil fields of update. An empty update returns the room.
func (r *RoomRepo) Update(ctx context.Context, id int64, update domain.RoomUpdate) (*domain.Room, error) {
	room, err := scanRoom(r.pool.QueryRow(ctx,
		`UPDATE rooms SET title = COALESCE($2, title) WHERE id = $1 RETURNING id, room_type, title`,
		id, update.Title))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFound("rooms", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	return room, nil
}

// Delete removes the room. Messages, images and voice participants cascade.
func (r *RoomRepo) Delete(ctx context.Context, id int64) (*domain.Room, error) {
	room, err := scanRoom(r.pool.QueryRow(ctx,
		`DELETE FROM rooms WHERE id = $1 RETURNING id, room_type, title`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFound("rooms", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete room: %w", err)
	}
	return room, nil
}

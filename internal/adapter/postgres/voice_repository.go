package postgres

import (
	"context"
	"fmt"

	"github.com/crimpz/clic/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VoiceRepo struct {
	pool *pgxpool.Pool
}

func NewVoiceRepo(pool *pgxpool.Pool) *VoiceRepo {
	return &VoiceRepo{pool: pool}
}

// Join is idempotent; a repeated join keeps the original position.
func (r *VoiceRepo) Join(ctx context.Context, roomID, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO room_participants (room_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		roomID, userID)
	if hasCode(err, pgForeignKeyViolation) {
		return domain.NewNotFound("rooms", roomID)
	}
	if err != nil {
		return fmt.Errorf("failed to join voice room: %w", err)
	}
	return nil
}

func (r *VoiceRepo) Participants(ctx context.Context, roomID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM room_participants WHERE room_id = $1 ORDER BY join_order`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan participants: %w", err)
	}
	return ids, nil
}

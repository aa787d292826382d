package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimpz/clic/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

const selectMessage = `SELECT id, message_text, room_id, user_id, created_at FROM messages`

func scanMessage(row pgx.Row) (domain.Message, error) {
	var msg domain.Message
	err := row.Scan(&msg.ID, &msg.Text, &msg.RoomID, &msg.UserID, &msg.SentAt)
	return msg, err
}

func (r *MessageRepo) CreateRoomMessage(ctx context.Context, msg domain.NewRoomMessage) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO messages (room_id, user_id, message_text) VALUES ($1, $2, $3) RETURNING id`,
		msg.RoomID, msg.UserID, msg.Text).Scan(&id)
	if hasCode(err, pgForeignKeyViolation) {
		return 0, domain.NewNotFound("rooms", msg.RoomID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}
	return id, nil
}

func (r *MessageRepo) GetRoomMessage(ctx context.Context, id int64) (*domain.Message, error) {
	msg, err := scanMessage(r.pool.QueryRow(ctx, selectMessage+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFound("messages", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	msgs := []domain.Message{msg}
	if err := r.attachImages(ctx, msgs); err != nil {
		return nil, err
	}
	return &msgs[0], nil
}

func (r *MessageRepo) ListByRoom(ctx context.Context, roomID int64) ([]domain.Message, error) {
	return r.ListRecentByRoom(ctx, roomID, 0)
}

func (r *MessageRepo) ListRecentByRoom(ctx context.Context, roomID, afterID int64) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, selectMessage+` WHERE room_id = $1 AND id > $2 ORDER BY id`, roomID, afterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Message, error) {
		return scanMessage(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan messages: %w", err)
	}

	if err := r.attachImages(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// attachImages loads the images of msgs in one query.
func (r *MessageRepo) attachImages(ctx context.Context, msgs []domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	ids := make([]int64, len(msgs))
	index := make(map[int64]int, len(msgs))
	for i := range msgs {
		ids[i] = msgs[i].ID
		index[msgs[i].ID] = i
		msgs[i].Images = []domain.Image{}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, message_id, user_id, filename, content_type, storage_path, uploaded_at
		   FROM images WHERE message_id = ANY($1) ORDER BY uploaded_at, id`, ids)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	images, err := pgx.CollectRows(rows, scanImage)
	if err != nil {
		return fmt.Errorf("failed to scan images: %w", err)
	}

	for _, img := range images {
		i := index[img.MessageID]
		msgs[i].Images = append(msgs[i].Images, img)
	}
	return nil
}

func (r *MessageRepo) CreatePrivateMessage(ctx context.Context, msg domain.NewPrivateMessage) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO private_messages (sender_id, receiver_id, message_text) VALUES ($1, $2, $3) RETURNING id`,
		msg.SenderID, msg.ReceiverID, msg.Text).Scan(&id)
	if hasCode(err, pgForeignKeyViolation) {
		return 0, domain.NewNotFound("users", msg.ReceiverID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert private message: %w", err)
	}
	return id, nil
}

// ListPrivateBetween returns messages exchanged by the two users in either
// direction, ordered by id.
func (r *MessageRepo) ListPrivateBetween(ctx context.Context, userA, userB int64) ([]domain.FriendMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pm.id, s.username, rcv.username, pm.message_text, pm.created_at
		  FROM private_messages pm
		  JOIN users s   ON s.id = pm.sender_id
		  JOIN users rcv ON rcv.id = pm.receiver_id
		 WHERE (pm.sender_id = $1 AND pm.receiver_id = $2)
		    OR (pm.sender_id = $2 AND pm.receiver_id = $1)
		 ORDER BY pm.id`, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("failed to list private messages: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FriendMessage, error) {
		var m domain.FriendMessage
		err := row.Scan(&m.ID, &m.SenderName, &m.ReceiverName, &m.Text, &m.SentAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan private messages: %w", err)
	}
	return msgs, nil
}

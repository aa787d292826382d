package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Image struct {
	ID          uuid.UUID `json:"id"`
	MessageID   int64     `json:"message_id"`
	UserID      int64     `json:"user_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	StoragePath string    `json:"storage_path"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Message is a room message together with the images attached to it.
type Message struct {
	ID     int64     `json:"message_id"`
	Text   string    `json:"message_text"`
	RoomID int64     `json:"message_room_id"`
	UserID int64     `json:"message_user_id"`
	SentAt time.Time `json:"message_datetime"`
	Images []Image   `json:"images"`
}

type NewRoomMessage struct {
	Text   string
	RoomID int64
	UserID int64
}

// FriendMessage is a private message between two users, addressed by username.
type FriendMessage struct {
	ID           int64     `json:"id"`
	SenderName   string    `json:"sender_name"`
	ReceiverName string    `json:"receiver_name"`
	Text         string    `json:"message_text"`
	SentAt       time.Time `json:"message_datetime"`
}

type NewPrivateMessage struct {
	SenderID   int64
	ReceiverID int64
	Text       string
}

type MessageRepository interface {
	CreateRoomMessage(ctx context.Context, msg NewRoomMessage) (int64, error)
	ListByRoom(ctx context.Context, roomID int64) ([]Message, error)
	// ListRecentByRoom returns messages of roomID with id strictly greater than afterID,
	// ordered by id ascending.
	ListRecentByRoom(ctx context.Context, roomID, afterID int64) ([]Message, error)
	GetRoomMessage(ctx context.Context, id int64) (*Message, error)

	CreatePrivateMessage(ctx context.Context, msg NewPrivateMessage) (int64, error)
	// ListPrivateBetween returns the messages exchanged in both directions between
	// two users, ordered by id ascending.
	ListPrivateBetween(ctx context.Context, userA, userB int64) ([]FriendMessage, error)
}

type ImageRepository interface {
	Create(ctx context.Context, img Image) (*Image, error)
}

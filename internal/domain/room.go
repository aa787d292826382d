package domain

import "context"

type RoomType string

const (
	RoomTypeText  RoomType = "text"
	RoomTypeVoice RoomType = "voice"
)

func (t RoomType) Valid() bool {
	return t == RoomTypeText || t == RoomTypeVoice
}

type Room struct {
	ID       int64    `json:"id"`
	RoomType RoomType `json:"room_type"`
	Title    string   `json:"title"`
}

type RoomCreate struct {
	Title    string
	RoomType RoomType
}

// RoomUpdate carries optional fields; nil means "leave unchanged".
type RoomUpdate struct {
	Title *string
}

type RoomRepository interface {
	Create(ctx context.Context, room RoomCreate) (*Room, error)
	Get(ctx context.Context, id int64) (*Room, error)
	List(ctx context.Context) ([]Room, error)
	Update(ctx context.Context, id int64, update RoomUpdate) (*Room, error)
	Delete(ctx context.Context, id int64) (*Room, error)
}

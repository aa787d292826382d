package rpc

import (
	"errors"
	"strings"

	"github.com/crimpz/clic/internal/domain"
)

type createRoomParams struct {
	Title    string          `json:"title"`
	RoomType domain.RoomType `json:"room_type"`
}

func (p *createRoomParams) Validate() error {
	if p.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

type updateRoomParams struct {
	ID    int64   `json:"id"`
	Title *string `json:"title"`
}

func (p *updateRoomParams) Validate() error {
	return requireID("id", p.ID)
}

type roomIDParams struct {
	ID int64 `json:"id"`
}

func (p *roomIDParams) Validate() error {
	return requireID("id", p.ID)
}

type sendMessageParams struct {
	Text     string  `json:"message_text"`
	RoomID   int64   `json:"message_room_id"`
	UserName *string `json:"message_user_name"`
	UserID   *int64  `json:"message_user_id"`
}

func (p *sendMessageParams) Validate() error {
	if p.Text == "" {
		return errors.New("message_text is required")
	}
	return requireID("message_room_id", p.RoomID)
}

type sendPrivateMessageParams struct {
	SenderName   string `json:"sender_name"`
	ReceiverName string `json:"receiver_name"`
	Text         string `json:"message_text"`
}

func (p *sendPrivateMessageParams) Validate() error {
	switch {
	case p.SenderName == "":
		return errors.New("sender_name is required")
	case p.ReceiverName == "":
		return errors.New("receiver_name is required")
	case p.Text == "":
		return errors.New("message_text is required")
	}
	return nil
}

type messagesByRoomParams struct {
	RoomID int64 `json:"room_id"`
}

func (p *messagesByRoomParams) Validate() error {
	return requireID("room_id", p.RoomID)
}

type recentMessagesParams struct {
	RoomID    int64 `json:"room_id"`
	MessageID int64 `json:"message_id"`
}

func (p *recentMessagesParams) Validate() error {
	if p.MessageID < 0 {
		return errors.New("message_id must not be negative")
	}
	return requireID("room_id", p.RoomID)
}

type privateMessagesParams struct {
	ReceiverName string `json:"receiver_name"`
}

func (p *privateMessagesParams) Validate() error {
	if strings.TrimSpace(p.ReceiverName) == "" {
		return errors.New("receiver_name is required")
	}
	return nil
}

type addFriendParams struct {
	Name string `json:"name"`
}

func (p *addFriendParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

type joinVoiceParams struct {
	RoomID int64 `json:"room_id"`
}

func (p *joinVoiceParams) Validate() error {
	return requireID("room_id", p.RoomID)
}

type findByIDParams struct {
	ID int64 `json:"id"`
}

func (p *findByIDParams) Validate() error {
	return requireID("id", p.ID)
}

func requireID(field string, id int64) error {
	if id <= 0 {
		return errors.New(field + " must be a positive integer")
	}
	return nil
}

type idResult struct {
	ID int64 `json:"id"`
}

type userResult struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

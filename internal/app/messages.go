package app

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/crimpz/clic/internal/domain"
	"github.com/crimpz/clic/internal/live"
)

// SendMessageRequest is a room message. UserName and UserID are optional claims
// about the author; when present they must match the caller.
type SendMessageRequest struct {
	Text     string
	RoomID   int64
	UserName *string
	UserID   *int64
}

// SendMessage persists a room message and then announces it to every live client.
func (s *Service) SendMessage(ctx context.Context, identity domain.Identity, req SendMessageRequest) (int64, error) {
	author, err := s.currentUser(ctx, identity)
	if err != nil {
		return 0, err
	}
	if req.UserID != nil && *req.UserID != author.ID {
		return 0, fmt.Errorf("message_user_id %d: %w", *req.UserID, domain.ErrPermissionDenied)
	}
	if req.UserName != nil && *req.UserName != author.Username {
		return 0, fmt.Errorf("message_user_name %q: %w", *req.UserName, domain.ErrPermissionDenied)
	}

	text, err := requireText("message_text", req.Text, maxMessageLength)
	if err != nil {
		return 0, err
	}
	if _, err := s.rooms.Get(ctx, req.RoomID); err != nil {
		return 0, err
	}

	id, err := s.messages.CreateRoomMessage(ctx, domain.NewRoomMessage{Text: text, RoomID: req.RoomID, UserID: author.ID})
	if err != nil {
		return 0, fmt.Errorf("create room message: %w", err)
	}

	s.notifier.BroadcastAll(ctx, live.NewRoomMessage{RoomID: req.RoomID, From: author.Username, Content: text})
	return id, nil
}

func (s *Service) MessagesByRoom(ctx context.Context, identity domain.Identity, roomID int64) ([]domain.Message, error) {
	if _, err := identity.RequireUser(); err != nil {
		return nil, err
	}
	if _, err := s.rooms.Get(ctx, roomID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list messages of room %d: %w", roomID, err)
	}
	return msgs, nil
}

// RecentRoomMessages returns messages of roomID with id > afterID, ascending.
func (s *Service) RecentRoomMessages(ctx context.Context, identity domain.Identity, roomID, afterID int64) ([]domain.Message, error) {
	if _, err := identity.RequireUser(); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListRecentByRoom(ctx, roomID, afterID)
	if err != nil {
		return nil, fmt.Errorf("list recent messages of room %d: %w", roomID, err)
	}
	return msgs, nil
}

// SendPrivateMessage persists a private message and pushes it to the receiver.
func (s *Service) SendPrivateMessage(ctx context.Context, identity domain.Identity, senderName, receiverName, text string) (int64, error) {
	sender, err := s.currentUser(ctx, identity)
	if err != nil {
		return 0, err
	}
	if senderName != sender.Username {
		return 0, fmt.Errorf("sender_name %q: %w", senderName, domain.ErrPermissionDenied)
	}
	if receiverName == sender.Username {
		return 0, domain.NewInvalidInput("cannot send a private message to yourself")
	}

	text, err = requireText("message_text", text, maxMessageLength)
	if err != nil {
		return 0, err
	}
	receiver, err := s.users.GetByUsername(ctx, receiverName)
	if err != nil {
		return 0, err
	}

	id, err := s.messages.CreatePrivateMessage(ctx, domain.NewPrivateMessage{SenderID: sender.ID, ReceiverID: receiver.ID, Text: text})
	if err != nil {
		return 0, fmt.Errorf("create private message: %w", err)
	}

	s.notifier.SendToUser(ctx, receiver.ID, live.NewPrivateMessage{From: sender.Username, To: receiver.Username, Content: text})
	return id, nil
}

// PrivateMessages returns the conversation between the caller and otherName in
// both directions, ordered by id with no duplicates.
func (s *Service) PrivateMessages(ctx context.Context, identity domain.Identity, otherName string) ([]domain.FriendMessage, error) {
	me, err := s.currentUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	other, err := s.users.GetByUsername(ctx, otherName)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListPrivateBetween(ctx, me.ID, other.ID)
	if err != nil {
		return nil, fmt.Errorf("list private messages: %w", err)
	}
	return mergePrivate(msgs), nil
}

// mergePrivate sorts by id and drops repeated ids.
func mergePrivate(msgs []domain.FriendMessage) []domain.FriendMessage {
	slices.SortFunc(msgs, func(a, b domain.FriendMessage) int { return cmp.Compare(a.ID, b.ID) })
	return slices.CompactFunc(msgs, func(a, b domain.FriendMessage) bool { return a.ID == b.ID })
}

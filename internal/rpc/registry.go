package rpc

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/crimpz/clic/internal/app"
	"github.com/crimpz/clic/internal/domain"
)

// Handler executes one command. params is the raw params member, possibly empty.
type Handler func(ctx context.Context, identity domain.Identity, params json.RawMessage) (any, error)

// Service is the part of app.Service the commands call.
type Service interface {
	CreateRoom(ctx context.Context, identity domain.Identity, title string, roomType domain.RoomType) (*domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
	UpdateRoom(ctx context.Context, identity domain.Identity, id int64, title *string) (*domain.Room, error)
	DeleteRoom(ctx context.Context, identity domain.Identity, id int64) (*domain.Room, error)
	SendMessage(ctx context.Context, identity domain.Identity, req app.SendMessageRequest) (int64, error)
	SendPrivateMessage(ctx context.Context, identity domain.Identity, senderName, receiverName, text string) (int64, error)
	MessagesByRoom(ctx context.Context, identity domain.Identity, roomID int64) ([]domain.Message, error)
	RecentRoomMessages(ctx context.Context, identity domain.Identity, roomID, afterID int64) ([]domain.Message, error)
	PrivateMessages(ctx context.Context, identity domain.Identity, otherName string) ([]domain.FriendMessage, error)
	AddFriend(ctx context.Context, identity domain.Identity, name string) error
	Friends(ctx context.Context, identity domain.Identity) ([]string, error)
	JoinVoice(ctx context.Context, identity domain.Identity, roomID int64) (*app.VoiceState, error)
	FindUsername(ctx context.Context, identity domain.Identity, id int64) (string, error)
}

// Registry maps method names to handlers. It is built once and never mutated,
// so lookups need no locking.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry(svc Service) *Registry {
	return &Registry{handlers: map[string]Handler{
		"create_room": withParams(func(ctx context.Context, id domain.Identity, p createRoomParams) (any, error) {
			return svc.CreateRoom(ctx, id, p.Title, p.RoomType)
		}),
		"list_rooms": withoutParams(func(ctx context.Context, id domain.Identity) (any, error) {
			if _, err := id.RequireUser(); err != nil {
				return nil, err
			}
			return svc.ListRooms(ctx)
		}),
		"update_room": withParams(func(ctx context.Context, id domain.Identity, p updateRoomParams) (any, error) {
			return svc.UpdateRoom(ctx, id, p.ID, p.Title)
		}),
		"delete_room": withParams(func(ctx context.Context, id domain.Identity, p roomIDParams) (any, error) {
			return svc.DeleteRoom(ctx, id, p.ID)
		}),
		"send_message": withParams(func(ctx context.Context, id domain.Identity, p sendMessageParams) (any, error) {
			msgID, err := svc.SendMessage(ctx, id, app.SendMessageRequest{
				Text:     p.Text,
				RoomID:   p.RoomID,
				UserName: p.UserName,
				UserID:   p.UserID,
			})
			if err != nil {
				return nil, err
			}
			return idResult{ID: msgID}, nil
		}),
		"send_private_message": withParams(func(ctx context.Context, id domain.Identity, p sendPrivateMessageParams) (any, error) {
			return svc.SendPrivateMessage(ctx, id, p.SenderName, p.ReceiverName, p.Text)
		}),
		"get_messages_by_room_id": withParams(func(ctx context.Context, id domain.Identity, p messagesByRoomParams) (any, error) {
			return svc.MessagesByRoom(ctx, id, p.RoomID)
		}),
		"get_recent_room_messages_by_id": withParams(func(ctx context.Context, id domain.Identity, p recentMessagesParams) (any, error) {
			return svc.RecentRoomMessages(ctx, id, p.RoomID, p.MessageID)
		}),
		"get_private_messages": withParams(func(ctx context.Context, id domain.Identity, p privateMessagesParams) (any, error) {
			return svc.PrivateMessages(ctx, id, p.ReceiverName)
		}),
		"add_friend": withParams(func(ctx context.Context, id domain.Identity, p addFriendParams) (any, error) {
			return nil, svc.AddFriend(ctx, id, p.Name)
		}),
		"get_friends": withoutParams(func(ctx context.Context, id domain.Identity) (any, error) {
			return svc.Friends(ctx, id)
		}),
		"join_voice": withParams(func(ctx context.Context, id domain.Identity, p joinVoiceParams) (any, error) {
			return svc.JoinVoice(ctx, id, p.RoomID)
		}),
		"find_by_id": withParams(func(ctx context.Context, id domain.Identity, p findByIDParams) (any, error) {
			name, err := svc.FindUsername(ctx, id, p.ID)
			if err != nil {
				return nil, err
			}
			return userResult{ID: p.ID, Username: name}, nil
		}),
	}}
}

func (r *Registry) Lookup(method string) (Handler, bool) {
	h, ok := r.handlers[method]
	return h, ok
}

// Methods returns the registered method names, sorted.
func (r *Registry) Methods() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

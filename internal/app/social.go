package app

import (
	"context"
	"fmt"

	"github.com/crimpz/clic/internal/domain"
	"github.com/crimpz/clic/internal/live"
)

// AddFriend records a symmetric friendship between the caller and name.
func (s *Service) AddFriend(ctx context.Context, identity domain.Identity, name string) error {
	me, err := s.currentUser(ctx, identity)
	if err != nil {
		return err
	}
	if name == me.Username {
		return domain.NewInvalidInput("cannot add yourself as a friend")
	}
	friend, err := s.users.GetByUsername(ctx, name)
	if err != nil {
		return err
	}

	if err := s.friends.Add(ctx, me.ID, friend.ID); err != nil {
		return fmt.Errorf("add friend: %w", err)
	}
	return nil
}

// Friends returns the caller's friend names, sorted.
func (s *Service) Friends(ctx context.Context, identity domain.Identity) ([]string, error) {
	userID, err := identity.RequireUser()
	if err != nil {
		return nil, err
	}

	names, err := s.friends.ListNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return names, nil
}

// VoiceState is a voice room and the ids of its participants in join order.
type VoiceState struct {
	Room  domain.Room `json:"room"`
	Users []int64     `json:"users"`
}

// JoinVoice adds the caller to a voice room and announces the join to everyone.
func (s *Service) JoinVoice(ctx context.Context, identity domain.Identity, roomID int64) (*VoiceState, error) {
	me, err := s.currentUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.RoomType != domain.RoomTypeVoice {
		return nil, domain.NewInvalidInput("room %d is not a voice room", roomID)
	}

	if err := s.voice.Join(ctx, roomID, me.ID); err != nil {
		return nil, fmt.Errorf("join voice room %d: %w", roomID, err)
	}
	users, err := s.voice.Participants(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list voice participants: %w", err)
	}

	s.notifier.BroadcastAll(ctx, live.VoiceJoin{RoomID: roomID, UserID: me.ID, Username: me.Username})
	return &VoiceState{Room: *room, Users: users}, nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crimpz/clic/internal/domain"
)

// CreateRoom is open to the system identity so bootstrap can seed rooms.
func (s *Service) CreateRoom(ctx context.Context, identity domain.Identity, title string, roomType domain.RoomType) (*domain.Room, error) {
	if !identity.IsSystem() {
		if _, err := identity.RequireUser(); err != nil {
			return nil, err
		}
	}

	title, err := requireText("title", title, maxTitleLength)
	if err != nil {
		return nil, err
	}
	if roomType == "" {
		roomType = domain.RoomTypeText
	}
	if !roomType.Valid() {
		return nil, domain.NewInvalidInput("room_type must be %q or %q", domain.RoomTypeText, domain.RoomTypeVoice)
	}

	room, err := s.rooms.Create(ctx, domain.RoomCreate{Title: title, RoomType: roomType})
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	slog.InfoContext(ctx, "Room created", "room_id", room.ID, "room_type", room.RoomType)
	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	return s.rooms.Get(ctx, id)
}

func (s *Service) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

func (s *Service) UpdateRoom(ctx context.Context, identity domain.Identity, id int64, title *string) (*domain.Room, error) {
	if _, err := identity.RequireUser(); err != nil {
		return nil, err
	}

	var update domain.RoomUpdate
	if title != nil {
		t, err := requireText("title", *title, maxTitleLength)
		if err != nil {
			return nil, err
		}
		update.Title = &t
	}

	room, err := s.rooms.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("update room %d: %w", id, err)
	}
	return room, nil
}

func (s *Service) DeleteRoom(ctx context.Context, identity domain.Identity, id int64) (*domain.Room, error) {
	if _, err := identity.RequireUser(); err != nil {
		return nil, err
	}

	room, err := s.rooms.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete room %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Room deleted", "room_id", id)
	return room, nil
}

// EnsureDefaultRooms creates the given rooms when no room exists yet.
func (s *Service) EnsureDefaultRooms(ctx context.Context, titles []string) error {
	existing, err := s.ListRooms(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, title := range titles {
		if _, err := s.CreateRoom(ctx, domain.SystemIdentity(), title, domain.RoomTypeText); err != nil {
			return fmt.Errorf("seed room %q: %w", title, err)
		}
	}
	return nil
}

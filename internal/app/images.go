package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crimpz/clic/internal/domain"
	"github.com/google/uuid"
)

// ImageUpload describes a file already written to storage.
type ImageUpload struct {
	ID          uuid.UUID
	MessageID   int64
	Filename    string
	ContentType string
	StoragePath string
}

// AttachImage records an uploaded image against a message the caller authored.
func (s *Service) AttachImage(ctx context.Context, identity domain.Identity, upload ImageUpload) (*domain.Image, error) {
	userID, err := identity.RequireUser()
	if err != nil {
		return nil, err
	}
	msg, err := s.messages.GetRoomMessage(ctx, upload.MessageID)
	if err != nil {
		return nil, err
	}
	if msg.UserID != userID {
		return nil, fmt.Errorf("message %d: %w", msg.ID, domain.ErrPermissionDenied)
	}

	id := upload.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	img, err := s.images.Create(ctx, domain.Image{
		ID:          id,
		MessageID:   msg.ID,
		UserID:      userID,
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
		StoragePath: upload.StoragePath,
		UploadedAt:  s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	slog.InfoContext(ctx, "Image attached", "image_id", img.ID, "message_id", msg.ID)
	return img, nil
}

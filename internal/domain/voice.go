package domain

import "context"

// VoiceRepository tracks who has joined a voice room. Join is idempotent.
type VoiceRepository interface {
	Join(ctx context.Context, roomID, userID int64) error
	// Participants returns user ids ordered by join time.
	Participants(ctx context.Context, roomID int64) ([]int64, error)
}

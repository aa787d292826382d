package app

import (
	"context"
	"strings"

	"github.com/crimpz/clic/internal/domain"
	"github.com/crimpz/clic/internal/live"
	"github.com/jonboulle/clockwork"
)

const (
	maxTitleLength    = 100
	maxMessageLength  = 4000
	maxUsernameLength = 32
	minPasswordLength = 8
)

// Notifier pushes live events. live.Broadcaster implements it.
type Notifier interface {
	SendToUser(ctx context.Context, userID int64, event live.Event) bool
	BroadcastAll(ctx context.Context, event live.Event) int
}

type Repositories struct {
	Rooms    domain.RoomRepository
	Messages domain.MessageRepository
	Images   domain.ImageRepository
	Users    domain.UserRepository
	Friends  domain.FriendRepository
	Voice    domain.VoiceRepository
}

// Service orchestrates all chat use cases.
type Service struct {
	rooms    domain.RoomRepository
	messages domain.MessageRepository
	images   domain.ImageRepository
	users    domain.UserRepository
	friends  domain.FriendRepository
	voice    domain.VoiceRepository
	notifier Notifier
	clock    clockwork.Clock
	hasher   PasswordHasher
}

func NewService(repos Repositories, notifier Notifier, clock clockwork.Clock) *Service {
	return &Service{
		rooms:    repos.Rooms,
		messages: repos.Messages,
		images:   repos.Images,
		users:    repos.Users,
		friends:  repos.Friends,
		voice:    repos.Voice,
		notifier: notifier,
		clock:    clock,
		hasher:   BcryptHasher{},
	}
}

// WithHasher swaps the password hasher. Tests use a cheap one.
func (s *Service) WithHasher(h PasswordHasher) *Service {
	s.hasher = h
	return s
}

// currentUser resolves the acting user, rejecting the system identity.
func (s *Service) currentUser(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	userID, err := identity.RequireUser()
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

func requireText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", domain.NewInvalidInput("%s must not be empty", field)
	}
	if len(value) > max {
		return "", domain.NewInvalidInput("%s exceeds %d characters", field, max)
	}
	return value, nil
}

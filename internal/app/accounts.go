package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crimpz/clic/internal/domain"
)

// Register creates an account. Duplicate names fail with domain.ErrUsernameTaken.
func (s *Service) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username, err := requireText("username", username, maxUsernameLength)
	if err != nil {
		return nil, err
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return nil, domain.NewInvalidInput("username must not contain whitespace")
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewInvalidInput("pwd must be at least %d characters", minPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, username, hash)
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords are not
// distinguished.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrLoginFailed
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrLoginFailed
	}
	return user, nil
}

// ResolveUser loads the user behind a session identity.
func (s *Service) ResolveUser(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	return s.currentUser(ctx, identity)
}

// FindUsername looks up a user's public name by id.
func (s *Service) FindUsername(ctx context.Context, identity domain.Identity, id int64) (string, error) {
	if _, err := identity.RequireUser(); err != nil {
		return "", err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

func isNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}

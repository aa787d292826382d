package domain

import "fmt"

// Identity is the authenticated principal attached to a request or a live connection.
// The zero value carries no user and is rejected by everything that needs one.
type Identity struct {
	userID int64
	system bool
}

// NewIdentity builds a user identity. The id must be positive; 0 is reserved for the
// system identity and can never be produced from untrusted input.
func NewIdentity(userID int64) (Identity, error) {
	if userID == 0 {
		return Identity{}, ErrSystemIdentity
	}
	if userID < 0 {
		return Identity{}, fmt.Errorf("user id %d: %w", userID, ErrNoIdentity)
	}
	return Identity{userID: userID}, nil
}

// SystemIdentity is used by internal bootstrap code only.
func SystemIdentity() Identity {
	return Identity{system: true}
}

func (i Identity) UserID() int64 { return i.userID }

func (i Identity) IsSystem() bool { return i.system }

// RequireUser returns the user id, or an error when the identity is the system
// identity or carries no user at all.
func (i Identity) RequireUser() (int64, error) {
	if i.system {
		return 0, ErrSystemIdentity
	}
	if i.userID <= 0 {
		return 0, ErrNoIdentity
	}
	return i.userID, nil
}

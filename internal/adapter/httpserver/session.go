package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/crimpz/clic/internal/domain"
	"github.com/labstack/echo/v4"
)

const (
	sessionName      = "clic-session"
	sessionKeyUserID = "user_id"

	contextKeyUserID   = "userID"
	contextKeyIdentity = "identity"
)

var errNoSession = errors.New("no session")

// resolveIdentity reads the session cookie and checks that its user still
// exists. Stale sessions are expired on the response.
func (s *Server) resolveIdentity(c echo.Context) (domain.Identity, error) {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return domain.Identity{}, errNoSession
	}

	userID, ok := session.Values[sessionKeyUserID].(int64)
	if !ok {
		return domain.Identity{}, errNoSession
	}

	identity, err := domain.NewIdentity(userID)
	if err != nil {
		return domain.Identity{}, errNoSession
	}

	if _, err := s.app.ResolveUser(c.Request().Context(), identity); err != nil {
		var nf *domain.NotFoundError
		if !errors.As(err, &nf) {
			return domain.Identity{}, fmt.Errorf("failed to resolve session user: %w", err)
		}
		slog.WarnContext(c.Request().Context(), "Session references unknown user, invalidating", "user_id", userID)
		session.Options.MaxAge = -1
		_ = session.Save(c.Request(), c.Response().Writer)
		return domain.Identity{}, errNoSession
	}

	return identity, nil
}

// requireIdentity answers NO_AUTH in the usual error envelope.
func (s *Server) requireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := s.resolveIdentity(c)
		if errors.Is(err, errNoSession) {
			return domain.ErrNoIdentity
		}
		if err != nil {
			return err
		}
		setIdentity(c, identity)
		return next(c)
	}
}

// requireIdentityOrUnauthorized rejects with a bare 401 so that WebSocket
// clients fail the handshake without an upgrade.
func (s *Server) requireIdentityOrUnauthorized(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := s.resolveIdentity(c)
		if errors.Is(err, errNoSession) {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		if err != nil {
			return err
		}
		setIdentity(c, identity)
		return next(c)
	}
}

func setIdentity(c echo.Context, identity domain.Identity) {
	c.Set(contextKeyIdentity, identity)
	c.Set(contextKeyUserID, identity.UserID())
}

// identityFrom returns the identity set by requireIdentity, or the zero
// identity, which every user-scoped operation rejects.
func identityFrom(c echo.Context) domain.Identity {
	identity, _ := c.Get(contextKeyIdentity).(domain.Identity)
	return identity
}

// startSession replaces any existing session with a fresh one for userID.
func (s *Server) startSession(c echo.Context, userID int64) error {
	if old, err := s.sessionStore.Get(c.Request(), sessionName); err == nil && !old.IsNew {
		old.Options.MaxAge = -1
		if err := old.Save(c.Request(), c.Response().Writer); err != nil {
			return fmt.Errorf("failed to invalidate old session: %w", err)
		}
	}

	session, err := s.sessionStore.New(c.Request(), sessionName)
	if err != nil && session == nil {
		return fmt.Errorf("failed to create new session: %w", err)
	}

	session.Values[sessionKeyUserID] = userID
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// endSession expires the cookie. It reports whether a session was present.
func (s *Server) endSession(c echo.Context) (bool, error) {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		session, err = s.sessionStore.New(c.Request(), sessionName)
		if err != nil && session == nil {
			return false, fmt.Errorf("failed to create session: %w", err)
		}
	}
	_, hadUser := session.Values[sessionKeyUserID]

	session.Options.MaxAge = -1
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return false, fmt.Errorf("failed to save logoff session: %w", err)
	}
	return hadUser, nil
}

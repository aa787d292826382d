package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/crimpz/clic/internal/live"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	upgradeReadBuffer  = 1024
	upgradeWriteBuffer = 1024
)

func newUpgrader(allowedOrigins []string, isDevelopment bool) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  upgradeReadBuffer,
		WriteBufferSize: upgradeWriteBuffer,
		CheckOrigin:     newCheckOrigin(allowedOrigins, isDevelopment),
	}
}

// newCheckOrigin allows requests without an Origin header (non-browser
// clients), the configured CORS origins, and localhost in development.
func newCheckOrigin(allowedOrigins []string, isDevelopment bool) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowedOrigins, origin) {
			return true
		}
		if isDevelopment && isLocalhostOrigin(origin) {
			return true
		}

		slog.Warn("WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
		return false
	}
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}

// handleLive upgrades the request and blocks until the connection ends.
func (s *Server) handleLive(c echo.Context) error {
	identity := identityFrom(c)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		slog.InfoContext(c.Request().Context(), "WebSocket upgrade failed", "user_id", identity.UserID(), "error", err)
		return nil
	}

	if err := s.live.Accept(c.Request().Context(), identity, conn); err != nil {
		if errors.Is(err, live.ErrShuttingDown) {
			slog.InfoContext(c.Request().Context(), "Live connection refused during shutdown", "user_id", identity.UserID())
			return nil
		}
		slog.WarnContext(c.Request().Context(), "Live connection rejected", "user_id", identity.UserID(), "error", err)
	}
	return nil
}

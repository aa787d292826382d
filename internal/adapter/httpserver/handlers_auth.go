package httpserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/crimpz/clic/internal/domain"
	apperrors "github.com/crimpz/clic/internal/platform/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const authBodyLimit = "16K"

type credentials struct {
	Username string `json:"username"`
	Password string `json:"pwd"`
}

type logoffRequest struct {
	Logoff bool `json:"logoff"`
}

type resultEnvelope struct {
	Result any `json:"result"`
}

func (s *Server) registerAuthRoutes(rateLimiter echo.MiddlewareFunc) {
	limit := middleware.BodyLimit(authBodyLimit)
	s.echo.POST("/api/login", s.handleLogin, rateLimiter, limit)
	s.echo.POST("/api/create_user", s.handleCreateUser, rateLimiter, limit)
	s.echo.POST("/api/logoff", s.handleLogoff, limit)
}

func decodeJSONBody(c echo.Context, dst any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(dst); err != nil {
		return apperrors.ValidationError(apperrors.CodeInvalidRequest, "invalid request body").
			WithContext("reason", err.Error())
	}
	return nil
}

func (s *Server) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var creds credentials
	if err := decodeJSONBody(c, &creds); err != nil {
		return err
	}
	if creds.Username == "" || creds.Password == "" {
		return domain.ErrLoginFailed
	}

	user, err := s.app.Authenticate(ctx, creds.Username, creds.Password)
	if err != nil {
		return err
	}

	if err := s.startSession(c, user.ID); err != nil {
		return apperrors.InternalError("failed to start session", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID)

	if err := c.JSON(http.StatusOK, resultEnvelope{Result: map[string]bool{"success": true}}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLogoff(c echo.Context) error {
	var req logoffRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return err
	}

	loggedOff := false
	if req.Logoff {
		hadSession, err := s.endSession(c)
		if err != nil {
			return apperrors.InternalError("failed to end session", err)
		}
		loggedOff = hadSession
		slog.InfoContext(c.Request().Context(), "User logged off", "had_session", hadSession)
	}

	if err := c.JSON(http.StatusOK, resultEnvelope{Result: map[string]bool{"logged_off": loggedOff}}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCreateUser(c echo.Context) error {
	var creds credentials
	if err := decodeJSONBody(c, &creds); err != nil {
		return err
	}
	if creds.Username == "" || creds.Password == "" {
		return apperrors.ValidationError(apperrors.CodeInvalidRequest, "invalid request").
			WithContext("reason", "username and pwd are required")
	}

	if _, err := s.app.Register(c.Request().Context(), creds.Username, creds.Password); err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, resultEnvelope{Result: map[string]bool{"success": true}}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

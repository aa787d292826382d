package httpserver

import (
	"fmt"
	"io"

	apperrors "github.com/crimpz/clic/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleRPC(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperrors.ValidationError(apperrors.CodeParseError, "parse error").
			WithContext("reason", "unreadable body")
	}

	status, resp := s.router.Dispatch(c.Request().Context(), identityFrom(c), body)
	if err := c.JSON(status, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

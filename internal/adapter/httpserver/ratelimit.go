package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/crimpz/clic/internal/platform/correlation"
	apperrors "github.com/crimpz/clic/internal/platform/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

// newRateLimiter limits requests per client IP. Denials use the error
// envelope with code RATE_LIMITED.
func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			slog.InfoContext(c.Request().Context(), "Rate limit exceeded", "ip", identifier, "path", c.Path())
			requestID, _ := correlation.ID(c.Request().Context())
			resp := apperrors.ErrorResponse{Error: apperrors.ErrorBody{
				Message: apperrors.CodeRateLimited,
				Data:    apperrors.ErrorData{RequestID: requestID},
			}}
			if err := c.JSON(http.StatusTooManyRequests, resp); err != nil {
				return fmt.Errorf("failed to send JSON response: %w", err)
			}
			return nil
		},
	})
}

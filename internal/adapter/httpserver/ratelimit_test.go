package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/crimpz/clic/internal/platform/errors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRemoteAddr = "1.2.3.4:1234"

func limitedRequest(t *testing.T, e *echo.Echo, handler echo.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	e := echo.New()
	handler := newRateLimiter(10, 3)(okHandler)

	for range 3 {
		rec := limitedRequest(t, e, handler, testRemoteAddr)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiterDeniesWithEnvelope(t *testing.T) {
	e := echo.New()
	handler := newRateLimiter(0.01, 1)(okHandler)

	assert.Equal(t, http.StatusOK, limitedRequest(t, e, handler, testRemoteAddr).Code)

	rec := limitedRequest(t, e, handler, testRemoteAddr)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CodeRateLimited, resp.Error.Message)
}

func TestRateLimiterPerIP(t *testing.T) {
	e := echo.New()
	handler := newRateLimiter(0.01, 1)(okHandler)

	assert.Equal(t, http.StatusOK, limitedRequest(t, e, handler, testRemoteAddr).Code)
	assert.Equal(t, http.StatusOK, limitedRequest(t, e, handler, "5.6.7.8:5678").Code)
	assert.Equal(t, http.StatusTooManyRequests, limitedRequest(t, e, handler, testRemoteAddr).Code)
}

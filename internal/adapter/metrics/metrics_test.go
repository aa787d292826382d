package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/crimpz/clic/internal/live"
	"github.com/crimpz/clic/internal/rpc"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveMetrics(t *testing.T) {
	m := NewLiveMetrics(prometheus.NewRegistry())

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.Delivered(live.TypeNewRoomMessage)
	m.Dropped(live.TypeVoiceJoin, live.ReasonBufferFull)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveConnections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConnectionsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Delivered.WithLabelValues(live.TypeNewRoomMessage)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dropped.WithLabelValues(live.TypeVoiceJoin, live.ReasonBufferFull)))
}

func TestRPCMetrics(t *testing.T) {
	m := NewRPCMetrics(prometheus.NewRegistry())

	m.ObserveCommand("create_room", rpc.OutcomeOK, 3*time.Millisecond)
	m.ObserveCommand("create_room", rpc.OutcomeClientError, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("create_room", rpc.OutcomeOK)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestCacheMetrics(t *testing.T) {
	m := NewCacheMetrics(prometheus.NewRegistry())

	m.Lookup("memory")
	m.Lookup("memory")
	m.BreakerChanged(gobreaker.StateClosed, gobreaker.StateOpen)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Lookups.WithLabelValues("memory")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerTransitions.WithLabelValues("open")))
}

func TestDBMetrics(t *testing.T) {
	m := NewDBMetrics(prometheus.NewRegistry())

	m.ObserveQuery("select", time.Millisecond, nil)
	m.ObserveQuery("insert", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.QueryErrors.WithLabelValues("select")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueryErrors.WithLabelValues("insert")))
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/api/ok", "/api/ok", "/health/live"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/ok", "204")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := NewRegistry()
	NewLiveMetrics(reg).ConnectionOpened()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "clic_live_active_connections 1"))
}

package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crimpz/clic/internal/adapter/filestore"
	"github.com/crimpz/clic/internal/app"
	"github.com/crimpz/clic/internal/domain"
	"github.com/crimpz/clic/internal/platform/config"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockAppService struct {
	registerFn     func(ctx context.Context, username, password string) (*domain.User, error)
	authenticateFn func(ctx context.Context, username, password string) (*domain.User, error)
	resolveUserFn  func(ctx context.Context, identity domain.Identity) (*domain.User, error)
	attachImageFn  func(ctx context.Context, identity domain.Identity, upload app.ImageUpload) (*domain.Image, error)
}

func (m *mockAppService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, username, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, username, password)
	}
	return nil, errors.New("not implemented")
}

// ResolveUser accepts every identity unless overridden.
func (m *mockAppService) ResolveUser(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	if m.resolveUserFn != nil {
		return m.resolveUserFn(ctx, identity)
	}
	return &domain.User{ID: identity.UserID(), Username: "user"}, nil
}

func (m *mockAppService) AttachImage(ctx context.Context, identity domain.Identity, upload app.ImageUpload) (*domain.Image, error) {
	if m.attachImageFn != nil {
		return m.attachImageFn(ctx, identity, upload)
	}
	return nil, errors.New("not implemented")
}

type mockDispatcher struct {
	dispatchFn func(ctx context.Context, identity domain.Identity, body []byte) (int, any)
}

func (m *mockDispatcher) Dispatch(ctx context.Context, identity domain.Identity, body []byte) (int, any) {
	if m.dispatchFn != nil {
		return m.dispatchFn(ctx, identity, body)
	}
	return http.StatusOK, map[string]any{"result": nil}
}

type mockLive struct {
	acceptFn func(ctx context.Context, identity domain.Identity, conn *websocket.Conn) error
}

func (m *mockLive) Accept(ctx context.Context, identity domain.Identity, conn *websocket.Conn) error {
	if m.acceptFn != nil {
		return m.acceptFn(ctx, identity, conn)
	}
	return conn.Close()
}

func (m *mockLive) Len() int { return 0 }

type failingImageStore struct{}

func (failingImageStore) Root() string { return "" }

func (failingImageStore) SaveImage(io.Reader) (filestore.Stored, error) {
	return filestore.Stored{}, errors.New("disk full")
}

func (failingImageStore) Remove(string) error { return nil }

// --- Test helpers ---

const testSessionSecret = "test-secret-key-32-bytes-long!!!"

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:         "test",
		Port:           "0",
		SessionSecret:  testSessionSecret,
		CORSOrigins:    "http://localhost:3000",
		MaxUploadBytes: 1 << 20,
		LoginRate:      1000,
		LoginBurst:     1000,
	}
}

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	store := sessions.NewCookieStore([]byte(testSessionSecret))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	cfg := testConfig()
	srv := &Server{
		echo:         echo.New(),
		config:       cfg,
		app:          app,
		router:       &mockDispatcher{},
		live:         &mockLive{},
		upgrader:     newUpgrader(cfg.AllowedOrigins(), true),
		sessionStore: store,
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withDispatcher(d dispatcher) func(*Server) {
	return func(s *Server) {
		s.router = d
	}
}

func withLive(l liveAcceptor) func(*Server) {
	return func(s *Server) {
		s.live = l
	}
}

func withImages(images imageStore) func(*Server) {
	return func(s *Server) {
		s.images = images
	}
}

func withConfig(mutate func(*config.Config)) func(*Server) {
	return func(s *Server) {
		mutate(s.config)
	}
}

func withObservability(obs Observability) func(*Server) {
	return func(s *Server) {
		s.obs = obs
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}

// sessionCookie returns a valid session cookie for userID.
func sessionCookie(t *testing.T, srv *Server, userID int64) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, err := srv.sessionStore.New(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyUserID] = userID
	require.NoError(t, session.Save(req, rec))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

// serve runs req through the full route table.
func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func lastSessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			found = c
		}
	}
	return found
}

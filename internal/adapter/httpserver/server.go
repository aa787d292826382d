package httpserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/crimpz/clic/internal/adapter/filestore"
	"github.com/crimpz/clic/internal/app"
	"github.com/crimpz/clic/internal/domain"
	"github.com/crimpz/clic/internal/platform/config"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type appService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	ResolveUser(ctx context.Context, identity domain.Identity) (*domain.User, error)
	AttachImage(ctx context.Context, identity domain.Identity, upload app.ImageUpload) (*domain.Image, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, identity domain.Identity, body []byte) (int, any)
}

type liveAcceptor interface {
	Accept(ctx context.Context, identity domain.Identity, conn *websocket.Conn) error
	Len() int
}

type imageStore interface {
	Root() string
	SaveImage(r io.Reader) (filestore.Stored, error)
	Remove(rel string) error
}

// Observability bundles the optional metrics hooks. Zero value disables both.
type Observability struct {
	Middleware echo.MiddlewareFunc
	Handler    http.Handler
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app    appService
	router dispatcher
	live   liveAcceptor
	images imageStore

	upgrader     websocket.Upgrader
	sessionStore *sessions.CookieStore
	healthChecks []HealthCheck
	obs          Observability
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, router dispatcher, live liveAcceptor, images imageStore, obs Observability, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		router:       router,
		live:         live,
		images:       images,
		upgrader:     newUpgrader(cfg.AllowedOrigins(), !cfg.Production()),
		sessionStore: setupSessionStore(cfg),
		healthChecks: healthChecks,
		obs:          obs,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests. Hijacked live connections are not
// tracked by echo and must be closed by the live manager.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}

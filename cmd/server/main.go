package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crimpz/clic/internal/adapter/filestore"
	"github.com/crimpz/clic/internal/adapter/httpserver"
	"github.com/crimpz/clic/internal/adapter/memory"
	"github.com/crimpz/clic/internal/adapter/metrics"
	"github.com/crimpz/clic/internal/adapter/postgres"
	"github.com/crimpz/clic/internal/adapter/redis"
	"github.com/crimpz/clic/internal/app"
	"github.com/crimpz/clic/internal/live"
	"github.com/crimpz/clic/internal/platform/config"
	"github.com/crimpz/clic/internal/platform/logging"
	"github.com/crimpz/clic/internal/platform/retry"
	"github.com/crimpz/clic/internal/rpc"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

const (
	startupTimeout    = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
	evictionInterval  = time.Minute
	bootstrapDeadline = 10 * time.Second
)

func startupPolicy(clock clockwork.Clock, what string) retry.Policy {
	return retry.Policy{
		MaxAttempts:    8,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Clock:          clock,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Dependency not reachable, retrying", "dependency", what, "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(ctx context.Context, cfg *config.Config, clock clockwork.Clock, reg prometheus.Registerer) *pgxpool.Pool {
	tracer := postgres.NewTracer(metrics.NewDBMetrics(reg))

	pool, err := retry.Do(ctx, startupPolicy(clock, "postgres"), func(ctx context.Context) (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, cfg.DatabaseURL, tracer)
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config, clock clockwork.Clock, cacheMetrics *metrics.CacheMetrics) *goredis.Client {
	breaker := redis.NewBreakerHook(redis.DefaultBreakerSettings(), cacheMetrics.BreakerChanged)

	client, err := retry.Do(ctx, startupPolicy(clock, "redis"), func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL, breaker)
	})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// setupRepositories picks the storage backend and returns the readiness
// checks for it together with a cleanup function.
func setupRepositories(ctx context.Context, cfg *config.Config, clock clockwork.Clock, reg prometheus.Registerer) (app.Repositories, []httpserver.HealthCheck, func()) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("Using in-memory store, data is lost on restart")
		store := memory.NewStore(clock)
		repos := app.Repositories{
			Rooms:    store.Rooms(),
			Messages: store.Messages(),
			Images:   store.Images(),
			Users:    store.Users(),
			Friends:  store.Friends(),
			Voice:    store.Voice(),
		}
		return repos, []httpserver.HealthCheck{{Name: "store", Check: store.Ping}}, func() {}
	}

	pool := setupDB(ctx, cfg, clock, reg)
	repos := app.Repositories{
		Rooms:    postgres.NewRoomRepo(pool),
		Messages: postgres.NewMessageRepo(pool),
		Images:   postgres.NewImageRepo(pool),
		Users:    postgres.NewUserRepo(pool),
		Friends:  postgres.NewFriendRepo(pool),
		Voice:    postgres.NewVoiceRepo(pool),
	}
	return repos, []httpserver.HealthCheck{{Name: "postgres", Check: pool.Ping}}, pool.Close
}

func runGracefulShutdown(srv *httpserver.Server, manager *live.Manager, stopBackground context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := manager.Shutdown(shutdownCtx); err != nil {
			slog.Error("Live shutdown error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		stopBackground()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "store", cfg.StoreDriver)

	registry := metrics.NewRegistry()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStartup()

	repos, healthChecks, closeStore := setupRepositories(startupCtx, cfg, clock, registry)
	defer closeStore()

	background, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	if cfg.RedisURL != "" {
		cacheMetrics := metrics.NewCacheMetrics(registry)
		redisClient := setupRedis(startupCtx, cfg, clock, cacheMetrics)
		defer func() { _ = redisClient.Close() }()

		cache := redis.NewUserCache(redisClient, repos.Users, cfg.UserCacheTTL, clock, cacheMetrics)
		cache.StartEviction(background, evictionInterval)
		repos.Users = cache
		healthChecks = append(healthChecks, httpserver.HealthCheck{Name: "redis", Check: cache.Ping})
	}

	liveMetrics := metrics.NewLiveMetrics(registry)
	connections := live.NewRegistry()
	broadcaster := live.NewBroadcaster(connections, liveMetrics)
	manager := live.NewManager(connections, live.Options{
		SendBuffer:   cfg.LiveSendBuffer,
		PingInterval: cfg.LivePingInterval,
		WriteTimeout: cfg.LiveWriteTimeout,
		ReadLimit:    cfg.LiveReadLimit,
	}, clock, liveMetrics)

	appSvc := app.NewService(repos, broadcaster, clock)

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), bootstrapDeadline)
	if err := appSvc.EnsureDefaultRooms(bootstrapCtx, cfg.DefaultRoomTitles()); err != nil {
		slog.Error("Failed to create default rooms", "error", err)
		cancelBootstrap()
		os.Exit(1)
	}
	cancelBootstrap()

	router := rpc.NewRouter(rpc.NewRegistry(appSvc), metrics.NewRPCMetrics(registry))

	images, err := filestore.New(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		slog.Error("Failed to prepare upload storage", "error", err)
		os.Exit(1)
	}

	srv := httpserver.NewServer(cfg, appSvc, router, manager, images, httpserver.Observability{
		Middleware: metrics.NewHTTPMetrics(registry).Middleware(),
		Handler:    metrics.Handler(registry),
	}, healthChecks)

	done := runGracefulShutdown(srv, manager, stopBackground)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

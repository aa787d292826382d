package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/crimpz/clic/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	testPool        *pgxpool.Pool
	testDatabaseURL string
)

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	os.Exit(runWithDatabase(m))
}

func runWithDatabase(m *testing.M) int {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("clic"),
		postgres.WithUsername("clic"),
		postgres.WithPassword("clic"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start postgres container: %v\n", err)
		return 1
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to terminate postgres container: %v\n", err)
		}
	}()

	testDatabaseURL, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get connection string: %v\n", err)
		return 1
	}

	testPool, err = Connect(ctx, testDatabaseURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to test database: %v\n", err)
		return 1
	}
	defer testPool.Close()

	if err := RunMigrationsWithLock(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run migrations: %v\n", err)
		return 1
	}

	return m.Run()
}

// setupTestDB returns the shared pool and truncates every table afterwards.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	t.Cleanup(func() {
		_, err := testPool.Exec(context.Background(),
			"TRUNCATE users, rooms, messages, images, private_messages, friends, room_participants RESTART IDENTITY CASCADE")
		if err != nil {
			t.Logf("Failed to truncate tables: %v", err)
		}
	})
	return testPool
}

func createUser(t *testing.T, pool *pgxpool.Pool, name string) *domain.User {
	t.Helper()
	user, err := NewUserRepo(pool).Create(context.Background(), name, "hash-"+name)
	require.NoError(t, err)
	return user
}

func createRoom(t *testing.T, pool *pgxpool.Pool, title string, roomType domain.RoomType) *domain.Room {
	t.Helper()
	room, err := NewRoomRepo(pool).Create(context.Background(), domain.RoomCreate{Title: title, RoomType: roomType})
	require.NoError(t, err)
	return room
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "://not-a-url", nil)
	assert.Error(t, err)
}

func TestRunMigrationsWithLock_Idempotent(t *testing.T) {
	pool := setupTestDB(t)
	require.NoError(t, RunMigrationsWithLock(context.Background(), pool))
}

func TestExtractSSLMode(t *testing.T) {
	assert.Equal(t, "disable", extractSSLMode("postgres://u:p@h/db?sslmode=disable"))
	assert.Equal(t, "prefer (default)", extractSSLMode("postgres://u:p@h/db"))
}

func TestOperationOf(t *testing.T) {
	assert.Equal(t, "select", operationOf("  SELECT 1"))
	assert.Equal(t, "insert", operationOf("INSERT INTO rooms"))
	assert.Equal(t, "other", operationOf("TRUNCATE users"))
	assert.Equal(t, "unknown", operationOf(""))
}

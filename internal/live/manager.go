package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crimpz/clic/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

// ErrShuttingDown is returned by Accept once Shutdown has started.
var ErrShuttingDown = errors.New("live: manager shutting down")

type Options struct {
	SendBuffer   int
	PingInterval time.Duration
	PongWait     time.Duration
	WriteTimeout time.Duration
	ReadLimit    int64
}

func DefaultOptions() Options {
	return Options{
		SendBuffer:   64,
		PingInterval: 30 * time.Second,
		PongWait:     60 * time.Second,
		WriteTimeout: 5 * time.Second,
		ReadLimit:    4096,
	}
}

// Manager runs the lifecycle of live connections.
type Manager struct {
	registry *Registry
	clock    clockwork.Clock
	opts     Options
	recorder Recorder

	// mu orders admission against Shutdown: a client is either tracked
	// before closing is set or refused.
	mu       sync.Mutex
	sessions map[*Client]struct{}
	active   sync.WaitGroup
	closing  bool
}

func NewManager(registry *Registry, opts Options, clock clockwork.Clock, recorder Recorder) *Manager {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if opts.PongWait <= opts.PingInterval {
		opts.PongWait = 2 * opts.PingInterval
	}
	return &Manager{
		registry: registry,
		clock:    clock,
		opts:     opts,
		recorder: recorder,
		sessions: make(map[*Client]struct{}),
	}
}

// Accept serves conn for identity until the connection ends. It blocks. The
// connection is always closed when Accept returns.
func (m *Manager) Accept(ctx context.Context, identity domain.Identity, conn *websocket.Conn) error {
	userID, err := identity.RequireUser()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("live connection rejected: %w", err)
	}

	client := NewClient(userID, m.opts.SendBuffer)
	if !m.admit(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			m.clock.Now().Add(m.opts.WriteTimeout))
		_ = conn.Close()
		return ErrShuttingDown
	}
	defer m.active.Done()

	if replaced := m.registry.Register(userID, client); replaced != nil {
		slog.InfoContext(ctx, "Live connection replaced previous session", "user_id", userID)
	}
	m.recorder.ConnectionOpened()
	slog.InfoContext(ctx, "Live connection opened", "user_id", userID, "connections", m.registry.Len())

	w := startWriter(conn, client, m.clock, m.opts)

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.registry.Release(userID, client)
			m.untrack(client)
			client.Close()
			w.wait()
			_ = conn.Close()
			m.recorder.ConnectionClosed()
			slog.InfoContext(ctx, "Live connection closed", "user_id", userID, "connections", m.registry.Len())
		})
	}
	defer release()

	stop := context.AfterFunc(ctx, func() { client.CloseWithReason("request cancelled") })
	defer stop()

	m.readLoop(ctx, conn, userID)
	return nil
}

// admit tracks c and counts it as active unless Shutdown has started.
func (m *Manager) admit(c *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closing {
		return false
	}
	m.active.Add(1)
	m.sessions[c] = struct{}{}
	return true
}

func (m *Manager) untrack(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, c)
}

// readLoop consumes inbound frames. Commands arrive over HTTP, so text frames
// carry no protocol and are only logged.
func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn, userID int64) {
	conn.SetReadLimit(m.opts.ReadLimit)
	m.extendReadDeadline(conn)
	conn.SetPongHandler(func(string) error {
		m.extendReadDeadline(conn)
		return nil
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				slog.DebugContext(ctx, "Live read ended", "user_id", userID, "error", err)
			}
			return
		}
		m.extendReadDeadline(conn)

		if messageType == websocket.TextMessage {
			slog.DebugContext(ctx, "Ignoring inbound live frame", "user_id", userID, "bytes", len(data))
		}
	}
}

func (m *Manager) extendReadDeadline(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(m.clock.Now().Add(m.opts.PongWait))
}

// Len reports the number of users with a registered connection.
func (m *Manager) Len() int {
	return m.registry.Len()
}

// Shutdown sends a close frame to every live connection, superseded ones
// included, and waits for their lifecycles to finish or ctx to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closing = true
	clients := make([]*Client, 0, len(m.sessions))
	for c := range m.sessions {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		c.CloseWithReason("server shutting down")
	}
	slog.Info("Closing live connections", "count", len(clients))

	done := make(chan struct{})
	go func() {
		m.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("live shutdown: %w", ctx.Err())
	}
}

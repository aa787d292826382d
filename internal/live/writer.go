package live

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

// writer is the only goroutine that writes data frames to a connection. It drains
// the client's queue in order and pings on an interval. The first write failure
// ends it; the connection is then considered dead.
type writer struct {
	conn   *websocket.Conn
	client *Client
	clock  clockwork.Clock
	opts   Options
	wg     sync.WaitGroup
}

func startWriter(conn *websocket.Conn, client *Client, clock clockwork.Clock, opts Options) *writer {
	w := &writer{conn: conn, client: client, clock: clock, opts: opts}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *writer) run() {
	defer w.wg.Done()

	ticker := w.clock.NewTicker(w.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-w.client.send:
			w.setWriteDeadline()
			if err := w.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Debug("Live write failed", "user_id", w.client.UserID(), "error", err)
				w.abort()
				return
			}
		case <-ticker.Chan():
			deadline := w.clock.Now().Add(w.opts.WriteTimeout)
			if err := w.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				slog.Debug("Live ping failed", "user_id", w.client.UserID(), "error", err)
				w.abort()
				return
			}
		case <-w.client.Done():
			w.sendClose()
			return
		}
	}
}

// abort marks the client closed and drops the socket so the read loop returns.
func (w *writer) abort() {
	w.client.Close()
	_ = w.conn.Close()
}

func (w *writer) sendClose() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, w.client.reason())
	deadline := w.clock.Now().Add(w.opts.WriteTimeout)
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	_ = w.conn.Close()
}

func (w *writer) setWriteDeadline() {
	_ = w.conn.SetWriteDeadline(w.clock.Now().Add(w.opts.WriteTimeout))
}

func (w *writer) wait() {
	w.wg.Wait()
}

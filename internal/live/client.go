package live

import (
	"errors"
	"sync"
)

var (
	ErrClientClosed = errors.New("live: client closed")
	ErrBufferFull   = errors.New("live: send buffer full")
)

// Client is the outbound half of one live connection: a bounded FIFO queue of
// serialized events plus a done signal. The queue is never closed, so enqueueing
// on a finished client fails instead of panicking.
type Client struct {
	userID int64
	send   chan []byte
	done   chan struct{}

	closeOnce   sync.Once
	mu          sync.Mutex
	closeReason string
}

func NewClient(userID int64, buffer int) *Client {
	if buffer < 1 {
		buffer = 1
	}
	return &Client{
		userID: userID,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) UserID() int64 { return c.userID }

// Enqueue queues payload without blocking.
func (c *Client) Enqueue(payload []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close marks the client finished. Safe to call more than once.
func (c *Client) Close() {
	c.CloseWithReason("")
}

// CloseWithReason closes the client and records the text sent in the close frame.
// Only the first call has an effect.
func (c *Client) CloseWithReason(reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeReason = reason
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeReason
}

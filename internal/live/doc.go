// Package live owns the server-to-client push channel.
//
// The Registry maps a user id to that user's single live Client (last registration
// wins). The Broadcaster serializes events and enqueues them best effort: an absent
// user, a closed client or a full buffer is counted and logged, never returned as an
// error. The Manager runs one WebSocket connection: it registers the client, starts a
// writer goroutine that drains the client's queue in FIFO order and keeps the
// connection alive with pings, reads inbound frames until close, and releases the
// registry entry exactly once.
package live

package live

import "sync"

// Registry maps a user id to the user's current live client. Reads (fan-out
// snapshots) vastly outnumber writes, so a single RWMutex guards the map.
type Registry struct {
	mu      sync.RWMutex
	clients map[int64]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[int64]*Client)}
}

// Register inserts or replaces the entry for userID and returns the client it
// replaced, if any. The replaced client is not closed; it is simply no longer
// addressed.
func (r *Registry) Register(userID int64, c *Client) (replaced *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced = r.clients[userID]
	r.clients[userID] = c
	return replaced
}

// Unregister removes the entry for userID. Absent ids are a no-op.
func (r *Registry) Unregister(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, userID)
}

// Release removes the entry for userID only while it still points at c. A
// superseded connection shutting down must not evict its replacement.
func (r *Registry) Release(userID int64, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.clients[userID]; ok && current == c {
		delete(r.clients, userID)
		return true
	}
	return false
}

func (r *Registry) Lookup(userID int64) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// Snapshot returns the registered clients at this instant, in no particular order.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

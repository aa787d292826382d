package live

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// Broadcaster delivers events to registered clients. Delivery is best effort:
// failures are recorded and logged, never returned.
type Broadcaster struct {
	registry *Registry
	recorder Recorder
}

func NewBroadcaster(registry *Registry, recorder Recorder) *Broadcaster {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Broadcaster{registry: registry, recorder: recorder}
}

// SendToUser enqueues event for userID. It reports whether the event was queued.
func (b *Broadcaster) SendToUser(ctx context.Context, userID int64, event Event) bool {
	payload, ok := b.encode(ctx, event)
	if !ok {
		return false
	}

	client, found := b.registry.Lookup(userID)
	if !found {
		b.recorder.Dropped(event.Type(), ReasonNotConnected)
		slog.DebugContext(ctx, "Live event target not connected", "event", event.Type(), "user_id", userID)
		return false
	}

	return b.deliver(ctx, client, event.Type(), payload)
}

// BroadcastAll enqueues event for every registered client and returns how many
// accepted it. A failing recipient never affects the others.
func (b *Broadcaster) BroadcastAll(ctx context.Context, event Event) int {
	payload, ok := b.encode(ctx, event)
	if !ok {
		return 0
	}

	delivered := 0
	for _, client := range b.registry.Snapshot() {
		if b.deliver(ctx, client, event.Type(), payload) {
			delivered++
		}
	}
	return delivered
}

func (b *Broadcaster) encode(ctx context.Context, event Event) ([]byte, bool) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.recorder.Dropped(event.Type(), ReasonEncode)
		slog.ErrorContext(ctx, "Failed to encode live event", "event", event.Type(), "error", err)
		return nil, false
	}
	return payload, true
}

func (b *Broadcaster) deliver(ctx context.Context, client *Client, eventType string, payload []byte) bool {
	err := client.Enqueue(payload)
	if err == nil {
		b.recorder.Delivered(eventType)
		return true
	}

	reason := ReasonClosed
	if errors.Is(err, ErrBufferFull) {
		reason = ReasonBufferFull
		slog.WarnContext(ctx, "Live client buffer full, dropping event", "event", eventType, "user_id", client.UserID())
	} else {
		slog.DebugContext(ctx, "Live client closed, dropping event", "event", eventType, "user_id", client.UserID())
	}
	b.recorder.Dropped(eventType, reason)
	return false
}

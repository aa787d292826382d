package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_EnqueueIsFIFO(t *testing.T) {
	c := NewClient(1, 3)

	require.NoError(t, c.Enqueue([]byte("a")))
	require.NoError(t, c.Enqueue([]byte("b")))
	require.NoError(t, c.Enqueue([]byte("c")))

	assert.Equal(t, "a", string(<-c.send))
	assert.Equal(t, "b", string(<-c.send))
	assert.Equal(t, "c", string(<-c.send))
}

func TestClient_EnqueueFullBuffer(t *testing.T) {
	c := NewClient(1, 1)

	require.NoError(t, c.Enqueue([]byte("a")))
	assert.ErrorIs(t, c.Enqueue([]byte("b")), ErrBufferFull)
}

func TestClient_EnqueueAfterClose(t *testing.T) {
	c := NewClient(1, 4)
	c.Close()

	assert.ErrorIs(t, c.Enqueue([]byte("a")), ErrClientClosed)
}

func TestClient_CloseIsIdempotentAndKeepsFirstReason(t *testing.T) {
	c := NewClient(1, 4)

	c.CloseWithReason("server shutting down")
	c.CloseWithReason("other")
	c.Close()

	select {
	case <-c.Done():
	default:
		t.Fatal("done channel should be closed")
	}
	assert.Equal(t, "server shutting down", c.reason())
}

func TestNewClient_MinimumBuffer(t *testing.T) {
	c := NewClient(1, 0)
	assert.Equal(t, 1, cap(c.send))
}

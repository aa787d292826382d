package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreakerSettings() gobreaker.Settings {
	s := DefaultBreakerSettings()
	s.Timeout = 100 * time.Millisecond
	return s
}

func runCmd(hook *BreakerHook, result error) error {
	ctx := context.Background()
	process := hook.ProcessHook(func(context.Context, goredis.Cmder) error { return result })
	return process(ctx, goredis.NewStringCmd(ctx, "get", "key"))
}

func TestBreakerHook_StaysClosedOnSuccessAndNil(t *testing.T) {
	hook := NewBreakerHook(testBreakerSettings(), nil)

	for range 5 {
		require.NoError(t, runCmd(hook, nil))
		assert.ErrorIs(t, runCmd(hook, goredis.Nil), goredis.Nil)
	}

	assert.Equal(t, gobreaker.StateClosed, hook.State())
	assert.Equal(t, uint32(10), hook.Counts().TotalSuccesses)
}

func TestBreakerHook_TransientFailuresDoNotTrip(t *testing.T) {
	hook := NewBreakerHook(testBreakerSettings(), nil)

	for range 2 {
		assert.Error(t, runCmd(hook, errors.New("connection refused")))
	}
	assert.Equal(t, gobreaker.StateClosed, hook.State())
}

func TestBreakerHook_OpensAndFailsFast(t *testing.T) {
	var transitions []gobreaker.State
	hook := NewBreakerHook(testBreakerSettings(), func(_, to gobreaker.State) {
		transitions = append(transitions, to)
	})

	for range 5 {
		_ = runCmd(hook, errors.New("redis down"))
	}
	require.Equal(t, gobreaker.StateOpen, hook.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	called := false
	ctx := context.Background()
	process := hook.ProcessHook(func(context.Context, goredis.Cmder) error {
		called = true
		return nil
	})
	err := process(ctx, goredis.NewStringCmd(ctx, "get", "key"))

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.False(t, called)
}

func TestBreakerHook_RecoversAfterTimeout(t *testing.T) {
	hook := NewBreakerHook(testBreakerSettings(), nil)
	for range 5 {
		_ = runCmd(hook, errors.New("redis down"))
	}
	require.Equal(t, gobreaker.StateOpen, hook.State())

	time.Sleep(150 * time.Millisecond)
	require.NoError(t, runCmd(hook, nil))

	assert.Equal(t, gobreaker.StateClosed, hook.State())
}

func TestBreakerHook_PipelineUsesBreaker(t *testing.T) {
	hook := NewBreakerHook(testBreakerSettings(), nil)
	ctx := context.Background()

	pipeline := hook.ProcessPipelineHook(func(context.Context, []goredis.Cmder) error {
		return errors.New("boom")
	})
	for range 5 {
		_ = pipeline(ctx, nil)
	}
	assert.Equal(t, gobreaker.StateOpen, hook.State())
}

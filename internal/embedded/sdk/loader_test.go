package sdk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInit struct {
	loadCalls int
	initCalls int
	loadErr   error
	initErr   error
	initDelay time.Duration
}

func (f *fakeInit) Load(ctx context.Context) error {
	f.loadCalls++
	return f.loadErr
}

func (f *fakeInit) Init(ctx context.Context, cfg Config) error {
	f.initCalls++
	if f.initDelay > 0 {
		select {
		case <-time.After(f.initDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.initErr
}

func TestInitializeAtMostOncePerID(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	init := &fakeInit{}

	first := registry.Initialize(context.Background(), ScriptID, Config{AppID: "1"}, init)
	second := registry.Initialize(context.Background(), ScriptID, Config{AppID: "1"}, init)
	require.Same(t, first, second)

	select {
	case <-first.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("loader never became ready")
	}

	require.Equal(t, 1, init.loadCalls)
	require.Equal(t, 1, init.initCalls)
	require.True(t, first.IsReady())
	require.NoError(t, first.Err())
}

func TestReadinessRequiresInitNotJustLoad(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	init := &fakeInit{initErr: errors.New("handshake refused")}

	loader := registry.Initialize(context.Background(), ScriptID, Config{}, init)

	require.Eventually(t, func() bool {
		return loader.Err() != nil
	}, 2*time.Second, 10*time.Millisecond)

	require.False(t, loader.IsReady())
	require.Equal(t, 1, init.loadCalls)
}

func TestLoadFailureIsPersistent(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	init := &fakeInit{loadErr: errors.New("network unreachable")}

	loader := registry.Initialize(context.Background(), ScriptID, Config{}, init)

	require.Eventually(t, func() bool {
		return loader.Err() != nil
	}, 2*time.Second, 10*time.Millisecond)

	require.False(t, loader.IsReady())
	require.Equal(t, 0, init.initCalls, "init must not run after a failed load")

	// A later lookup still reports the same persistent error.
	again, ok := registry.Lookup(ScriptID)
	require.True(t, ok)
	require.Error(t, again.Err())
}

func TestInitTimeout(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	init := &fakeInit{initDelay: time.Minute}

	loader := registry.Initialize(context.Background(), ScriptID, Config{Timeout: 50 * time.Millisecond}, init)

	require.Eventually(t, func() bool {
		return loader.Err() != nil
	}, 2*time.Second, 10*time.Millisecond)

	require.ErrorIs(t, loader.Err(), ErrInitTimeout)
	require.False(t, loader.IsReady())
}

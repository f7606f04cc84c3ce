package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T, handler http.Handler) *Manager {
	t.Helper()
	if handler == nil {
		handler = http.NewServeMux()
	}
	cfg := DefaultConfig()
	cfg.Addr = ":0"
	cfg.ShutdownTimeout = 5 * time.Second
	return NewManager(handler, cfg, zap.NewNop())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 1<<20, cfg.MaxHeaderBytes)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestManager_ServesUntilShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"healthy"}`))
	})
	m := newTestManager(t, handler)

	require.NoError(t, m.Start())
	t.Cleanup(func() { m.Shutdown(context.Background()) })

	// Start returns with the port bound, so the request cannot race the bind.
	resp, err := http.Get("http://" + m.listener.Addr().String() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))

	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, m.IsRunning())

	_, err = http.Get("http://" + m.Addr() + "/health")
	assert.Error(t, err, "stopped server must refuse connections")
}

func TestManager_StartTwice(t *testing.T) {
	m := newTestManager(t, nil)

	require.NoError(t, m.Start())
	t.Cleanup(func() { m.Shutdown(context.Background()) })

	err := m.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestManager_ShutdownTwice(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.Start())

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_NoRestartAfterShutdown(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.Start())
	require.NoError(t, m.Shutdown(context.Background()))

	err := m.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestManager_BindFailure(t *testing.T) {
	first := newTestManager(t, nil)
	require.NoError(t, first.Start())
	t.Cleanup(func() { first.Shutdown(context.Background()) })

	cfg := DefaultConfig()
	cfg.Addr = first.listener.Addr().String()
	second := NewManager(http.NewServeMux(), cfg, zap.NewNop())

	err := second.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestManager_IsRunning(t *testing.T) {
	m := newTestManager(t, nil)
	assert.True(t, m.IsRunning(), "a fresh manager is not closed")

	require.NoError(t, m.Start())
	assert.True(t, m.IsRunning())

	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, m.IsRunning())
}

func TestManager_ErrorsStaysSilent(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.Start())
	t.Cleanup(func() { m.Shutdown(context.Background()) })

	select {
	case err := <-m.Errors():
		t.Fatalf("unexpected server error: %v", err)
	default:
	}
}

func TestManager_Addr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = ":9153"
	m := NewManager(http.NewServeMux(), cfg, zap.NewNop())
	assert.Equal(t, ":9153", m.Addr())
}

func TestManager_ShutdownDrainsInFlight(t *testing.T) {
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("drained"))
	})
	m := newTestManager(t, handler)
	require.NoError(t, m.Start())

	got := make(chan string, 1)
	go func() {
		resp, err := http.Get("http://" + m.listener.Addr().String() + "/")
		if err != nil {
			got <- err.Error()
			return
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		got <- string(body)
	}()

	// Let the request reach the handler, then shut down while it hangs.
	time.Sleep(50 * time.Millisecond)
	done := make(chan error, 1)
	go func() { done <- m.Shutdown(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	close(release)

	require.NoError(t, <-done)
	assert.Equal(t, "drained", <-got)
}

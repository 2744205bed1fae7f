package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/ssh-key-provisioning-backend/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.Handler) *Server {
	cfg := &api.HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		MetricsAddr:              "",
		Log:                      slog.New(slog.NewTextHandler(io.Discard, nil)),
		DrainDuration:            10 * time.Millisecond,
		GracefulShutdownDuration: time.Second,
		ReadTimeout:              time.Second,
		WriteTimeout:             time.Second,
	}

	srv, err := New(cfg, handler)
	require.NoError(t, err)
	return srv
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_HealthEndpoints(t *testing.T) {
	srv := newTestServer(t, chi.NewRouter())
	mux := srv.srv.Handler

	w := get(mux, "/livez")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")

	w = get(mux, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ready")
}

func TestServer_DrainCycle(t *testing.T) {
	srv := newTestServer(t, chi.NewRouter())
	mux := srv.srv.Handler

	// Drain flips readiness off.
	w := get(mux, "/drain")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "draining")

	w = get(mux, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// A second drain reports the state without changing it.
	w = get(mux, "/drain")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already draining")

	// Undrain restores readiness.
	w = get(mux, "/undrain")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(mux, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(mux, "/undrain")
	assert.Contains(t, w.Body.String(), "already ready")
}

func TestServer_MountsAPIHandler(t *testing.T) {
	apiMux := chi.NewRouter()
	apiMux.Get("/api/public/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})

	srv := newTestServer(t, apiMux)
	mux := srv.srv.Handler

	// API routes pass through to the injected handler.
	w := get(mux, "/api/public/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	// Health endpoints still take precedence over the mount.
	w = get(mux, "/livez")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")

	// Unknown paths fall through to the handler's 404.
	w = get(mux, "/api/public/nonexistent")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_PprofToggle(t *testing.T) {
	cfg := &api.HTTPServerConfig{
		ListenAddr:  "127.0.0.1:0",
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		EnablePprof: true,
	}

	srv, err := New(cfg, chi.NewRouter())
	require.NoError(t, err)

	w := get(srv.srv.Handler, "/debug/pprof/")
	assert.Equal(t, http.StatusOK, w.Code)
}

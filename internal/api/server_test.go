package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadownovel/catalog/internal/auth"
	"github.com/shadownovel/catalog/internal/config"
	"github.com/shadownovel/catalog/internal/http/response"
	"github.com/shadownovel/catalog/internal/service"
	"github.com/shadownovel/catalog/internal/store/sqlite"
	"github.com/shadownovel/catalog/internal/validation"
)

// setupTestServer creates a server over a fresh sqlite store.
func setupTestServer(t *testing.T, tweak ...func(*config.Config)) *Server {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"), logger)
	require.NoError(t, err)

	cfg := config.Default()
	for _, fn := range tweak {
		fn(cfg)
	}

	v := validation.New()
	hasher := auth.NewHasherWithParams(auth.Argon2Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})

	services := &Services{
		User:    service.NewUserService(st, v, hasher, logger),
		Novel:   service.NewNovelService(st, v, cfg.Paging, logger),
		Chapter: service.NewChapterService(st, v, cfg.Paging, cfg.Chapters, logger),
	}

	s := NewServer(services, cfg, logger)
	t.Cleanup(func() {
		s.Close()
		_ = st.Close()
	})
	return s
}

// do sends a request through the full middleware stack.
func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[HealthResponse](t, rec).Status)
}

func TestUnknownRoute_UsesEnvelope(t *testing.T) {
	s := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/nothing-here", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	env := decode[response.Envelope](t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestRateLimit_Returns429(t *testing.T) {
	s := setupTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.RequestsPerSecond = 0.001
		cfg.RateLimit.Burst = 2
	})

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", nil).Code)

	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestCORS_Preflight(t *testing.T) {
	s := setupTestServer(t, func(cfg *config.Config) {
		cfg.Server.AllowedOrigins = []string{"https://reader.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/novels", nil)
	req.Header.Set("Origin", "https://reader.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, "https://reader.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_RejectsUnknownOrigin(t *testing.T) {
	s := setupTestServer(t, func(cfg *config.Config) {
		cfg.Server.AllowedOrigins = []string{"https://reader.example.com"}
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

package slogx_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/portal/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var (
		fromCtx *slog.Logger
		reqID   string
	)
	h := slogx.HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = slogx.FromContext(r.Context())
		reqID = slogx.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	t.Run("propagates incoming request id", func(t *testing.T) {
		const inbound = "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"
		buf.Reset()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
		req.Header.Set(slogx.RequestIDHeader, inbound)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		require.Equal(t, inbound, rec.Header().Get(slogx.RequestIDHeader))
		require.NotNil(t, fromCtx)
		require.Equal(t, inbound, reqID)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "http_request", line["msg"])
		require.Equal(t, inbound, line["req_id"])
		require.EqualValues(t, http.StatusCreated, line["status"])
	})

	t.Run("replaces malformed request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.Header.Set(slogx.RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		require.NotEqual(t, "req-123", rec.Header().Get(slogx.RequestIDHeader))
		require.Len(t, reqID, 26)
	})

	t.Run("generates request id when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		require.NotEmpty(t, rec.Header().Get(slogx.RequestIDHeader))
	})
}

func TestFromContextDefault(t *testing.T) {
	require.Equal(t, slog.Default(), slogx.FromContext(t.Context()))
	require.Empty(t, slogx.RequestIDFromContext(t.Context()))

	ctx := slogx.WithRequestID(t.Context(), "job-1")
	require.Equal(t, "job-1", slogx.RequestIDFromContext(ctx))
}

func TestMaskEmail(t *testing.T) {
	require.Equal(t, "j***@example.com", slogx.MaskEmail("jane@example.com"))
	require.Equal(t, "***", slogx.MaskEmail("not-an-email"))
	require.Equal(t, "***", slogx.MaskEmail("@example.com"))
}

func TestNewLevels(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{
		Service: "portal",
		Version: "test",
		Env:     "test",
		Level:   "warn",
		Format:  "json",
		Output:  &buf,
	})

	logger.Info("hidden")
	require.Zero(t, buf.Len())

	logger.Warn("shown")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "portal", line["service"])
	require.Equal(t, "shown", line["msg"])
}

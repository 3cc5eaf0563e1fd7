package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupRouter(h *HealthHandler) *gin.Engine {
	r := gin.New()
	r.GET("/healthz", h.Health)
	r.HEAD("/healthz", h.Health)
	r.OPTIONS("/healthz", h.Health)
	return r
}

func ok(context.Context) error { return nil }

func TestHealth_ResponseStatus(t *testing.T) {
	t.Parallel()

	failing := Check{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }}

	tests := []struct {
		name           string
		method         string
		checks         []Check
		expectedStatus int
	}{
		{"get without checks", http.MethodGet, nil, http.StatusOK},
		{"get healthy", http.MethodGet, []Check{{Name: "db", Ping: ok}}, http.StatusOK},
		{"get degraded", http.MethodGet, []Check{{Name: "db", Ping: ok}, failing}, http.StatusServiceUnavailable},
		{"head healthy", http.MethodHead, nil, http.StatusOK},
		{"head degraded", http.MethodHead, []Check{failing}, http.StatusServiceUnavailable},
		{"options skips checks", http.MethodOptions, []Check{failing}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			setupRouter(NewHealthHandler(tt.checks...)).ServeHTTP(w, httptest.NewRequest(tt.method, "/healthz", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			if tt.method != http.MethodGet {
				assert.Zero(t, w.Body.Len())
			}
		})
	}
}

func TestHealth_Body(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(
		Check{Name: "db", Ping: ok},
		Check{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }},
	)

	w := httptest.NewRecorder()
	setupRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["db"])
	assert.Equal(t, "connection refused", body.Checks["redis"])
}

func TestHealth_OK_Body(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	setupRouter(NewHealthHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

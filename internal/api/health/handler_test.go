package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finadvisor/pkg/errors"
)

func ok(ctx context.Context) error   { return nil }
func down(ctx context.Context) error { return errors.ErrUnavailable }

func serve(t *testing.T, h http.HandlerFunc) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name     string
		checks   map[string]CheckerFunc
		code     int
		expected string
	}{
		{"no stores", nil, http.StatusOK, "healthy"},
		{"all healthy", map[string]CheckerFunc{"postgres": ok, "redis": ok}, http.StatusOK, "healthy"},
		{"one down", map[string]CheckerFunc{"postgres": ok, "redis": down}, http.StatusOK, "degraded"},
		{"all down", map[string]CheckerFunc{"postgres": down}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New("finadvisor", "test")
			for name, c := range tt.checks {
				h.Register(name, c)
			}

			code, status := serve(t, h.HandleHealth)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.expected, status.Status)
			assert.Len(t, status.Checks, len(tt.checks))
		})
	}
}

func TestHandleReadiness(t *testing.T) {
	h := New("finadvisor", "test").Register("postgres", CheckerFunc(ok)).Register("clickhouse", CheckerFunc(down))

	code, status := serve(t, h.HandleReadiness)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "healthy", status.Checks["postgres"].Status)
	assert.NotEmpty(t, status.Checks["clickhouse"].Error)
}

func TestHandleLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	New("finadvisor", "test").HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

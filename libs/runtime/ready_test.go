package runtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadyz_AllChecksPass(t *testing.T) {
	mux := NewBaseMux(
		ReadyCheck{Name: "db", Check: func(context.Context) error { return nil }},
		ReadyCheck{Name: "redis"},
	)

	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "ok", rw.Body.String())
}

func TestReadyz_ReportsFailures(t *testing.T) {
	mux := NewBaseMux(
		ReadyCheck{Name: "db", Check: func(context.Context) error { return errors.New("down") }},
		ReadyCheck{Check: func(context.Context) error { return errors.New("timeout") }},
	)

	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rw.Code)
	assert.Equal(t, "db: down; dependency: timeout", rw.Body.String())
}

func TestHealthz(t *testing.T) {
	rw := httptest.NewRecorder()
	NewBaseMux().ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("Warning").String())
	assert.Equal(t, "INFO", parseLevel("nonsense").String())
}

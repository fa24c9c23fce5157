package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(checks map[string]Check) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), checks, time.Now().Add(-90*time.Second))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	return rec
}

func TestHealthOK(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := redis.Connect("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	rec := serve(map[string]Check{
		"database": func(context.Context) error { return nil },
		"redis":    rc.Ping,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["database"])
	assert.Equal(t, true, body["redis"])
	assert.Equal(t, "1m0s", body["uptime"])
}

func TestHealthDegraded(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := redis.Connect("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	mr.Close()

	rec := serve(map[string]Check{
		"database": func(context.Context) error { return errors.New("down") },
		"redis":    rc.Ping,
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Contains(t, rec.Body.String(), `"database":false`)
	assert.Contains(t, rec.Body.String(), `"redis":false`)
}

func TestHumanizeDuration(t *testing.T) {
	assert.Equal(t, "42s", humanizeDuration(42*time.Second+300*time.Millisecond))
	assert.Equal(t, "2h0m0s", humanizeDuration(2*time.Hour+5*time.Minute))
	assert.Equal(t, "48h0m0s", humanizeDuration(50*time.Hour))
}

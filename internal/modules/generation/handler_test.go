package generation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/middleware"
	"github.com/logoforge/server/internal/pkg/taskqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(svc *Service, limitMW gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authMW := func(c *gin.Context) {
		uid := c.GetHeader("X-Test-User")
		if uid == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(middleware.ContextKeyUserID, uid)
		c.Next()
	}
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"), authMW, limitMW)
	return r
}

func call(r http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUnauthorizedNeverReachesProvider(t *testing.T) {
	called := false
	f := newFixture(t, &funcProvider{
		generate: func(context.Context, *GenerateRequest) ([]byte, error) {
			called = true
			return nil, nil
		},
		edit: func(context.Context, *EditRequest) ([]byte, error) {
			called = true
			return nil, nil
		},
	})
	r := newRouter(f.svc, nil)

	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodPost, "/api/v1/logos/generate", "", `{"prompt":"x"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodPost, "/api/v1/logos/abc/edit", "", `{"prompt":"x"}`).Code)
	assert.False(t, called)
}

func TestGenerateEndpoint(t *testing.T) {
	f := newFixture(t, newMockProvider(configWithDelay(0)))
	r := newRouter(f.svc, nil)

	rec := call(r, http.MethodPost, "/api/v1/logos/generate", "u1", `{"prompt":"tech startup","config":{"width":512,"height":512,"artStyle":"minimal","backgroundType":"solid","backgroundColors":[{"id":"1","value":"#ffffff","name":"bg"}],"logoColors":[{"id":"1","value":"#3b82f6","name":"p"}],"textLayers":[{"id":"t","text":"","color":"#000000","font":"inter","size":16,"position":"bottom","rotation":0,"order":0}]}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, taskqueue.StateSucceeded, res.Job.State)
	assert.Equal(t, "tech startup", res.Logo.Name)

	rec = call(r, http.MethodGet, "/api/v1/jobs/"+res.Job.ID, "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"succeeded"`)

	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/api/v1/jobs/"+res.Job.ID, "u2", "").Code)

	rec = call(r, http.MethodGet, "/api/v1/jobs", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestGenerateEndpointValidation(t *testing.T) {
	f := newFixture(t, newMockProvider(configWithDelay(0)))
	r := newRouter(f.svc, nil)

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/api/v1/logos/generate", "u1", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/api/v1/logos/generate", "u1", `{"prompt":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/api/v1/logos/generate", "u1", `{"prompt":"x","config":{"width":1}}`).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodPost, "/api/v1/logos/generate", "u1", `{"prompt":"x","draftId":"missing"}`).Code)
}

func TestEditEndpointMapsUpstreamStatus(t *testing.T) {
	f := newFixture(t, &funcProvider{edit: func(context.Context, *EditRequest) ([]byte, error) {
		return nil, &UpstreamError{Status: http.StatusServiceUnavailable, Message: "raw provider detail"}
	}})
	logo := f.seedLogo(t, "u1", "Acme")
	r := newRouter(f.svc, nil)

	rec := call(r, http.MethodPost, "/api/v1/logos/"+logo.ID+"/edit", "u1", `{"prompt":"bolder"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to edit logo")
	assert.NotContains(t, rec.Body.String(), "raw provider detail")

	assert.Equal(t, http.StatusNotFound, call(r, http.MethodPost, "/api/v1/logos/nope/edit", "u1", `{"prompt":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/api/v1/logos/"+logo.ID+"/edit", "u1", `{"prompt":"x","mask":"%%%"}`).Code)
}

func TestEditEndpointSucceeds(t *testing.T) {
	var mask []byte
	f := newFixture(t, &funcProvider{edit: func(_ context.Context, req *EditRequest) ([]byte, error) {
		mask = req.Mask
		return swatch(req.Settings)
	}})
	logo := f.seedLogo(t, "u1", "Acme")
	r := newRouter(f.svc, nil)

	body := `{"prompt":"retro","settings":{"artStyle":"vintage"},"mask":"data:image/png;base64,` + base64.StdEncoding.EncodeToString([]byte("mask")) + `"}`
	rec := call(r, http.MethodPost, "/api/v1/logos/"+logo.ID+"/edit", "u1", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []byte("mask"), mask)

	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Acme (edited)", res.Logo.Name)
	assert.Equal(t, "vintage", string(res.Logo.Settings.ArtStyle))

	rec = call(r, http.MethodGet, "/api/v1/logos/"+logo.ID+"/state", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"idle"}`, rec.Body.String())
}

func TestLimitMiddlewareRunsAfterAuth(t *testing.T) {
	f := newFixture(t, newMockProvider(configWithDelay(0)))
	var seenUser string
	limit := func(c *gin.Context) {
		seenUser = middleware.CurrentUserID(c)
		c.AbortWithStatus(http.StatusTooManyRequests)
	}
	r := newRouter(f.svc, limit)

	assert.Equal(t, http.StatusTooManyRequests, call(r, http.MethodPost, "/api/v1/logos/generate", "u1", `{"prompt":"x"}`).Code)
	assert.Equal(t, "u1", seenUser)
}

package file

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/middleware"
	"github.com/logoforge/server/internal/modules/storage/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func setup(t *testing.T) (*gin.Engine, *blob.LocalStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := blob.NewLocalStore(t.TempDir(), "http://localhost/objects", "logos")
	r := gin.New()
	authMW := func(c *gin.Context) {
		if c.GetHeader("X-Test-User") == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(middleware.ContextKeyUserID, c.GetHeader("X-Test-User"))
		c.Next()
	}
	NewHandler(store, nil, nil).RegisterRoutes(r.Group("/api/v1"), authMW)
	return r, store
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.WriteField("note", "x"))
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doUpload(r http.Handler, user string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUploadStoresImage(t *testing.T) {
	r, store := setup(t)
	body, ct := multipartBody(t, "image", "mine.png", pngBytes)

	rec := doUpload(r, "u1", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "local", out.Storage)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Regexp(t, `^http://localhost/objects/logos/u1/upload-\d+-[0-9a-f]{8}\.png$`, out.URL)

	key, ok := store.KeyFromURL(out.URL)
	require.True(t, ok)
	data, err := store.Get(t.Context(), key)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestUploadRejections(t *testing.T) {
	r, _ := setup(t)

	body, ct := multipartBody(t, "image", "mine.png", pngBytes)
	assert.Equal(t, http.StatusUnauthorized, doUpload(r, "", body, ct).Code)

	body, ct = multipartBody(t, "", "", nil)
	rec := doUpload(r, "u1", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrImageMissing.Error())

	body, ct = multipartBody(t, "image", "notes.txt", []byte("hello world"))
	rec = doUpload(r, "u1", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "png")
}

func TestUploadAcceptsSVG(t *testing.T) {
	r, _ := setup(t)
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`)
	body, ct := multipartBody(t, "image", "logo.svg", svg)
	rec := doUpload(r, "u1", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), ".svg")
}

func TestBuildFileName(t *testing.T) {
	assert.Regexp(t, `^logo-\d+-[0-9a-f]{8}\.png$`, BuildFileName("logo", ""))
	assert.Regexp(t, `^edited-logo-\d+-[0-9a-f]{8}\.jpg$`, BuildFileName("edited-logo", "jpg"))
}

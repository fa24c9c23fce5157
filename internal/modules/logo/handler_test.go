package logo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/middleware"
	"github.com/logoforge/server/internal/models"
	"github.com/logoforge/server/internal/modules/storage/blob"
	"github.com/logoforge/server/internal/pkg/composition"
	"github.com/logoforge/server/internal/pkg/pagination"
	"github.com/logoforge/server/internal/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	logos map[string]*models.LogoModel
	seq   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{logos: map[string]*models.LogoModel{}}
}

func (m *memoryStore) List(ownerID string, f ListQuery, q pagination.Query) ([]models.LogoModel, response.Pagination, error) {
	var out []models.LogoModel
	for _, l := range m.logos {
		if l.OwnerID != ownerID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(f.Search)) {
			continue
		}
		if f.Industry != "" && l.Settings.Industry != f.Industry {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, pagination.Meta(q, int64(len(out))), nil
}

func (m *memoryStore) Get(ownerID, id string) (*models.LogoModel, error) {
	l, ok := m.logos[id]
	if !ok || l.OwnerID != ownerID {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (m *memoryStore) Create(l *models.LogoModel) error {
	m.seq++
	l.ID = fmt.Sprintf("l%02d", m.seq)
	cp := *l
	m.logos[l.ID] = &cp
	return nil
}

func (m *memoryStore) Replace(l *models.LogoModel) error {
	cur, ok := m.logos[l.ID]
	if !ok {
		return fmt.Errorf("missing %s", l.ID)
	}
	cur.URL, cur.StorageKey, cur.Settings = l.URL, l.StorageKey, l.Settings
	return nil
}

func (m *memoryStore) Rename(ownerID, id, name string) (*models.LogoModel, error) {
	l, _ := m.Get(ownerID, id)
	if l == nil {
		return nil, nil
	}
	m.logos[id].Name = strings.TrimSpace(name)
	return m.Get(ownerID, id)
}

func (m *memoryStore) Delete(ownerID, id string) error {
	delete(m.logos, id)
	return nil
}

type fixture struct {
	router *gin.Engine
	store  *memoryStore
	blobs  *blob.LocalStore
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{
		store: newMemoryStore(),
		blobs: blob.NewLocalStore(t.TempDir(), "http://cdn.test/objects", "logos"),
	}
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
	NewHandler(f.store, f.blobs, nil, nil).RegisterRoutes(r.Group("/api/v1"), authMW, nil)
	f.router = r
	return f
}

func (f *fixture) do(method, path, user, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) json(method, path, user, body string) *httptest.ResponseRecorder {
	return f.do(method, path, user, "application/json", []byte(body))
}

// seed stores a PNG blob for owner and records a logo pointing at it.
func (f *fixture) seed(t *testing.T, owner, name string, w, h int) *models.LogoModel {
	t.Helper()
	obj, err := f.blobs.Put(t.Context(), owner, slug(name)+".png", pngImage(t, w, h), "image/png")
	require.NoError(t, err)
	l := &models.LogoModel{OwnerID: owner, Name: name, URL: obj.URL, StorageKey: obj.Key}
	require.NoError(t, f.store.Create(l))
	return l
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string, img []byte, filename string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if img != nil {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(img)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

func decodeLogo(t *testing.T, rec *httptest.ResponseRecorder) models.LogoModel {
	t.Helper()
	var l models.LogoModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l), rec.Body.String())
	return l
}

func TestRoutesRequireAuth(t *testing.T) {
	f := setup(t)
	rec := f.json(http.MethodGet, "/api/v1/logos", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateLogo(t *testing.T) {
	f := setup(t)

	rec := f.json(http.MethodPost, "/api/v1/logos", "u1", `{"name":"Acme","url":"https://img.example.com/a.png"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	l := decodeLogo(t, rec)
	assert.Equal(t, "u1", l.OwnerID)
	assert.Equal(t, 512, l.Settings.Width)
	assert.Empty(t, f.store.logos[l.ID].StorageKey)

	rec = f.json(http.MethodPost, "/api/v1/logos", "u1", `{"name":"Own","url":"http://cdn.test/objects/logos/u1/x.png"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "logos/u1/x.png", f.store.logos[decodeLogo(t, rec).ID].StorageKey)
}

func TestCreateLogoIgnoresForeignBlob(t *testing.T) {
	f := setup(t)
	victim := f.seed(t, "u2", "Victim", 8, 8)

	rec := f.json(http.MethodPost, "/api/v1/logos", "u1", fmt.Sprintf(`{"name":"Copy","url":%q}`, victim.URL))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	copied := decodeLogo(t, rec)
	assert.Empty(t, f.store.logos[copied.ID].StorageKey)

	rec = f.json(http.MethodGet, "/api/v1/logos/"+copied.ID+"/download", "u1", "")
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = f.json(http.MethodDelete, "/api/v1/logos/"+copied.ID, "u1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	_, err := f.blobs.Get(t.Context(), victim.StorageKey)
	assert.NoError(t, err, "another owner's blob must survive")
}

func TestDeleteSkipsForeignStorageKey(t *testing.T) {
	f := setup(t)
	victim := f.seed(t, "u2", "Victim", 8, 8)
	l := &models.LogoModel{OwnerID: "u1", Name: "Forged", URL: victim.URL, StorageKey: victim.StorageKey}
	require.NoError(t, f.store.Create(l))

	rec := f.json(http.MethodDelete, "/api/v1/logos/"+l.ID, "u1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	_, err := f.blobs.Get(t.Context(), victim.StorageKey)
	assert.NoError(t, err)
}

func TestCreateLogoValidation(t *testing.T) {
	f := setup(t)
	cases := map[string]string{
		"missing name": `{"url":"https://x/a.png"}`,
		"missing url":  `{"name":"A"}`,
		"bad settings": `{"name":"A","url":"https://x/a.png","settings":{"width":10,"height":512}}`,
		"bad json":     `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.json(http.MethodPost, "/api/v1/logos", "u1", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	assert.Empty(t, f.store.logos)
}

func TestListFiltersAndScopesByOwner(t *testing.T) {
	f := setup(t)
	f.seed(t, "u1", "Acme Coffee", 8, 8)
	tech := f.seed(t, "u1", "Beta Labs", 8, 8)
	f.store.logos[tech.ID].Settings.Industry = "technology"
	f.seed(t, "u2", "Acme Other", 8, 8)

	var body struct {
		Data       []models.LogoModel  `json:"data"`
		Pagination response.Pagination `json:"pagination"`
	}
	rec := f.json(http.MethodGet, "/api/v1/logos", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)

	rec = f.json(http.MethodGet, "/api/v1/logos?search=acme", "u1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Acme Coffee", body.Data[0].Name)

	rec = f.json(http.MethodGet, "/api/v1/logos?industry=technology", "u1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Beta Labs", body.Data[0].Name)

	rec = f.json(http.MethodGet, "/api/v1/logos", "u3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestGetRenameDelete(t *testing.T) {
	f := setup(t)
	l := f.seed(t, "u1", "Acme", 8, 8)
	path := "/api/v1/logos/" + l.ID

	assert.Equal(t, http.StatusNotFound, f.json(http.MethodGet, path, "u2", "").Code)
	rec := f.json(http.MethodGet, path, "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme", decodeLogo(t, rec).Name)

	assert.Equal(t, http.StatusBadRequest, f.json(http.MethodPatch, path, "u1", `{"name":"  "}`).Code)
	rec = f.json(http.MethodPatch, path, "u1", `{"name":" Acme Co "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Co", decodeLogo(t, rec).Name)

	assert.Equal(t, http.StatusNotFound, f.json(http.MethodDelete, path, "u2", "").Code)
	rec = f.json(http.MethodDelete, path, "u1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.store.logos)
	_, err := f.blobs.Get(t.Context(), l.StorageKey)
	assert.ErrorIs(t, err, blob.ErrObjectNotFound)
}

func TestSaveEditedCreatesNewLogo(t *testing.T) {
	f := setup(t)
	cfg := composition.NewConfiguration()
	cfg.Width, cfg.Height = 300, 300
	cfg.BackgroundType = composition.BackgroundTransparent
	settings, err := json.Marshal(cfg)
	require.NoError(t, err)
	body, ctype := multipartBody(t, map[string]string{"settings": string(settings)}, pngImage(t, 4, 4), "edit.png")

	rec := f.do(http.MethodPost, "/api/v1/logos/save-edited", "u1", ctype, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	l := decodeLogo(t, rec)
	assert.Equal(t, "Edited Logo", l.Name)
	assert.Equal(t, 300, l.Settings.Width)
	assert.Contains(t, l.URL, "/edited-logo-")
	assert.Empty(t, l.Settings.BackgroundColors, "transparent backgrounds carry no colors")

	stored := f.store.logos[l.ID]
	data, err := f.blobs.Get(t.Context(), stored.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, pngImage(t, 4, 4), data)
}

func TestSaveEditedReplacesInPlace(t *testing.T) {
	f := setup(t)
	orig := f.seed(t, "u1", "Acme", 8, 8)
	body, ctype := multipartBody(t, map[string]string{"logoId": orig.ID}, pngImage(t, 6, 6), "edit.png")

	rec := f.do(http.MethodPost, "/api/v1/logos/save-edited", "u1", ctype, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	l := decodeLogo(t, rec)
	assert.Equal(t, orig.ID, l.ID)
	assert.Equal(t, "Acme", l.Name)
	assert.NotEqual(t, orig.URL, l.URL)
	assert.Len(t, f.store.logos, 1)

	_, err := f.blobs.Get(t.Context(), orig.StorageKey)
	assert.ErrorIs(t, err, blob.ErrObjectNotFound, "previous image is discarded")
	_, err = f.blobs.Get(t.Context(), f.store.logos[orig.ID].StorageKey)
	assert.NoError(t, err)
}

func TestSaveEditedErrors(t *testing.T) {
	f := setup(t)
	orig := f.seed(t, "u1", "Acme", 8, 8)

	body, ctype := multipartBody(t, map[string]string{"logoId": orig.ID}, pngImage(t, 2, 2), "e.png")
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/v1/logos/save-edited", "u2", ctype, body).Code)

	body, ctype = multipartBody(t, map[string]string{"settings": "not json"}, pngImage(t, 2, 2), "e.png")
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/v1/logos/save-edited", "u1", ctype, body).Code)

	body, ctype = multipartBody(t, nil, nil, "")
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/v1/logos/save-edited", "u1", ctype, body).Code)

	body, ctype = multipartBody(t, nil, []byte("plain text"), "notes.txt")
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/v1/logos/save-edited", "u1", ctype, body).Code)

	assert.Len(t, f.store.logos, 1)
}

func TestDownload(t *testing.T) {
	f := setup(t)
	l := f.seed(t, "u1", "Acme Coffee!", 40, 20)
	path := "/api/v1/logos/" + l.ID + "/download"

	rec := f.json(http.MethodGet, path+"?format=png&size=256", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="acme-coffee-256.png"`, rec.Header().Get("Content-Disposition"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())

	rec = f.json(http.MethodGet, path+"?format=jpeg&size=512", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "acme-coffee-512.jpg")
}

func TestDownloadErrors(t *testing.T) {
	f := setup(t)
	l := f.seed(t, "u1", "Acme", 8, 8)
	path := "/api/v1/logos/" + l.ID + "/download"

	assert.Equal(t, http.StatusBadRequest, f.json(http.MethodGet, path+"?format=bmp", "u1", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.json(http.MethodGet, path+"?size=300", "u1", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.json(http.MethodGet, path+"?format=svg", "u1", "").Code)
	assert.Equal(t, http.StatusNotFound, f.json(http.MethodGet, path, "u2", "").Code)
}

func TestDownloadVectorAndExternal(t *testing.T) {
	f := setup(t)
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`)
	obj, err := f.blobs.Put(t.Context(), "u1", "mark.svg", svg, "image/svg+xml")
	require.NoError(t, err)
	vec := &models.LogoModel{OwnerID: "u1", Name: "Mark", URL: obj.URL, StorageKey: obj.Key}
	require.NoError(t, f.store.Create(vec))

	rec := f.json(http.MethodGet, "/api/v1/logos/"+vec.ID+"/download?format=svg", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, svg, rec.Body.Bytes())
	assert.Equal(t, http.StatusUnprocessableEntity,
		f.json(http.MethodGet, "/api/v1/logos/"+vec.ID+"/download?format=png", "u1", "").Code)

	ext := &models.LogoModel{OwnerID: "u1", Name: "Ext", URL: "https://img.example.com/ext.png"}
	require.NoError(t, f.store.Create(ext))
	rec = f.json(http.MethodGet, "/api/v1/logos/"+ext.ID+"/download", "u1", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, ext.URL, rec.Header().Get("Location"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "acme-coffee", slug("  Acme  Coffee! "))
	assert.Equal(t, "logo", slug("!!!"))
}

package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/middleware"
	"github.com/logoforge/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	users      map[string]*models.UserModel
	passwords  map[string]string
	loggedOut  []string
	sessions   []models.UserSession
	lastSignup *RegisterDTO
	keptSID    string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{users: map[string]*models.UserModel{}, passwords: map[string]string{}}
}

func (f *fakeAccounts) Register(dto *RegisterDTO) (*models.UserModel, error) {
	f.lastSignup = dto
	email := normalizeEmail(dto.Email)
	for _, u := range f.users {
		if u.Email == email {
			return nil, errEmailTaken
		}
	}
	u := &models.UserModel{Email: email, Name: dto.Name}
	u.ID = "u-" + email
	f.users[u.ID] = u
	f.passwords[email] = dto.Password
	return u, nil
}

func (f *fakeAccounts) Login(email, password, ip, ua string) (string, *models.UserModel, error) {
	email = normalizeEmail(email)
	if pw, ok := f.passwords[email]; !ok || pw != password {
		return "", nil, errInvalidCredentials
	}
	return "token-" + email, f.users["u-"+email], nil
}

func (f *fakeAccounts) Logout(userID, sessionID string) error {
	f.loggedOut = append(f.loggedOut, userID+"/"+sessionID)
	return nil
}

func (f *fakeAccounts) GetByID(id string) (*models.UserModel, error) {
	return f.users[id], nil
}

func (f *fakeAccounts) Sessions(userID string) ([]models.UserSession, error) {
	return f.sessions, nil
}

func (f *fakeAccounts) ChangePassword(id, currentSession, oldPwd, newPwd string) error {
	email := strings.TrimPrefix(id, "u-")
	if f.passwords[email] != oldPwd {
		return errWrongPassword
	}
	if oldPwd == newPwd {
		return errPasswordSameAsOld
	}
	f.passwords[email] = newPwd
	f.keptSID = currentSession
	return nil
}

func setupRouter(svc accountService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authMW := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(middleware.ContextKeyUserID, "u-ada@example.com")
		c.Set(middleware.ContextKeySID, "sess-1")
		c.Next()
	}
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"), authMW)
	return r
}

func do(r http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer x")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newFakeAccounts()
	r := setupRouter(svc)

	rec := do(r, http.MethodPost, "/api/v1/auth/register", `{"email":"Ada@Example.com","password":"correct-horse","name":"Ada"}`, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "ada@example.com", created.Email)

	rec = do(r, http.MethodPost, "/api/v1/auth/register", `{"email":"ada@example.com","password":"correct-horse"}`, false)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(r, http.MethodPost, "/api/v1/auth/login", `{"email":"ada@example.com","password":"wrong-pass"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(r, http.MethodPost, "/api/v1/auth/login", `{"email":"ada@example.com","password":"correct-horse"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var login loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, "token-ada@example.com", login.Token)
	assert.Equal(t, "Ada", login.User.Name)
}

func TestRegisterValidation(t *testing.T) {
	r := setupRouter(newFakeAccounts())

	rec := do(r, http.MethodPost, "/api/v1/auth/register", `{"email":"not-an-email","password":"correct-horse"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, "/api/v1/auth/register", `{"email":"a@b.co","password":"short"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeAndLogout(t *testing.T) {
	svc := newFakeAccounts()
	_, err := svc.Register(&RegisterDTO{Email: "ada@example.com", Password: "correct-horse", Name: "Ada"})
	require.NoError(t, err)
	r := setupRouter(svc)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/v1/auth/me", "", false).Code)

	rec := do(r, http.MethodGet, "/api/v1/auth/me", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ada@example.com"`)

	rec = do(r, http.MethodPost, "/api/v1/auth/logout", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"u-ada@example.com/sess-1"}, svc.loggedOut)
}

func TestListSessionsMarksCurrent(t *testing.T) {
	svc := newFakeAccounts()
	now := time.Now()
	svc.sessions = []models.UserSession{
		{Base: models.Base{ID: "sess-1", UpdatedAt: now}, IP: "1.1.1.1"},
		{Base: models.Base{ID: "sess-2", UpdatedAt: now}, IP: "2.2.2.2"},
	}
	r := setupRouter(svc)

	rec := do(r, http.MethodGet, "/api/v1/auth/sessions", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []sessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.True(t, body.Data[0].Current)
	assert.False(t, body.Data[1].Current)
}

func TestChangePassword(t *testing.T) {
	svc := newFakeAccounts()
	_, err := svc.Register(&RegisterDTO{Email: "ada@example.com", Password: "correct-horse", Name: "Ada"})
	require.NoError(t, err)
	r := setupRouter(svc)

	rec := do(r, http.MethodPatch, "/api/v1/auth/password", `{"oldPassword":"nope","newPassword":"battery-staple"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPatch, "/api/v1/auth/password", `{"oldPassword":"correct-horse","newPassword":"correct-horse"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(r, http.MethodPatch, "/api/v1/auth/password", `{"oldPassword":"correct-horse","newPassword":"battery-staple"}`, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "battery-staple", svc.passwords["ada@example.com"])
	assert.Equal(t, "sess-1", svc.keptSID)
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "ada", defaultName("ada@example.com"))
}

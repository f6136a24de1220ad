package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailydiet/internal/app"
	"dailydiet/internal/model"
	"dailydiet/internal/transport/http/middleware"
)

const testCookie = "diet_session"

// --- in-memory stores ---

type memUserStore struct {
	nextID uint
	users  map[uint]*model.User
}

func (m *memUserStore) Create(user *model.User) error {
	m.nextID++
	user.ID = m.nextID
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memUserStore) GetByUsername(username string) (*model.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memUserStore) GetByID(id uint) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (m *memUserStore) UpdatePasswordHash(id uint, passwordHash string) error {
	if user, ok := m.users[id]; ok {
		user.PasswordHash = passwordHash
	}
	return nil
}

func (m *memUserStore) DeleteCascade(id uint) error {
	delete(m.users, id)
	return nil
}

type memSessionStore struct {
	nextSeq  int
	sessions map[string]uint
}

func (m *memSessionStore) Create(_ context.Context, userID uint) (string, error) {
	m.nextSeq++
	sessionID := fmt.Sprintf("sess-%d", m.nextSeq)
	m.sessions[sessionID] = userID
	return sessionID, nil
}

func (m *memSessionStore) Get(_ context.Context, sessionID string) (uint, bool, error) {
	userID, ok := m.sessions[sessionID]
	return userID, ok, nil
}

func (m *memSessionStore) Delete(_ context.Context, sessionID string) error {
	delete(m.sessions, sessionID)
	return nil
}

type memDietStore struct {
	nextID uint
	diets  map[uint]*model.Diet
}

func (m *memDietStore) Create(diet *model.Diet) error {
	m.nextID++
	diet.ID = m.nextID
	copied := *diet
	m.diets[diet.ID] = &copied
	return nil
}

func (m *memDietStore) GetByID(id uint) (*model.Diet, error) {
	diet, ok := m.diets[id]
	if !ok {
		return nil, nil
	}
	copied := *diet
	return &copied, nil
}

func (m *memDietStore) Update(diet *model.Diet) error {
	copied := *diet
	m.diets[diet.ID] = &copied
	return nil
}

func (m *memDietStore) Delete(id uint) error {
	delete(m.diets, id)
	return nil
}

func (m *memDietStore) ListByUserID(userID uint) ([]model.Diet, error) {
	var out []model.Diet
	for _, diet := range m.diets {
		if diet.UserID == userID {
			out = append(out, *diet)
		}
	}
	return out, nil
}

// --- router wiring ---

type testEnv struct {
	router *gin.Engine
	users  *memUserStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := &memUserStore{users: map[uint]*model.User{}}
	sessions := &memSessionStore{sessions: map[string]uint{}}
	diets := &memDietStore{diets: map[uint]*model.Diet{}}

	authService := app.NewAuthService(users, sessions, nil, "test-secret", time.Hour)
	dietService := app.NewDietService(diets, nil, nil)

	authHandler := NewAuthHandler(authService, testCookie, 3600)
	userHandler := NewUserHandler(authService)
	dietHandler := NewDietHandler(dietService)
	authRequired := middleware.Auth(authService, testCookie)

	router := gin.New()
	router.POST("/user", authHandler.Register)
	router.POST("/login", authHandler.Login)
	router.POST("/logout", authRequired, authHandler.Logout)
	router.GET("/user/:id", authRequired, userHandler.Read)
	router.PUT("/user/:id", authRequired, userHandler.UpdatePassword)
	router.DELETE("/user/:id", authRequired, userHandler.Delete)
	router.POST("/diet", authRequired, dietHandler.Create)
	router.GET("/diet/:id", authRequired, dietHandler.Read)
	router.PUT("/diet/:id", authRequired, dietHandler.Update)
	router.DELETE("/diet/:id", authRequired, dietHandler.Delete)
	router.GET("/diets/:userId", authRequired, dietHandler.ListByUser)

	return &testEnv{router: router, users: users}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, auth ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, fn := range auth {
		fn(req)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func sessionCookie(sessionID string) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: sessionID})
	}
}

func (e *testEnv) register(t *testing.T, username, password string) uint {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/user", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data.ID
}

func (e *testEnv) login(t *testing.T, username, password string) (token, sessionID string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/login", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == testCookie {
			sessionID = cookie.Value
		}
	}
	require.NotEmpty(t, resp.Data.Token)
	require.NotEmpty(t, sessionID)
	return resp.Data.Token, sessionID
}

// --- tests ---

func TestProtectedRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/logout"},
		{http.MethodGet, "/user/1"},
		{http.MethodPut, "/user/1"},
		{http.MethodDelete, "/user/1"},
		{http.MethodPost, "/diet"},
		{http.MethodGet, "/diet/1"},
		{http.MethodPut, "/diet/1"},
		{http.MethodDelete, "/diet/1"},
		{http.MethodGet, "/diets/1"},
	} {
		rec := env.do(t, route.method, route.path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}
}

func TestRegisterLoginAndDietFlow(t *testing.T) {
	env := newTestEnv(t)

	aliceID := env.register(t, "alice", "pw1")
	env.register(t, "bob", "pw2")
	aliceToken, _ := env.login(t, "alice", "pw1")
	bobToken, _ := env.login(t, "bob", "pw2")

	rec := env.do(t, http.MethodPost, "/diet", gin.H{"title": "Mon", "description": "ok"}, bearer(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Owner reads fine, another authenticated user is rejected.
	rec = env.do(t, http.MethodGet, "/diet/1", nil, bearer(aliceToken))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/diet/1", nil, bearer(bobToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/diet/1", gin.H{
		"title":           "Mon",
		"description":     "ok",
		"date":            "not-a-date",
		"consistent_diet": true,
	}, bearer(aliceToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/diet/1", gin.H{
		"title":           "Mon updated",
		"description":     "still ok",
		"date":            "2024-03-01T08:00:00",
		"consistent_diet": false,
	}, bearer(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Listing is not ownership-checked: bob can list alice's entries.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/diets/%d", aliceID), nil, bearer(bobToken))
	assert.Equal(t, http.StatusOK, rec.Code)

	// An empty collection answers 404.
	rec = env.do(t, http.MethodGet, "/diets/2", nil, bearer(bobToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/diet/1", nil, bearer(bobToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodDelete, "/diet/1", nil, bearer(aliceToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionCookieAuthAndLogout(t *testing.T) {
	env := newTestEnv(t)

	aliceID := env.register(t, "alice", "pw1")
	token, sessionID := env.login(t, "alice", "pw1")

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/user/%d", aliceID), nil, sessionCookie(sessionID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/logout", nil, sessionCookie(sessionID))
	require.Equal(t, http.StatusOK, rec.Code)

	// The destroyed session no longer authenticates; the token still does.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/user/%d", aliceID), nil, sessionCookie(sessionID))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/user/%d", aliceID), nil, bearer(token))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserManagementAuthorization(t *testing.T) {
	env := newTestEnv(t)

	aliceID := env.register(t, "alice", "pw1")
	bobID := env.register(t, "bob", "pw2")
	adminID := env.register(t, "root", "pw3")
	env.users.users[adminID].Role = model.RoleAdmin

	aliceToken, _ := env.login(t, "alice", "pw1")
	adminToken, _ := env.login(t, "root", "pw3")

	// Any authenticated user may read any username.
	rec := env.do(t, http.MethodGet, fmt.Sprintf("/user/%d", bobID), nil, bearer(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bob")

	rec = env.do(t, http.MethodGet, "/user/99", nil, bearer(aliceToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Password updates: self always, others admin-only.
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/user/%d", aliceID), gin.H{"password": "new"}, bearer(aliceToken))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/user/%d", bobID), gin.H{"password": "new"}, bearer(aliceToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/user/%d", bobID), gin.H{"password": "new"}, bearer(adminToken))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPut, fmt.Sprintf("/user/%d", aliceID), gin.H{}, bearer(aliceToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Deletes: admin-only, and never the caller's own record.
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/user/%d", bobID), nil, bearer(aliceToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/user/%d", adminID), nil, bearer(adminToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/user/%d", bobID), nil, bearer(adminToken))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/user/%d", bobID), nil, bearer(adminToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

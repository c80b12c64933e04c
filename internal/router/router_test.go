package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/labstack/echo/v4"

	"github.com/ustbian/backend/internal/cache"
	"github.com/ustbian/backend/internal/models"
	"github.com/ustbian/backend/internal/router"
	"github.com/ustbian/backend/pkg/config"
	"github.com/ustbian/backend/validators"
)

const testJWTSecret = "test-secret"

// fakeBroadcaster records emissions so tests can assert on the realtime
// side effects without a live WebSocket.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeBroadcaster) add(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeBroadcaster) has(event string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e == event {
			return true
		}
	}
	return false
}

func (f *fakeBroadcaster) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e == event {
			n++
		}
	}
	return n
}

func (f *fakeBroadcaster) LikeAdded(postID, userID uint) {
	f.add(fmt.Sprintf("post.like.added:%d:%d", postID, userID))
}

func (f *fakeBroadcaster) LikeRemoved(postID, userID uint) {
	f.add(fmt.Sprintf("post.like.removed:%d:%d", postID, userID))
}

func (f *fakeBroadcaster) CommentAdded(postID uint, comment *models.Comment) {
	f.add(fmt.Sprintf("comment.added:%d:%d", postID, comment.ID))
}

func (f *fakeBroadcaster) CommentDeleted(postID, commentID uint) {
	f.add(fmt.Sprintf("comment.deleted:%d:%d", postID, commentID))
}

func (f *fakeBroadcaster) Notification(recipientID uint, n *models.Notification) {
	f.add(fmt.Sprintf("notification:%d:%s", recipientID, n.Type))
}

func (f *fakeBroadcaster) NotificationDeleted(recipientID, notificationID uint) {
	f.add(fmt.Sprintf("notification.deleted:%d:%d", recipientID, notificationID))
}

type testEnv struct {
	e           *echo.Echo
	db          *gorm.DB
	broadcaster *fakeBroadcaster
	redis       *miniredis.Miniredis
}

// newTestEnv spins up an isolated in-memory SQLite database and a
// miniredis, and wires the full route table against them.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rcache := cache.New(mr.Addr(), "", 0)
	broadcaster := &fakeBroadcaster{}

	e := echo.New()
	e.Validator = validators.NewValidator()

	cfg := &config.Config{JWTSecret: testJWTSecret, JWTExpiryHours: 1}
	require.NoError(t, router.SetupRoutes(e, db, rcache, broadcaster, cfg))

	return &testEnv{e: e, db: db, broadcaster: broadcaster, redis: mr}
}

// request performs an HTTP request against the test router. An empty
// token leaves the request unauthenticated.
func (env *testEnv) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
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
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// register creates a user through the API and returns the issued token
// and user. Display name is derived from the username so notification
// message assertions have something distinctive to look for.
func (env *testEnv) register(t *testing.T, username string) (string, models.User) {
	t.Helper()

	rec := env.request(t, http.MethodPost, "/api/v1/auth/register", map[string]interface{}{
		"email":        username + "@example.edu",
		"username":     username,
		"display_name": username + " Display",
		"password":     "password123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp authResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User
}

// login authenticates a user previously created via register.
func (env *testEnv) login(t *testing.T, username string) (string, models.User) {
	t.Helper()

	rec := env.request(t, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    username + "@example.edu",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp authResponse
	decode(t, rec, &resp)
	return resp.Token, resp.User
}

func (env *testEnv) createPost(t *testing.T, token, content string) models.Post {
	t.Helper()

	rec := env.request(t, http.MethodPost, "/api/v1/posts", map[string]interface{}{
		"content": content,
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var post models.Post
	decode(t, rec, &post)
	return post
}

type notificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
}

func (env *testEnv) notifications(t *testing.T, token string) notificationsResponse {
	t.Helper()

	rec := env.request(t, http.MethodGet, "/api/v1/notifications", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp notificationsResponse
	decode(t, rec, &resp)
	return resp
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/v1/posts", map[string]interface{}{"content": "hello"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

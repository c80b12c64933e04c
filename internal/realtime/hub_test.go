package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ustbian/backend/internal/models"
)

const testSecret = "hub-test-secret"

func signToken(t *testing.T, userID uint) string {
	t.Helper()

	claims := &models.JwtCustomClaims{
		UserID:   userID,
		Username: "tester",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(testSecret)
	e := echo.New()
	e.GET("/ws", hub.HandleWS)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, userID uint) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + signToken(t, userID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConns(t *testing.T, hub *Hub, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.conns) == n
	}, time.Second, 10*time.Millisecond)
}

func readEvent(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	return ev.Event, ev.Data
}

func TestHandleWSRejectsMissingToken(t *testing.T) {
	_, srv := newHubServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWSRejectsForgedToken(t *testing.T) {
	_, srv := newHubServer(t)

	claims := &models.JwtCustomClaims{UserID: 1}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + forged
	_, resp, dialErr := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, dialErr)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLikeEventsReachAllClients(t *testing.T) {
	hub, srv := newHubServer(t)

	first := dial(t, srv, 1)
	second := dial(t, srv, 2)
	waitForConns(t, hub, 2)

	hub.LikeAdded(42, 1)

	for _, conn := range []*websocket.Conn{first, second} {
		event, data := readEvent(t, conn)
		assert.Equal(t, "post.like.added", event)

		var payload map[string]uint
		require.NoError(t, json.Unmarshal(data, &payload))
		assert.Equal(t, uint(42), payload["post_id"])
		assert.Equal(t, uint(1), payload["user_id"])
	}
}

func TestCommentEventCarriesPostScopedName(t *testing.T) {
	hub, srv := newHubServer(t)

	conn := dial(t, srv, 1)
	waitForConns(t, hub, 1)

	comment := &models.Comment{ID: 7, PostID: 42, UserID: 2, Content: "hello"}
	hub.CommentAdded(42, comment)

	event, data := readEvent(t, conn)
	assert.Equal(t, "comment.added.42", event)

	var got models.Comment
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, "hello", got.Content)
}

func TestNotificationGoesOnlyToRecipient(t *testing.T) {
	hub, srv := newHubServer(t)

	recipient := dial(t, srv, 1)
	bystander := dial(t, srv, 2)
	waitForConns(t, hub, 2)

	actorID := uint(2)
	hub.Notification(1, &models.Notification{
		ID:          9,
		Type:        models.NotificationTypeLike,
		ActorID:     &actorID,
		RecipientID: 1,
		Message:     "someone liked your post",
	})

	event, data := readEvent(t, recipient)
	assert.Equal(t, "notification.1", event)

	var got models.Notification
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, uint(9), got.ID)

	// The bystander must not see it.
	require.NoError(t, bystander.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var ignored json.RawMessage
	assert.Error(t, bystander.ReadJSON(&ignored))
}

func TestUnregisterDropsClosedConnections(t *testing.T) {
	hub, srv := newHubServer(t)

	conn := dial(t, srv, 1)
	waitForConns(t, hub, 1)

	conn.Close()
	waitForConns(t, hub, 0)

	// Pushing to an empty hub is a no-op.
	hub.NotificationDeleted(1, 9)
}

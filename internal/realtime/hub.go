package realtime

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/ustbian/backend/internal/models"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub is the single broadcast channel. Like and comment events go to
// every connected client (clients filter by post id); notification
// events go only to the recipient's connections.
type Hub struct {
	jwtSecret string

	mu    sync.Mutex
	conns map[*websocket.Conn]uint
	users map[uint]map[*websocket.Conn]bool
}

var _ Broadcaster = (*Hub)(nil)

func NewHub(jwtSecret string) *Hub {
	return &Hub{
		jwtSecret: jwtSecret,
		conns:     make(map[*websocket.Conn]uint),
		users:     make(map[uint]map[*websocket.Conn]bool),
	}
}

// HandleWS authenticates the token query parameter, upgrades the
// connection and keeps it registered until the client disconnects.
func (h *Hub) HandleWS(c echo.Context) error {
	tokenString := c.QueryParam("token")
	if tokenString == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "err", err)
		return nil
	}

	h.register(conn, claims.UserID)
	slog.Info("websocket connected", "user_id", claims.UserID)

	// Read loop exists only to detect the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(conn)
	_ = conn.Close()
	slog.Info("websocket disconnected", "user_id", claims.UserID)
	return nil
}

func (h *Hub) register(conn *websocket.Conn, userID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = userID
	if h.users[userID] == nil {
		h.users[userID] = make(map[*websocket.Conn]bool)
	}
	h.users[userID][conn] = true
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	userID, ok := h.conns[conn]
	if !ok {
		return
	}
	delete(h.conns, conn)
	delete(h.users[userID], conn)
	if len(h.users[userID]) == 0 {
		delete(h.users, userID)
	}
}

func (h *Hub) LikeAdded(postID, userID uint) {
	h.broadcast(Event{
		Event: "post.like.added",
		Data:  map[string]uint{"post_id": postID, "user_id": userID},
	})
}

func (h *Hub) LikeRemoved(postID, userID uint) {
	h.broadcast(Event{
		Event: "post.like.removed",
		Data:  map[string]uint{"post_id": postID, "user_id": userID},
	})
}

func (h *Hub) CommentAdded(postID uint, comment *models.Comment) {
	h.broadcast(Event{
		Event: fmt.Sprintf("comment.added.%d", postID),
		Data:  comment,
	})
}

func (h *Hub) CommentDeleted(postID, commentID uint) {
	h.broadcast(Event{
		Event: fmt.Sprintf("comment.deleted.%d", postID),
		Data:  map[string]uint{"comment_id": commentID},
	})
}

func (h *Hub) Notification(recipientID uint, notification *models.Notification) {
	h.sendToUser(recipientID, Event{
		Event: fmt.Sprintf("notification.%d", recipientID),
		Data:  notification,
	})
}

func (h *Hub) NotificationDeleted(recipientID, notificationID uint) {
	h.sendToUser(recipientID, Event{
		Event: fmt.Sprintf("notification.deleted.%d", recipientID),
		Data:  map[string]uint{"notification_id": notificationID},
	})
}

// broadcast writes the event to every connection. Write failures are
// logged and otherwise ignored: delivery is best-effort.
func (h *Hub) broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		h.write(conn, event)
	}
}

func (h *Hub) sendToUser(userID uint, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.users[userID] {
		h.write(conn, event)
	}
}

func (h *Hub) write(conn *websocket.Conn, event Event) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(event); err != nil {
		slog.Warn("websocket push failed", "err", err)
	}
}

package realtime

import "github.com/ustbian/backend/internal/models"

// Broadcaster is the capability handed to services that push realtime
// events. All emissions are fire-and-forget, at-most-once: a client that
// is not connected simply misses the event until its next full fetch.
type Broadcaster interface {
	LikeAdded(postID, userID uint)
	LikeRemoved(postID, userID uint)
	CommentAdded(postID uint, comment *models.Comment)
	CommentDeleted(postID, commentID uint)
	Notification(recipientID uint, notification *models.Notification)
	NotificationDeleted(recipientID, notificationID uint)
}

// Event is the wire envelope pushed to WebSocket clients.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

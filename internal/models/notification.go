package models

import "time"

// Notification types
const (
	NotificationTypeLike    = "like"
	NotificationTypeFollow  = "follow"
	NotificationTypeComment = "comment"
	NotificationTypeMention = "mention"
)

// Notification is derived side state fanned out from like/comment/follow/
// mention events. It references its trigger through the typed PostID and
// CommentID columns rather than a foreign key, so deleting a post or
// comment requires the compensating deletes in the notify package.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:20;index"`
	ActorID     *uint     `json:"actor_id,omitempty" gorm:"index"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	PostID      *uint     `json:"post_id,omitempty" gorm:"index"`
	CommentID   *uint     `json:"comment_id,omitempty" gorm:"index"`
	Message     string    `json:"message" gorm:"size:255"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

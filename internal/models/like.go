package models

import "time"

// Like represents a like on a post. The (user, post) pair is unique, so
// a lost like/like race surfaces as a constraint violation rather than a
// duplicate row.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_user_post_like"`
	PostID    uint      `json:"post_id" gorm:"index;uniqueIndex:idx_user_post_like"`
	CreatedAt time.Time `json:"created_at"`
}

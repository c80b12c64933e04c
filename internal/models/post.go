package models

import "time"

// Post represents a user-authored text post with optional media URLs.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Content   string    `json:"content" gorm:"size:500"`
	MediaURLs []string  `json:"media_urls,omitempty" gorm:"serializer:json"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:UserID"`
}

// CreatePostRequest defines the request body for creating a new post.
// Media URL entries are counted but their format is not enforced.
type CreatePostRequest struct {
	Content   string   `json:"content" validate:"required,min=1,max=500,post_content"`
	MediaURLs []string `json:"media_urls,omitempty" validate:"omitempty,max=10"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Content   string   `json:"content,omitempty" validate:"omitempty,min=1,max=500,post_content"`
	MediaURLs []string `json:"media_urls,omitempty" validate:"omitempty,max=10"`
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/ustbian/backend/internal/models"
	"github.com/ustbian/backend/internal/repositories"
)

// SavedPostHandler handles saved post HTTP requests. Bookmarking is
// private: no notifications, no broadcasts.
type SavedPostHandler struct {
	savedPostRepository repositories.SavedPostRepository
	postRepository      repositories.PostRepository
}

// NewSavedPostHandler creates a new SavedPostHandler
func NewSavedPostHandler(savedPostRepo repositories.SavedPostRepository, postRepo repositories.PostRepository) *SavedPostHandler {
	return &SavedPostHandler{
		savedPostRepository: savedPostRepo,
		postRepository:      postRepo,
	}
}

// RegisterSavedPostRoutes registers saved post routes
func (h *SavedPostHandler) RegisterSavedPostRoutes(auth *echo.Group) {
	auth.POST("/posts/:post_id/saved", h.SavePost)
	auth.DELETE("/posts/:post_id/saved", h.UnsavePost)
	auth.GET("/posts/:post_id/saved", h.CheckSaved)
	auth.GET("/saved-posts/my", h.GetMySavedPosts)
	auth.GET("/saved-posts/status", h.GetSavedStatus)
}

// SavePost bookmarks a post
func (h *SavedPostHandler) SavePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	if _, err := h.postRepository.GetPostByID(postID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusConflict, "Post does not exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	isSaved, err := h.savedPostRepository.IsPostSaved(currentUserID, postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if isSaved {
		return echo.NewHTTPError(http.StatusConflict, "Post already saved")
	}

	savedPost := &models.SavedPost{
		UserID: currentUserID,
		PostID: postID,
	}

	if err := h.savedPostRepository.SavePost(savedPost); err != nil {
		// Unique index violation: a concurrent request won the race.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "Post already saved")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"saved": true})
}

// UnsavePost removes a post from saved. Removing an absent bookmark is
// a no-op success.
func (h *SavedPostHandler) UnsavePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	if _, err := h.savedPostRepository.UnsavePost(currentUserID, postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"saved": false})
}

// CheckSaved reports whether the authenticated user has saved the post
func (h *SavedPostHandler) CheckSaved(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	isSaved, err := h.savedPostRepository.IsPostSaved(currentUserID, postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "saved": isSaved})
}

// GetSavedStatus batch-checks which of the given post ids the
// authenticated user has saved.
func (h *SavedPostHandler) GetSavedStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postIDs, err := parsePostIDsQuery(c)
	if err != nil {
		return err
	}

	saved, err := h.savedPostRepository.GetSavedPostIDs(currentUserID, postIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"saved_post_ids": saved})
}

// GetMySavedPosts returns the authenticated user's bookmarked posts
func (h *SavedPostHandler) GetMySavedPosts(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	posts, err := h.savedPostRepository.GetSavedPostsByUser(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, posts)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/ustbian/backend/internal/models"
	"github.com/ustbian/backend/internal/notify"
	"github.com/ustbian/backend/internal/realtime"
	"github.com/ustbian/backend/internal/repositories"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	notifier       *notify.Notifier
	broadcaster    realtime.Broadcaster
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	likeRepo repositories.LikeRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifier *notify.Notifier,
	broadcaster realtime.Broadcaster,
) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		postRepository: postRepo,
		userRepository: userRepo,
		notifier:       notifier,
		broadcaster:    broadcaster,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(public, auth *echo.Group) {
	auth.POST("/posts/:post_id/likes", h.LikePost)
	auth.DELETE("/posts/:post_id/likes", h.UnlikePost)
	public.GET("/posts/:post_id/likes/count", h.GetLikesCountForPost)
	auth.GET("/posts/:post_id/likes/status", h.GetUserLikeStatusForPost)
	auth.GET("/likes/my", h.GetMyLikedPosts)
}

// LikePost handles liking a post. A missing post or an existing like is
// a conflict; a lost race against a concurrent like surfaces the same
// way through the unique (user, post) index.
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(postID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusConflict, "Post does not exist")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	hasLiked, err := h.likeRepository.HasUserLikedPost(postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hasLiked {
		return echo.NewHTTPError(http.StatusConflict, "Post already liked by this user")
	}

	like := &models.Like{
		PostID: postID,
		UserID: currentUserID,
	}

	if err := h.likeRepository.CreateLike(like); err != nil {
		// Unique index violation: a concurrent request won the race.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "Post already liked by this user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.broadcaster.LikeAdded(postID, currentUserID)

	if currentUserID != post.UserID {
		liker, err := h.userRepository.GetUserByID(currentUserID)
		if err == nil {
			h.notifier.LikeCreated(c.Request().Context(), liker, post)
		}
	}

	return c.JSON(http.StatusCreated, like)
}

// UnlikePost handles unliking a post. Removing an absent like is a
// no-op success to keep client retries simple.
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	removed, err := h.likeRepository.DeleteLike(postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if removed {
		h.broadcaster.LikeRemoved(postID, currentUserID)
		h.notifier.LikeRemoved(c.Request().Context(), currentUserID, postID)
	}

	return c.JSON(http.StatusOK, echo.Map{"liked": false})
}

// GetLikesCountForPost retrieves the total number of likes for a post
func (h *LikeHandler) GetLikesCountForPost(c echo.Context) error {
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	count, err := h.likeRepository.GetLikesCountByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "likes_count": count})
}

// GetUserLikeStatusForPost checks if the authenticated user has liked a post
func (h *LikeHandler) GetUserLikeStatusForPost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	hasLiked, err := h.likeRepository.HasUserLikedPost(postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "has_liked": hasLiked})
}

// GetMyLikedPosts batch-checks which of the given post ids the
// authenticated user has liked.
func (h *LikeHandler) GetMyLikedPosts(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postIDs, err := parsePostIDsQuery(c)
	if err != nil {
		return err
	}

	likedIDs, err := h.likeRepository.GetLikedPostIDs(currentUserID, postIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if likedIDs == nil {
		likedIDs = []uint{}
	}

	return c.JSON(http.StatusOK, echo.Map{"liked_post_ids": likedIDs})
}

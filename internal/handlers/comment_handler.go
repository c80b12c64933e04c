package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/ustbian/backend/internal/models"
	"github.com/ustbian/backend/internal/notify"
	"github.com/ustbian/backend/internal/realtime"
	"github.com/ustbian/backend/internal/repositories"
)

const defaultCommentListLimit = 50

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	notifier          *notify.Notifier
	broadcaster       realtime.Broadcaster
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifier *notify.Notifier,
	broadcaster realtime.Broadcaster,
) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		userRepository:    userRepo,
		notifier:          notifier,
		broadcaster:       broadcaster,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(public, auth *echo.Group) {
	auth.POST("/posts/:post_id/comments", h.CreateComment)
	public.GET("/posts/:post_id/comments", h.GetCommentsByPostID)
	public.GET("/posts/:post_id/comments/count", h.GetCommentsCount)
	auth.DELETE("/posts/:post_id/comments/:comment_id", h.DeleteComment)
}

// CreateComment creates a new comment on a post, optionally as a reply
// to an existing comment.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(postID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.ParentID != nil {
		parent, err := h.commentRepository.GetCommentByID(*req.ParentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return echo.NewHTTPError(http.StatusNotFound, "Parent comment not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if parent.PostID != postID {
			return echo.NewHTTPError(http.StatusNotFound, "Parent comment not found")
		}
	}

	author, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated user not found in database")
	}

	comment := &models.Comment{
		PostID:   postID,
		UserID:   currentUserID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}

	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	comment.Author = author

	h.broadcaster.CommentAdded(postID, comment)

	if currentUserID != post.UserID {
		h.notifier.CommentCreated(c.Request().Context(), author, post, comment)
	}

	return c.JSON(http.StatusCreated, comment)
}

// GetCommentsByPostID retrieves the comments for a post, oldest first
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	if _, err := h.postRepository.GetPostByID(postID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = defaultCommentListLimit
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	comments, err := h.commentRepository.GetCommentsByPostID(postID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, comments)
}

// GetCommentsCount retrieves the number of comments on a post
func (h *CommentHandler) GetCommentsCount(c echo.Context) error {
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	count, err := h.commentRepository.GetCommentsCountByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "comments_count": count})
}

// DeleteComment deletes a comment and its replies. A missing comment is
// a no-op success; only the comment author may delete it.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentRepository.GetCommentByID(uint(commentID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.NoContent(http.StatusNoContent)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if comment.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	deletedIDs, err := h.commentRepository.DeleteCommentTree(comment.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.broadcaster.CommentDeleted(comment.PostID, comment.ID)
	h.notifier.CommentsRemoved(c.Request().Context(), deletedIDs)

	return c.NoContent(http.StatusNoContent)
}

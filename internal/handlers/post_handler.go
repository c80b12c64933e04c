package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/ustbian/backend/internal/models"
	"github.com/ustbian/backend/internal/notify"
	"github.com/ustbian/backend/internal/repositories"
	"github.com/ustbian/backend/pkg/textparse"
)

const (
	defaultPostListLimit = 20
	defaultHashtagLimit  = 50
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	notifier       *notify.Notifier
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, notifier *notify.Notifier) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		notifier:       notifier,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(public, auth *echo.Group) {
	auth.POST("/posts", h.CreatePost)
	public.GET("/posts", h.GetPosts)
	public.GET("/posts/hashtag/:tag", h.SearchByHashtag)
	public.GET("/posts/:post_id", h.GetPost)
	auth.PATCH("/posts/:post_id", h.UpdatePost)
	auth.DELETE("/posts/:post_id", h.DeletePost)
}

// CreatePost creates a new post and fans out mention notifications for
// any @usernames in the content.
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	author, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated user not found in database")
	}

	post := &models.Post{
		UserID:    currentUserID,
		Content:   req.Content,
		MediaURLs: req.MediaURLs,
	}

	if err := h.postRepository.CreatePost(post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	post.Author = author

	mentions := textparse.ExtractMentions(post.Content)
	h.notifier.MentionsCreated(c.Request().Context(), author, post, mentions)

	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(postID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, post)
}

// GetPosts retrieves the most recent posts
func (h *PostHandler) GetPosts(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = defaultPostListLimit
	}

	posts, err := h.postRepository.GetRecentPosts(limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, posts)
}

// SearchByHashtag retrieves posts containing #tag, case-insensitively
func (h *PostHandler) SearchByHashtag(c echo.Context) error {
	tag := c.Param("tag")
	if tag == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Hashtag is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = defaultHashtagLimit
	}

	posts, err := h.postRepository.SearchByHashtag(tag, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, posts)
}

// UpdatePost updates an existing post and reconciles mention
// notifications against the edited content.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	existingPost, err := h.postRepository.GetPostByID(postID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if existingPost.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this post")
	}

	oldContent := existingPost.Content
	if req.Content != "" {
		existingPost.Content = req.Content
	}
	if req.MediaURLs != nil {
		existingPost.MediaURLs = req.MediaURLs
	}

	if err := h.postRepository.UpdatePost(existingPost); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if existingPost.Content != oldContent {
		author, err := h.userRepository.GetUserByID(currentUserID)
		if err == nil {
			added := textparse.AddedMentions(oldContent, existingPost.Content)
			removed := textparse.RemovedMentions(oldContent, existingPost.Content)
			h.notifier.MentionsCreated(c.Request().Context(), author, existingPost, added)
			h.notifier.MentionsRemoved(c.Request().Context(), existingPost, removed)
		}
	}

	return c.JSON(http.StatusOK, existingPost)
}

// DeletePost deletes a post. Notifications referencing the post are
// removed first since they carry no foreign key to it.
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	existingPost, err := h.postRepository.GetPostByID(postID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if existingPost.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	h.notifier.PostRemoved(c.Request().Context(), postID)

	if err := h.postRepository.DeletePost(postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

func parsePostID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("post_id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}
	return uint(id), nil
}

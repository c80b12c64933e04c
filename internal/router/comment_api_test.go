package router_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ustbian/backend/internal/models"
)

func TestCreateCommentNotifiesPostAuthor(t *testing.T) {
	env := newTestEnv(t)

	aliceToken, _ := env.register(t, "alice")
	bobToken, _ := env.register(t, "bob")

	post := env.createPost(t, aliceToken, "discuss")

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), map[string]interface{}{
		"content": "great point",
	}, bobToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var comment models.Comment
	decode(t, rec, &comment)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Nil(t, comment.ParentID)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "bob", comment.Author.Username)

	assert.True(t, env.broadcaster.has(fmt.Sprintf("comment.added:%d:%d", post.ID, comment.ID)))

	resp := env.notifications(t, aliceToken)
	require.Len(t, resp.Notifications, 1)
	n := resp.Notifications[0]
	assert.Equal(t, models.NotificationTypeComment, n.Type)
	require.NotNil(t, n.CommentID)
	assert.Equal(t, comment.ID, *n.CommentID)
}

func TestCommentOnMissingPost(t *testing.T) {
	env := newTestEnv(t)

	token, _ := env.register(t, "alice")

	rec := env.request(t, http.MethodPost, "/api/v1/posts/999/comments", map[string]interface{}{
		"content": "into the void",
	}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReplyToComment(t *testing.T) {
	env := newTestEnv(t)

	aliceToken, _ := env.register(t, "alice")
	post := env.createPost(t, aliceToken, "thread")

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), map[string]interface{}{
		"content": "top level",
	}, aliceToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var parent models.Comment
	decode(t, rec, &parent)

	rec = env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), map[string]interface{}{
		"content":   "a reply",
		"parent_id": parent.ID,
	}, aliceToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reply models.Comment
	decode(t, rec, &reply)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, parent.ID, *reply.ParentID)
}

func TestReplyToMissingParent(t *testing.T) {
	env := newTestEnv(t)

	token, _ := env.register(t, "alice")
	post := env.createPost(t, token, "thread")

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), map[string]interface{}{
		"content":   "orphan reply",
		"parent_id": 12345,
	}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReplyToParentOnOtherPost(t *testing.T) {
	env := newTestEnv(t)

	token, _ := env.register(t, "alice")
	first := env.createPost(t, token, "first thread")
	second := env.createPost(t, token, "second thread")

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", first.ID), map[string]interface{}{
		"content": "on the first post",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var parent models.Comment
	decode(t, rec, &parent)

	rec = env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", second.ID), map[string]interface{}{
		"content":   "wrong thread",
		"parent_id": parent.ID,
	}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCommentCascadesToReplies(t *testing.T) {
	env := newTestEnv(t)

	aliceToken, _ := env.register(t, "alice")
	bobToken, _ := env.register(t, "bob")

	post := env.createPost(t, bobToken, "thread")

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), map[string]interface{}{
		"content": "parent",
	}, aliceToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var parent models.Comment
	decode(t, rec, &parent)

	rec = env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), map[string]interface{}{
		"content":   "reply",
		"parent_id": parent.ID,
	}, bobToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var reply models.Comment
	decode(t, rec, &reply)

	rec = env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d/comments/%d", post.ID, parent.ID), nil, aliceToken)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.True(t, env.broadcaster.has(fmt.Sprintf("comment.deleted:%d:%d", post.ID, parent.ID)))

	var rows int64
	require.NoError(t, env.db.Model(&models.Comment{}).Where("id IN ?", []uint{parent.ID, reply.ID}).Count(&rows).Error)
	assert.Zero(t, rows)

	// Bob's comment notification for the parent comment is withdrawn too.
	var stale int64
	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("comment_id IS NOT NULL").
		Count(&stale).Error)
	assert.Zero(t, stale)
}

func TestDeleteCommentCascadesNestedReplies(t *testing.T) {
	env := newTestEnv(t)

	token, _ := env.register(t, "alice")
	post := env.createPost(t, token, "deep thread")

	comment := func(content string, parentID *uint) models.Comment {
		body := map[string]interface{}{"content": content}
		if parentID != nil {
			body["parent_id"] = *parentID
		}
		rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), body, token)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var c models.Comment
		decode(t, rec, &c)
		return c
	}

	top := comment("top", nil)
	child := comment("child", &top.ID)
	grandchild := comment("grandchild", &child.ID)

	rec := env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d/comments/%d", post.ID, top.ID), nil, token)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var rows int64
	require.NoError(t, env.db.Model(&models.Comment{}).
		Where("id IN ?", []uint{top.ID, child.ID, grandchild.ID}).
		Count(&rows).Error)
	assert.Zero(t, rows)

	// No comment may be left pointing at a deleted parent.
	var dangling int64
	require.NoError(t, env.db.Model(&models.Comment{}).
		Where("parent_id IS NOT NULL AND parent_id NOT IN (SELECT id FROM comments)").
		Count(&dangling).Error)
	assert.Zero(t, dangling)
}

func TestDeleteCommentForbiddenForNonAuthor(t *testing.T) {
	env := newTestEnv(t)

	aliceToken, _ := env.register(t, "alice")
	bobToken, _ := env.register(t, "bob")

	post := env.createPost(t, aliceToken, "thread")

	rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), map[string]interface{}{
		"content": "mine",
	}, aliceToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var comment models.Comment
	decode(t, rec, &comment)

	rec = env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d/comments/%d", post.ID, comment.ID), nil, bobToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteMissingCommentIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	token, _ := env.register(t, "alice")
	post := env.createPost(t, token, "thread")

	rec := env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d/comments/999", post.ID), nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListCommentsOldestFirst(t *testing.T) {
	env := newTestEnv(t)

	token, _ := env.register(t, "alice")
	post := env.createPost(t, token, "thread")

	for _, content := range []string{"first", "second", "third"} {
		rec := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), map[string]interface{}{
			"content": content,
		}, token)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var comments []models.Comment
	decode(t, rec, &comments)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "third", comments[2].Content)
}

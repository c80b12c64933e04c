// Package notify is the notification fan-out: every like, comment,
// follow or mention event lands here, gets persisted, bumps the
// recipient's unread counter and is pushed over the realtime gateway.
// It also owns the compensating deletes that keep notifications
// consistent when the triggering content disappears.
package notify

import (
	"context"
	"log/slog"

	"github.com/ustbian/backend/internal/cache"
	"github.com/ustbian/backend/internal/models"
	"github.com/ustbian/backend/internal/realtime"
	"github.com/ustbian/backend/internal/repositories"
)

type Notifier struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	cache         *cache.Cache
	broadcaster   realtime.Broadcaster
}

func New(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	c *cache.Cache,
	broadcaster realtime.Broadcaster,
) *Notifier {
	return &Notifier{
		notifications: notificationRepo,
		users:         userRepo,
		cache:         c,
		broadcaster:   broadcaster,
	}
}

// LikeCreated notifies the post author that actor liked their post.
func (n *Notifier) LikeCreated(ctx context.Context, actor *models.User, post *models.Post) {
	actorID := actor.ID
	n.create(ctx, &models.Notification{
		Type:        models.NotificationTypeLike,
		ActorID:     &actorID,
		RecipientID: post.UserID,
		PostID:      &post.ID,
		Message:     actor.DisplayName + " liked your post",
	})
}

// LikeRemoved deletes the LIKE notification the unlike invalidated.
func (n *Notifier) LikeRemoved(ctx context.Context, actorID, postID uint) {
	deleted, err := n.notifications.DeleteLike(actorID, postID)
	if err != nil {
		slog.Error("deleting like notification", "post_id", postID, "err", err)
		return
	}
	n.emitDeleted(ctx, deleted)
}

// CommentCreated notifies the post author that actor commented.
func (n *Notifier) CommentCreated(ctx context.Context, actor *models.User, post *models.Post, comment *models.Comment) {
	actorID := actor.ID
	n.create(ctx, &models.Notification{
		Type:        models.NotificationTypeComment,
		ActorID:     &actorID,
		RecipientID: post.UserID,
		PostID:      &post.ID,
		CommentID:   &comment.ID,
		Message:     actor.DisplayName + " commented on your post",
	})
}

// CommentsRemoved deletes the notifications produced by the given
// comments (a deleted comment plus its cascaded replies).
func (n *Notifier) CommentsRemoved(ctx context.Context, commentIDs []uint) {
	deleted, err := n.notifications.DeleteByCommentIDs(commentIDs)
	if err != nil {
		slog.Error("deleting comment notifications", "err", err)
		return
	}
	n.emitDeleted(ctx, deleted)
}

// FollowCreated notifies recipientID that actor started following them.
func (n *Notifier) FollowCreated(ctx context.Context, actor *models.User, recipientID uint) {
	actorID := actor.ID
	n.create(ctx, &models.Notification{
		Type:        models.NotificationTypeFollow,
		ActorID:     &actorID,
		RecipientID: recipientID,
		Message:     actor.DisplayName + " started following you",
	})
}

// MentionsCreated resolves the extracted usernames and notifies each
// existing user, excluding the author mentioning themselves. Unknown
// usernames are skipped without error.
func (n *Notifier) MentionsCreated(ctx context.Context, actor *models.User, post *models.Post, usernames []string) {
	if len(usernames) == 0 {
		return
	}
	users, err := n.users.GetUsersByUsernames(usernames)
	if err != nil {
		slog.Error("resolving mentioned usernames", "err", err)
		return
	}
	actorID := actor.ID
	for _, mentioned := range users {
		if mentioned.ID == actor.ID {
			continue
		}
		n.create(ctx, &models.Notification{
			Type:        models.NotificationTypeMention,
			ActorID:     &actorID,
			RecipientID: mentioned.ID,
			PostID:      &post.ID,
			Message:     actor.DisplayName + " mentioned you in a post",
		})
	}
}

// MentionsRemoved deletes the MENTION notifications for usernames that
// an edit removed from the post content.
func (n *Notifier) MentionsRemoved(ctx context.Context, post *models.Post, usernames []string) {
	if len(usernames) == 0 {
		return
	}
	users, err := n.users.GetUsersByUsernames(usernames)
	if err != nil {
		slog.Error("resolving removed mentions", "err", err)
		return
	}
	for _, mentioned := range users {
		deleted, err := n.notifications.DeleteMention(mentioned.ID, post.ID)
		if err != nil {
			slog.Error("deleting mention notification", "post_id", post.ID, "err", err)
			continue
		}
		n.emitDeleted(ctx, deleted)
	}
}

// PostRemoved deletes every notification referencing the post. Must run
// before the post row itself is removed.
func (n *Notifier) PostRemoved(ctx context.Context, postID uint) {
	deleted, err := n.notifications.DeleteByPostID(postID)
	if err != nil {
		slog.Error("deleting post notifications", "post_id", postID, "err", err)
		return
	}
	n.emitDeleted(ctx, deleted)
}

// ListForUser returns the recipient's notifications, newest first.
func (n *Notifier) ListForUser(userID uint, limit int) ([]models.Notification, error) {
	return n.notifications.GetByRecipientID(userID, limit)
}

// UnreadCount serves the counter from Redis when possible and
// repopulates it from the database on a miss.
func (n *Notifier) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if count, ok := n.cache.GetUnread(ctx, userID); ok {
		return count, nil
	}
	count, err := n.notifications.GetUnreadCount(userID)
	if err != nil {
		return 0, err
	}
	n.cache.SetUnread(ctx, userID, count)
	return count, nil
}

// MarkAsRead reports false when the notification does not exist, is not
// owned by userID, or was already read.
func (n *Notifier) MarkAsRead(ctx context.Context, userID, notificationID uint) (bool, error) {
	updated, err := n.notifications.MarkAsRead(userID, notificationID)
	if err != nil {
		return false, err
	}
	if updated {
		n.cache.DecrUnread(ctx, userID)
	}
	return updated, nil
}

func (n *Notifier) MarkAllAsRead(ctx context.Context, userID uint) error {
	if err := n.notifications.MarkAllAsRead(userID); err != nil {
		return err
	}
	// Drop the counter rather than writing 0 so the next read
	// recomputes it from the rows just updated.
	n.cache.InvalidateUnread(ctx, userID)
	return nil
}

// create persists the notification, bumps the unread counter and pushes
// it to the recipient. Persistence failures are logged, never surfaced:
// a notification must not fail the request that triggered it.
func (n *Notifier) create(ctx context.Context, notification *models.Notification) {
	if err := n.notifications.CreateNotification(notification); err != nil {
		slog.Error("creating notification", "type", notification.Type, "recipient_id", notification.RecipientID, "err", err)
		return
	}
	n.cache.IncrUnread(ctx, notification.RecipientID)
	n.broadcaster.Notification(notification.RecipientID, notification)
}

func (n *Notifier) emitDeleted(ctx context.Context, deleted []models.Notification) {
	for _, d := range deleted {
		if !d.IsRead {
			n.cache.DecrUnread(ctx, d.RecipientID)
		}
		n.broadcaster.NotificationDeleted(d.RecipientID, d.ID)
	}
}

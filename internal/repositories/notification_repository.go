package repositories

import (
	"github.com/ustbian/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations.
// The Delete* methods return the removed rows so the caller can emit
// deletion events and fix up unread counters.
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	GetByRecipientID(recipientID uint, limit int) ([]models.Notification, error)
	GetUnreadCount(recipientID uint) (int64, error)
	MarkAsRead(recipientID, notificationID uint) (bool, error)
	MarkAllAsRead(recipientID uint) error
	DeleteByCommentIDs(commentIDs []uint) ([]models.Notification, error)
	DeleteMention(recipientID, postID uint) ([]models.Notification, error)
	DeleteLike(actorID, postID uint) ([]models.Notification, error)
	DeleteByPostID(postID uint) ([]models.Notification, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) GetByRecipientID(recipientID uint, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) GetUnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("recipient_id = ? AND is_read = ?", recipientID, false).Count(&count).Error
	return count, err
}

// MarkAsRead sets the read flag and reports whether an unread
// notification owned by recipientID was actually updated.
func (r *postgresNotificationRepository) MarkAsRead(recipientID, notificationID uint) (bool, error) {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", notificationID, recipientID, false).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(recipientID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}

func (r *postgresNotificationRepository) DeleteByCommentIDs(commentIDs []uint) ([]models.Notification, error) {
	if len(commentIDs) == 0 {
		return nil, nil
	}
	return r.deleteWhere("comment_id IN ?", commentIDs)
}

func (r *postgresNotificationRepository) DeleteMention(recipientID, postID uint) ([]models.Notification, error) {
	return r.deleteWhere("type = ? AND recipient_id = ? AND post_id = ?",
		models.NotificationTypeMention, recipientID, postID)
}

func (r *postgresNotificationRepository) DeleteLike(actorID, postID uint) ([]models.Notification, error) {
	return r.deleteWhere("type = ? AND actor_id = ? AND post_id = ?",
		models.NotificationTypeLike, actorID, postID)
}

func (r *postgresNotificationRepository) DeleteByPostID(postID uint) ([]models.Notification, error) {
	return r.deleteWhere("post_id = ?", postID)
}

// deleteWhere fetches the matching rows before deleting them so the
// deleted set can be returned to the caller.
func (r *postgresNotificationRepository) deleteWhere(query string, args ...interface{}) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(query, args...).Find(&notifications).Error; err != nil {
			return err
		}
		if len(notifications) == 0 {
			return nil
		}
		ids := make([]uint, len(notifications))
		for i, n := range notifications {
			ids[i] = n.ID
		}
		return tx.Delete(&models.Notification{}, ids).Error
	})
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

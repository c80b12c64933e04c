package repositories

import (
	"github.com/ustbian/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentByID(id uint) (*models.Comment, error)
	GetCommentsByPostID(postID uint, limit, offset int) ([]models.Comment, error)
	GetCommentsCountByPostID(postID uint) (int64, error)
	DeleteCommentTree(id uint) ([]uint, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

func (r *PostgresCommentRepository) GetCommentByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *PostgresCommentRepository) GetCommentsByPostID(postID uint, limit, offset int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&comments).Error
	return comments, err
}

func (r *PostgresCommentRepository) GetCommentsCountByPostID(postID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

// DeleteCommentTree deletes the comment and every reply nested beneath
// it in one transaction and returns the ids of all removed comments, so
// callers can clean up the notifications those comments produced.
// Replies can themselves have replies, so the subtree is walked level by
// level before the delete.
func (r *PostgresCommentRepository) DeleteCommentTree(id uint) ([]uint, error) {
	var deleted []uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		deleted = []uint{id}
		frontier := []uint{id}
		for len(frontier) > 0 {
			var replyIDs []uint
			if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &replyIDs).Error; err != nil {
				return err
			}
			if len(replyIDs) == 0 {
				break
			}
			deleted = append(deleted, replyIDs...)
			frontier = replyIDs
		}
		return tx.Delete(&models.Comment{}, deleted).Error
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

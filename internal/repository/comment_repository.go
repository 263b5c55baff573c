package repository

import (
	"github.com/yukikurage/soundshare-api/internal/database"
	"github.com/yukikurage/soundshare-api/internal/models"
	"github.com/yukikurage/soundshare-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

// Create creates a new comment without touching the commenter row
func (r *GormCommentRepository) Create(comment *models.Comment) error {
	return r.db.Omit(clause.Associations).Create(comment).Error
}

// FindByID finds a comment by ID
func (r *GormCommentRepository) FindByID(id uint64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// List retrieves comments oldest first, hiding private ones unless asked
func (r *GormCommentRepository) List(filter CommentFilter) ([]models.Comment, int64, error) {
	query := r.db.Model(&models.Comment{}).
		Where("commentable_type = ? AND commentable_id = ?", filter.CommentableType, filter.CommentableID).
		Where("is_spam = ?", false)
	if !filter.IncludePrivate {
		query = query.Where("is_private = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at ASC").Order("id ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	var comments []models.Comment
	if err := listQuery.Preload("Commenter").Find(&comments).Error; err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

// ExistsDuplicate reports whether the same body came from the same IP
func (r *GormCommentRepository) ExistsDuplicate(commentableType models.CommentableType, commentableID uint64, body, remoteIP string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).
		Where("commentable_type = ? AND commentable_id = ?", commentableType, commentableID).
		Where("body = ? AND remote_ip = ?", body, remoteIP).
		Count(&count).Error
	return count > 0, err
}

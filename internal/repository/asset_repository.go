package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/soundshare-api/internal/database"
	"github.com/yukikurage/soundshare-api/internal/models"
	"github.com/yukikurage/soundshare-api/internal/utils"
	"gorm.io/gorm"
)

// GormAssetRepository is a GORM implementation of AssetRepository
type GormAssetRepository struct {
	db *gorm.DB
}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &GormAssetRepository{db: db}
}

// Create creates an asset and increments the owner's assets_count
func (r *GormAssetRepository) Create(asset *models.Asset) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(asset).Error; err != nil {
			return err
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", asset.UserID).
			UpdateColumn("assets_count", gorm.Expr("assets_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindByID finds an asset by ID
func (r *GormAssetRepository) FindByID(id uint64) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.First(&asset, id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// List retrieves assets with filtering and pagination, newest first
func (r *GormAssetRepository) List(filter AssetFilter) ([]models.Asset, int64, error) {
	query := r.db.Model(&models.Asset{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.PublishedOnly {
		query = query.Where("published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC").Order("id DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	var assets []models.Asset
	if err := listQuery.Find(&assets).Error; err != nil {
		return nil, 0, err
	}

	return assets, total, nil
}

// FirstCreatedAt returns nil when the user has no live assets
func (r *GormAssetRepository) FirstCreatedAt(userID uint64) (*time.Time, error) {
	var asset models.Asset
	err := r.db.Select("id", "created_at").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Take(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset.CreatedAt, nil
}

package repository

import (
	"github.com/yukikurage/soundshare-api/internal/models"
	"gorm.io/gorm"
)

// GormListenRepository is a GORM implementation of ListenRepository
type GormListenRepository struct {
	db *gorm.DB
}

// NewListenRepository creates a new ListenRepository
func NewListenRepository(db *gorm.DB) ListenRepository {
	return &GormListenRepository{db: db}
}

// Create records the listen and increments the asset's and the track
// owner's listens_count in one transaction.
func (r *GormListenRepository) Create(listen *models.Listen) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(listen).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Asset{}).
			Where("id = ?", listen.AssetID).
			UpdateColumn("listens_count", gorm.Expr("listens_count + 1")).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ?", listen.TrackOwnerID).
			UpdateColumn("listens_count", gorm.Expr("listens_count + 1")).Error
	})
}

// CountByAsset counts live listens of an asset
func (r *GormListenRepository) CountByAsset(assetID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Listen{}).Where("asset_id = ?", assetID).Count(&count).Error
	return count, err
}
